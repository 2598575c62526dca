package utils

import (
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

// get type name of struct
func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

// store list, TypeList:$tenant_id
func StoreRedisList[T any](obj any, tenantId string) error {
	key := GetTypeName[T]() + "List:" + tenantId
	return config.SetRedisObject(key, &obj, GetCacheLifespan())
}

// retrieve a list, returns nil if not cached
func RetrieveRedisList[T any](tenantId string) ([]*T, error) {
	key := GetTypeName[T]() + "List:" + tenantId

	var result []*T
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// clear list, TypeList:$tenant_id
func RemoveRedisList[T any](tenantId string) error {
	key := GetTypeName[T]() + "List:" + tenantId
	return config.DeleteRedisKey(key)
}
