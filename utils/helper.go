package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "GT"

var validate = newValidate()

// Input structs carry gin-style `binding` tags; the validator reads them
// directly since there is no HTTP binding layer in front of the engine.
func newValidate() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

func GetValidator() *validator.Validate {
	return validate
}

func ProcessValidationErrors(err error) map[string]string {

	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorResponse
	}

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

// ValidateStruct runs the binding-tag checks on an input struct and folds
// any failures into a single ValidationError keyed by field.
func ValidateStruct(input interface{}) error {
	if err := GetValidator().Struct(input); err != nil {
		return NewValidationError("invalid input: %v", ProcessValidationErrors(err))
	}
	return nil
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err // Phone number is invalid
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil // Phone number is valid for the specified country code
}

func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			// if not exists in map, append it, otherwise do nothing
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// TenantLock obtains an advisory Redis lock scoped to one tenant. The caller
// must invoke the returned release func once its critical section commits.
// When Redis is not configured the lock degrades to a no-op; the database
// conditional updates stay the source of truth for stock correctness.
func TenantLock(ctx context.Context, tenantId string, lockType string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, tenantId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for tenant", tenantId, err)
		return nil, errors.New("could not obtain lock for tenant")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for tenant", tenantId, err)
		return nil, err
	}

	return func() {
		_ = lock.Release(ctx)
	}, nil
}
