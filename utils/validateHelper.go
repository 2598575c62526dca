package utils

import (
	"context"
	"reflect"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
)

// check if id exists, using tenant_id in WHERE, return RecordNotFound Error
func ValidateResourceId[T any](ctx context.Context, tenantId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, tenantId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// check if id exists AND its status is Active, return RecordNotFound Error
func ValidateActiveResourceId[T any](ctx context.Context, tenantId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, tenantId, "id = ? AND status = ?", id, "Active")
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, tenantId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, tenantId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, tenantId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return NewValidationError("duplicate %s", column)
	}
	return nil
}

// count records, using WHERE tenant_id = ? AND $condition
// tenant_id can be blank for admin use
func ResourceCountWhere[T any](ctx context.Context, tenantId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if tenantId != "" {
		dbCtx.Where("tenant_id = ?", tenantId)
	}
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
