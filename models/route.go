package models

import (
	"context"
	"errors"
	"time"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
	"github.com/CarlosEstrada30/smart-orders-api-sub000/utils"
)

// Route is a delivery circuit; products may carry route-specific price
// overrides (see ProductRoutePrice).
type Route struct {
	ID          int          `gorm:"primary_key" json:"id"`
	TenantId    string       `gorm:"index;not null" json:"tenant_id" binding:"required"`
	Name        string       `gorm:"size:100;not null" json:"name" binding:"required"`
	Description string       `gorm:"size:255" json:"description"`
	Status      ActiveStatus `gorm:"type:enum('Active','Inactive');not null;default:'Active'" json:"status"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRoute struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func CreateRoute(ctx context.Context, input *NewRoute) (*Route, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Route](ctx, tenantId, "name", input.Name, 0); err != nil {
		return nil, err
	}

	route := Route{
		TenantId:    tenantId,
		Name:        input.Name,
		Description: input.Description,
		Status:      ActiveStatusActive,
	}

	if err := db.WithContext(ctx).Create(&route).Error; err != nil {
		return nil, err
	}

	_ = utils.RemoveRedisList[Route](tenantId)

	return &route, nil
}

func ToggleActiveRoute(ctx context.Context, id int, active bool) (*Route, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	route, err := utils.FetchModel[Route](ctx, tenantId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("route", id)
	}

	status := ActiveStatusInactive
	if active {
		status = ActiveStatusActive
	}
	if err := db.WithContext(ctx).Model(route).Update("Status", status).Error; err != nil {
		return nil, err
	}
	route.Status = status

	_ = utils.RemoveRedisList[Route](tenantId)

	return route, nil
}

func GetRoute(ctx context.Context, id int) (*Route, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	route, err := utils.FetchModel[Route](ctx, tenantId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("route", id)
	}
	return route, nil
}

func GetRoutes(ctx context.Context, status *ActiveStatus) ([]*Route, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if status == nil {
		cached, err := utils.RetrieveRedisList[Route](tenantId)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	dbCtx := db.WithContext(ctx).Where("tenant_id = ?", tenantId)
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}

	var results []*Route
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}

	if status == nil {
		_ = utils.StoreRedisList[Route](results, tenantId)
	}

	return results, nil
}

func IsRouteActive(ctx context.Context, tenantId string, routeId int) (bool, error) {
	count, err := utils.ResourceCountWhere[Route](ctx, tenantId, "id = ? AND status = ?", routeId, ActiveStatusActive)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
