package models

import (
	"context"
	"errors"
	"time"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
	"github.com/CarlosEstrada30/smart-orders-api-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRoutePrice overrides a product's catalog price for one route.
type ProductRoutePrice struct {
	ID        int             `gorm:"primary_key" json:"id"`
	TenantId  string          `gorm:"index;not null;uniqueIndex:uk_product_route" json:"tenant_id" binding:"required"`
	ProductId int             `gorm:"not null;uniqueIndex:uk_product_route" json:"product_id" binding:"required"`
	RouteId   int             `gorm:"not null;uniqueIndex:uk_product_route" json:"route_id" binding:"required"`
	Price     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// UpsertProductRoutePrice creates or replaces the override for one
// (product, route) pair.
func UpsertProductRoutePrice(ctx context.Context, productId int, routeId int, price decimal.Decimal) (*ProductRoutePrice, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if price.IsNegative() {
		return nil, utils.NewValidationError("route price must not be negative")
	}
	if err := utils.ValidateResourceId[Product](ctx, tenantId, productId); err != nil {
		return nil, utils.NewNotFoundError("product", productId)
	}
	if err := utils.ValidateResourceId[Route](ctx, tenantId, routeId); err != nil {
		return nil, utils.NewNotFoundError("route", routeId)
	}

	record := ProductRoutePrice{
		TenantId:  tenantId,
		ProductId: productId,
		RouteId:   routeId,
		Price:     price,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "product_id"}, {Name: "route_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price"}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func DeleteProductRoutePrice(ctx context.Context, productId int, routeId int) error {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return errors.New("tenant id is required")
	}

	return db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND route_id = ?", tenantId, productId, routeId).
		Delete(&ProductRoutePrice{}).Error
}

// ResolveUnitPrice returns the route override when one exists, else the
// catalog price. The result is snapshotted onto order items at create/edit
// time and never revised afterwards.
func ResolveUnitPrice(ctx context.Context, tenantId string, productId int, routeId *int) (decimal.Decimal, error) {
	db := config.GetDB()

	if routeId != nil && *routeId > 0 {
		var override ProductRoutePrice
		err := db.WithContext(ctx).
			Where("tenant_id = ? AND product_id = ? AND route_id = ?", tenantId, productId, *routeId).
			First(&override).Error
		if err == nil {
			return override.Price, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, err
		}
	}

	var product Product
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantId).
		First(&product, productId).Error
	if err != nil {
		return decimal.Zero, utils.NewNotFoundError("product", productId)
	}
	return product.Price, nil
}
