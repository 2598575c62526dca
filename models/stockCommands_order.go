package models

import (
	"fmt"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
	"github.com/CarlosEstrada30/smart-orders-api-sub000/utils"
	"gorm.io/gorm"
)

// ReserveOrderStock decrements stock for every item of an order, two-phase:
//
// Phase 1 reads every product and collects the complete shortfall list; if
// any item cannot be covered, nothing is mutated and InsufficientStockError
// carries all shortfalls.
//
// Phase 2 issues one conditional UPDATE per item (stock = stock - qty,
// guarded by status = Active AND stock >= qty) and checks rows-affected.
// The guard makes the decrement atomic per product, so two reservations
// racing on the same row cannot both pass; a zero rows-affected means a
// concurrent transaction depleted the stock after phase 1 and the caller
// must roll back.
func ReserveOrderStock(tx *gorm.DB, tenantId string, items []OrderItem) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}

	var shortfalls []utils.StockShortfall
	for _, item := range items {
		var product Product
		err := tx.Where("tenant_id = ?", tenantId).First(&product, item.ProductId).Error
		if err != nil {
			return utils.NewNotFoundError("product", item.ProductId)
		}
		if product.Status != ActiveStatusActive || product.Stock.LessThan(item.Quantity) {
			shortfalls = append(shortfalls, utils.StockShortfall{
				ProductId: product.ID,
				Name:      product.Name,
				Sku:       product.Sku,
				Required:  item.Quantity,
				Available: product.Stock,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &utils.InsufficientStockError{Shortfalls: shortfalls}
	}

	for _, item := range items {
		result := tx.Model(&Product{}).
			Where("id = ? AND tenant_id = ? AND status = ? AND stock >= ?",
				item.ProductId, tenantId, ActiveStatusActive, item.Quantity).
			Update("stock", gorm.Expr("stock - ?", item.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// depleted between phase 1 and here by a concurrent reservation
			var product Product
			if err := tx.Where("tenant_id = ?", tenantId).First(&product, item.ProductId).Error; err != nil {
				return utils.NewNotFoundError("product", item.ProductId)
			}
			return &utils.InsufficientStockError{Shortfalls: []utils.StockShortfall{{
				ProductId: product.ID,
				Name:      product.Name,
				Sku:       product.Sku,
				Required:  item.Quantity,
				Available: product.Stock,
			}}}
		}
	}

	return nil
}

// ReleaseOrderStock increments stock back for every item. Individual
// failures are logged and swallowed: restoring stock must never block a
// status change that is otherwise valid.
func ReleaseOrderStock(tx *gorm.DB, tenantId string, items []OrderItem) {
	logger := config.GetLogger()
	for _, item := range items {
		err := tx.Model(&Product{}).
			Where("id = ? AND tenant_id = ?", item.ProductId, tenantId).
			Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error
		if err != nil {
			config.LogError(logger, "stockCommands_order.go", "ReleaseOrderStock", "failed to release stock", item.ProductId, err)
		}
	}
}

// ApplyOrderStockForStatusTransition applies stock side effects for an order
// status transition.
//
// stock-free -> stock-required : reserve every item
// stock-required -> stock-free : release every item
//
// Any other crossing is a no-op. Must run inside the same transaction as the
// status write.
func ApplyOrderStockForStatusTransition(tx *gorm.DB, order *Order, oldStatus OrderStatus) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if order == nil {
		return fmt.Errorf("order is nil")
	}
	if oldStatus == order.Status {
		return nil
	}

	reserve := !oldStatus.RequiresStock() && order.Status.RequiresStock()
	release := oldStatus.RequiresStock() && !order.Status.RequiresStock()
	if !reserve && !release {
		return nil
	}

	ctx := tx.Statement.Context
	unlock, err := utils.TenantLock(ctx, order.TenantId, "stockLock", "stockCommands_order.go", "ApplyOrderStockForStatusTransition")
	if err != nil {
		return err
	}
	defer unlock()

	if reserve {
		return ReserveOrderStock(tx, order.TenantId, order.Items)
	}
	ReleaseOrderStock(tx, order.TenantId, order.Items)
	return nil
}
