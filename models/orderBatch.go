package models

import (
	"context"
	"errors"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
	"github.com/CarlosEstrada30/smart-orders-api-sub000/utils"
)

const (
	BatchFailureOrderNotFound   = "order_not_found"
	BatchFailureStockValidation = "stock_validation_failed"
	BatchFailureUnexpected      = "unexpected_error"
)

type BatchSuccessDetail struct {
	OrderId     int                `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Items       []OrderItemSummary `json:"items"`
}

type BatchFailureDetail struct {
	OrderId     int                    `json:"order_id"`
	OrderNumber string                 `json:"order_number,omitempty"`
	Reason      string                 `json:"reason"`
	Message     string                 `json:"message,omitempty"`
	Shortfalls  []utils.StockShortfall `json:"shortfalls,omitempty"`
}

type BatchStatusResult struct {
	UpdatedCount   int                  `json:"updated_count"`
	FailedCount    int                  `json:"failed_count"`
	Total          int                  `json:"total"`
	Success        []int                `json:"success"`
	Failed         []int                `json:"failed"`
	SuccessDetails []BatchSuccessDetail `json:"success_details"`
	FailedDetails  []BatchFailureDetail `json:"failed_details"`
}

// BatchUpdateOrderStatus applies one target status to many orders. Each
// order is processed independently in its own transaction; one order's
// failure never aborts or rolls back the others. On a stock-required
// crossing the stock is pre-validated so a shortfall is reported without
// touching the order.
func BatchUpdateOrderStatus(ctx context.Context, orderIds []int, newStatus OrderStatus, notes *string) (*BatchStatusResult, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if !newStatus.IsValid() {
		return nil, utils.NewValidationError("unknown order status %q", newStatus)
	}

	result := BatchStatusResult{Total: len(orderIds)}

	for _, orderId := range orderIds {
		order, err := utils.FetchModel[Order](ctx, tenantId, orderId, "Items")
		if err != nil {
			result.Failed = append(result.Failed, orderId)
			result.FailedDetails = append(result.FailedDetails, BatchFailureDetail{
				OrderId: orderId,
				Reason:  BatchFailureOrderNotFound,
			})
			result.FailedCount++
			continue
		}

		// pre-validate stock on a stock-required crossing so a shortfall
		// is reported without mutating the order
		if !order.Status.RequiresStock() && newStatus.RequiresStock() {
			var shortfalls []utils.StockShortfall
			for _, item := range order.Items {
				available, err := CheckStockAvailability(ctx, item.ProductId, item.Quantity)
				if err != nil {
					shortfalls = nil
					break
				}
				if !available {
					var product Product
					if err := db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&product, item.ProductId).Error; err != nil {
						continue
					}
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
				result.Failed = append(result.Failed, orderId)
				result.FailedDetails = append(result.FailedDetails, BatchFailureDetail{
					OrderId:     orderId,
					OrderNumber: order.OrderNumber,
					Reason:      BatchFailureStockValidation,
					Shortfalls:  shortfalls,
				})
				result.FailedCount++
				continue
			}
		}

		updated, err := UpdateOrderStatus(ctx, orderId, newStatus)
		if err != nil {
			detail := BatchFailureDetail{
				OrderId:     orderId,
				OrderNumber: order.OrderNumber,
				Reason:      BatchFailureUnexpected,
				Message:     err.Error(),
			}
			// UpdateOrderStatus can still hit a shortfall under concurrency
			if stockErr, ok := utils.AsInsufficientStockError(err); ok {
				detail.Reason = BatchFailureStockValidation
				detail.Shortfalls = stockErr.Shortfalls
			}
			result.Failed = append(result.Failed, orderId)
			result.FailedDetails = append(result.FailedDetails, detail)
			result.FailedCount++
			continue
		}

		if notes != nil {
			if err := db.WithContext(ctx).Model(updated).Update("Notes", *notes).Error; err != nil {
				config.LogError(config.GetLogger(), "orderBatch.go", "BatchUpdateOrderStatus", "failed to update notes", orderId, err)
			}
		}

		detail := BatchSuccessDetail{
			OrderId:     updated.ID,
			OrderNumber: updated.OrderNumber,
		}
		productIds := make([]int, 0, len(updated.Items))
		for _, item := range updated.Items {
			productIds = append(productIds, item.ProductId)
		}
		products, err := productsById(ctx, tenantId, productIds)
		if err != nil {
			config.LogError(config.GetLogger(), "orderBatch.go", "BatchUpdateOrderStatus", "failed to load products for detail", orderId, err)
			products = map[int]Product{}
		}
		for _, item := range updated.Items {
			product, ok := products[item.ProductId]
			if !ok {
				continue
			}
			detail.Items = append(detail.Items, OrderItemSummary{
				ProductId:   item.ProductId,
				ProductName: product.Name,
				Sku:         product.Sku,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalPrice:  item.TotalPrice,
			})
		}
		result.Success = append(result.Success, orderId)
		result.SuccessDetails = append(result.SuccessDetails, detail)
		result.UpdatedCount++
	}

	return &result, nil
}
