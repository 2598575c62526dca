package models_test

import (
	"testing"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/models"
	"github.com/shopspring/decimal"
)

// Batch isolation: given [A(valid), B(insufficient stock), C(valid)] and a
// stock-required target, A and C update, B fails with a populated shortfall
// list, and B's failure leaves A and C untouched.
func TestBatchUpdateOrderStatusIsolation(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	client := createTestClient(t, ctx, "Batch Client")
	plenty := createTestProduct(t, ctx, "Plenty", "PL-001", decimal.NewFromInt(10), decimal.NewFromInt(100))
	scarce := createTestProduct(t, ctx, "Scarce", "SC-001", decimal.NewFromInt(10), decimal.NewFromInt(3))

	newOrder := func(productId int, qty int64) int {
		t.Helper()
		order, err := models.CreateOrder(ctx, &models.NewOrder{
			ClientId: client.ID,
			Items:    []models.NewOrderItem{{ProductId: productId, Quantity: decimal.NewFromInt(qty)}},
		})
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
		return order.ID
	}

	orderA := newOrder(plenty.ID, 5)
	orderB := newOrder(scarce.ID, 10)
	orderC := newOrder(plenty.ID, 7)

	result, err := models.BatchUpdateOrderStatus(ctx, []int{orderA, orderB, orderC}, models.OrderStatusConfirmed, nil)
	if err != nil {
		t.Fatalf("BatchUpdateOrderStatus: %v", err)
	}

	if result.UpdatedCount != 2 || result.FailedCount != 1 || result.Total != 3 {
		t.Fatalf("updated=%d failed=%d total=%d, want 2/1/3", result.UpdatedCount, result.FailedCount, result.Total)
	}
	if len(result.FailedDetails) != 1 {
		t.Fatalf("failed details = %d, want 1", len(result.FailedDetails))
	}
	detail := result.FailedDetails[0]
	if detail.OrderId != orderB || detail.Reason != models.BatchFailureStockValidation {
		t.Fatalf("failure detail = %+v, want order %d / %s", detail, orderB, models.BatchFailureStockValidation)
	}
	if len(detail.Shortfalls) != 1 {
		t.Fatalf("shortfalls = %d, want 1", len(detail.Shortfalls))
	}
	sf := detail.Shortfalls[0]
	if sf.ProductId != scarce.ID || !sf.Required.Equal(decimal.NewFromInt(10)) || !sf.Available.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("shortfall = %+v, want product %d required 10 available 3", sf, scarce.ID)
	}

	// A and C confirmed and their stock reserved
	for _, id := range []int{orderA, orderC} {
		reloaded, err := models.GetOrder(ctx, id)
		if err != nil {
			t.Fatalf("GetOrder(%d): %v", id, err)
		}
		if reloaded.Status != models.OrderStatusConfirmed {
			t.Fatalf("order %d status = %s, want CONFIRMED", id, reloaded.Status)
		}
	}
	if got := fetchProductStock(t, ctx, plenty.ID); !got.Equal(decimal.NewFromInt(88)) {
		t.Fatalf("plenty stock = %s, want 88 (100 - 5 - 7)", got)
	}

	// B untouched
	reloadedB, err := models.GetOrder(ctx, orderB)
	if err != nil {
		t.Fatalf("GetOrder(B): %v", err)
	}
	if reloadedB.Status != models.OrderStatusPending {
		t.Fatalf("order B status = %s, want PENDING", reloadedB.Status)
	}
	if got := fetchProductStock(t, ctx, scarce.ID); !got.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("scarce stock = %s, want 3", got)
	}
}

// Missing ids are reported as order_not_found without aborting the batch,
// and the optional notes update applies to the orders that succeeded.
func TestBatchUpdateOrderStatusNotFoundAndNotes(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	client := createTestClient(t, ctx, "Batch NF Client")
	product := createTestProduct(t, ctx, "Widget", "WG-001", decimal.NewFromInt(10), decimal.NewFromInt(50))

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		ClientId: client.ID,
		Items:    []models.NewOrderItem{{ProductId: product.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	notes := "dispatched in wave 2"
	result, err := models.BatchUpdateOrderStatus(ctx, []int{order.ID, 999999}, models.OrderStatusConfirmed, &notes)
	if err != nil {
		t.Fatalf("BatchUpdateOrderStatus: %v", err)
	}

	if result.UpdatedCount != 1 || result.FailedCount != 1 {
		t.Fatalf("updated=%d failed=%d, want 1/1", result.UpdatedCount, result.FailedCount)
	}
	if result.FailedDetails[0].Reason != models.BatchFailureOrderNotFound {
		t.Fatalf("failure reason = %s, want %s", result.FailedDetails[0].Reason, models.BatchFailureOrderNotFound)
	}
	if len(result.SuccessDetails) != 1 || result.SuccessDetails[0].OrderNumber == "" {
		t.Fatalf("success details = %+v, want one entry with an order number", result.SuccessDetails)
	}

	reloaded, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if reloaded.Notes != notes {
		t.Fatalf("notes = %q, want %q", reloaded.Notes, notes)
	}
}
