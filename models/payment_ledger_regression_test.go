package models_test

import (
	"testing"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/models"
	"github.com/CarlosEstrada30/smart-orders-api-sub000/utils"
	"github.com/shopspring/decimal"
)

// Payments move an order UNPAID -> PARTIAL -> PAID and the ledger fields
// reconcile after every mutation.
func TestPaymentProgression(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	client := createTestClient(t, ctx, "Ledger Client")
	pA := createTestProduct(t, ctx, "Item A", "IA-001", decimal.NewFromInt(5), decimal.NewFromInt(100))
	pB := createTestProduct(t, ctx, "Item B", "IB-001", decimal.NewFromInt(150), decimal.NewFromInt(100))

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		ClientId: client.ID,
		Items: []models.NewOrderItem{
			{ProductId: pA.ID, Quantity: decimal.NewFromInt(3)},
			{ProductId: pB.ID, Quantity: decimal.NewFromInt(2)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(315)) {
		t.Fatalf("total = %s, want 315", order.TotalAmount)
	}
	if order.PaymentStatus != models.OrderPaymentStatusUnpaid {
		t.Fatalf("payment status = %s, want UNPAID", order.PaymentStatus)
	}

	if _, err := models.RecordPayment(ctx, &models.NewPayment{
		OrderId: order.ID,
		Amount:  decimal.NewFromInt(100),
		Method:  models.PaymentMethodCash,
	}, 1); err != nil {
		t.Fatalf("RecordPayment(100): %v", err)
	}

	reloaded, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if !reloaded.PaidAmount.Equal(decimal.NewFromInt(100)) ||
		!reloaded.BalanceDue.Equal(decimal.NewFromInt(215)) ||
		reloaded.PaymentStatus != models.OrderPaymentStatusPartial {
		t.Fatalf("after first payment: paid=%s balance=%s status=%s, want 100/215/PARTIAL",
			reloaded.PaidAmount, reloaded.BalanceDue, reloaded.PaymentStatus)
	}

	if _, err := models.RecordPayment(ctx, &models.NewPayment{
		OrderId: order.ID,
		Amount:  decimal.NewFromInt(215),
		Method:  models.PaymentMethodBankTransfer,
	}, 1); err != nil {
		t.Fatalf("RecordPayment(215): %v", err)
	}

	reloaded, err = models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if !reloaded.PaidAmount.Equal(decimal.NewFromInt(315)) ||
		!reloaded.BalanceDue.IsZero() ||
		reloaded.PaymentStatus != models.OrderPaymentStatusPaid {
		t.Fatalf("after second payment: paid=%s balance=%s status=%s, want 315/0/PAID",
			reloaded.PaidAmount, reloaded.BalanceDue, reloaded.PaymentStatus)
	}

	// ledger invariant
	if !reloaded.BalanceDue.Equal(reloaded.TotalAmount.Sub(reloaded.PaidAmount)) {
		t.Fatal("balance_due != total_amount - paid_amount")
	}
}

// Overpayment is recorded as-is: the balance goes negative and the order
// is PAID.
func TestOverpaymentAccepted(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	client := createTestClient(t, ctx, "Overpay Client")
	product := createTestProduct(t, ctx, "Item C", "IC-001", decimal.NewFromInt(100), decimal.NewFromInt(10))

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		ClientId: client.ID,
		Items:    []models.NewOrderItem{{ProductId: product.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := models.RecordPayment(ctx, &models.NewPayment{
		OrderId: order.ID,
		Amount:  decimal.NewFromInt(150),
		Method:  models.PaymentMethodCash,
	}, 1); err != nil {
		t.Fatalf("RecordPayment(150): %v", err)
	}

	reloaded, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if !reloaded.PaidAmount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("paid = %s, want 150", reloaded.PaidAmount)
	}
	if !reloaded.BalanceDue.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("balance = %s, want -50 (not clamped)", reloaded.BalanceDue)
	}
	if reloaded.PaymentStatus != models.OrderPaymentStatusPaid {
		t.Fatalf("payment status = %s, want PAID", reloaded.PaymentStatus)
	}
}

// Cancelling a payment recomputes the ledger; cancelling it again is
// rejected and changes nothing.
func TestCancelPaymentRecomputesAndIsTerminal(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	client := createTestClient(t, ctx, "Cancel Client")
	product := createTestProduct(t, ctx, "Item D", "ID-001", decimal.NewFromInt(50), decimal.NewFromInt(10))

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		ClientId: client.ID,
		Items:    []models.NewOrderItem{{ProductId: product.ID, Quantity: decimal.NewFromInt(2)}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	payment, err := models.RecordPayment(ctx, &models.NewPayment{
		OrderId: order.ID,
		Amount:  decimal.NewFromInt(60),
		Method:  models.PaymentMethodCard,
	}, 1)
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	if _, err := models.CancelPayment(ctx, payment.ID); err != nil {
		t.Fatalf("CancelPayment: %v", err)
	}
	reloaded, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if !reloaded.PaidAmount.IsZero() || reloaded.PaymentStatus != models.OrderPaymentStatusUnpaid {
		t.Fatalf("after cancel: paid=%s status=%s, want 0/UNPAID", reloaded.PaidAmount, reloaded.PaymentStatus)
	}

	_, err = models.CancelPayment(ctx, payment.ID)
	if !utils.IsInvalidStateError(err) {
		t.Fatalf("second CancelPayment error = %v, want InvalidStateError", err)
	}
	// ledger unchanged by the rejected cancel
	unchanged, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if !unchanged.PaidAmount.IsZero() || !unchanged.BalanceDue.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("ledger moved after rejected cancel: paid=%s balance=%s", unchanged.PaidAmount, unchanged.BalanceDue)
	}
}

// Payments against cancelled orders and non-positive amounts are rejected.
func TestRecordPaymentValidation(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	client := createTestClient(t, ctx, "Validation Client")
	product := createTestProduct(t, ctx, "Item E", "IE-001", decimal.NewFromInt(30), decimal.NewFromInt(10))

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		ClientId: client.ID,
		Items:    []models.NewOrderItem{{ProductId: product.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	_, err = models.RecordPayment(ctx, &models.NewPayment{
		OrderId: order.ID,
		Amount:  decimal.Zero,
		Method:  models.PaymentMethodCash,
	}, 1)
	if !utils.IsValidationError(err) {
		t.Fatalf("zero amount error = %v, want ValidationError", err)
	}

	_, err = models.RecordPayment(ctx, &models.NewPayment{
		OrderId: 999999,
		Amount:  decimal.NewFromInt(10),
		Method:  models.PaymentMethodCash,
	}, 1)
	if !utils.IsNotFoundError(err) {
		t.Fatalf("unknown order error = %v, want NotFoundError", err)
	}

	// binding tags reject an input missing required fields
	_, err = models.RecordPayment(ctx, &models.NewPayment{
		Amount: decimal.NewFromInt(10),
		Method: models.PaymentMethodCash,
	}, 1)
	if !utils.IsValidationError(err) {
		t.Fatalf("missing order id error = %v, want ValidationError", err)
	}

	if _, err := models.CancelOrder(ctx, order.ID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	_, err = models.RecordPayment(ctx, &models.NewPayment{
		OrderId: order.ID,
		Amount:  decimal.NewFromInt(10),
		Method:  models.PaymentMethodCash,
	}, 1)
	if !utils.IsInvalidStateError(err) {
		t.Fatalf("cancelled order error = %v, want InvalidStateError", err)
	}
}

// Bulk payment creation isolates failures per entry and reports structured
// reasons for the ones that failed.
func TestBulkCreatePaymentsIsolation(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	client := createTestClient(t, ctx, "Bulk Client")
	product := createTestProduct(t, ctx, "Item F", "IF-001", decimal.NewFromInt(40), decimal.NewFromInt(50))

	orderA, err := models.CreateOrder(ctx, &models.NewOrder{
		ClientId: client.ID,
		Items:    []models.NewOrderItem{{ProductId: product.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("CreateOrder(A): %v", err)
	}
	orderB, err := models.CreateOrder(ctx, &models.NewOrder{
		ClientId: client.ID,
		Items:    []models.NewOrderItem{{ProductId: product.ID, Quantity: decimal.NewFromInt(2)}},
	})
	if err != nil {
		t.Fatalf("CreateOrder(B): %v", err)
	}

	result, err := models.BulkCreatePayments(ctx, []models.NewPayment{
		{OrderId: orderA.ID, Amount: decimal.NewFromInt(40), Method: models.PaymentMethodCash},
		{OrderId: 999999, Amount: decimal.NewFromInt(10), Method: models.PaymentMethodCash},
		{OrderId: orderB.ID, Amount: decimal.NewFromInt(80), Method: models.PaymentMethodCash},
	}, 1)
	if err != nil {
		t.Fatalf("BulkCreatePayments: %v", err)
	}

	if result.SuccessCount != 2 || result.FailedCount != 1 {
		t.Fatalf("success=%d failed=%d, want 2/1", result.SuccessCount, result.FailedCount)
	}
	if !result.TotalAmount.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("total amount = %s, want 120", result.TotalAmount)
	}
	if len(result.Errors) != 1 || result.Errors[0].Index != 1 || result.Errors[0].OrderId != 999999 {
		t.Fatalf("unexpected error entries: %+v", result.Errors)
	}

	// both successful orders fully reconciled
	for _, id := range []int{orderA.ID, orderB.ID} {
		reloaded, err := models.GetOrder(ctx, id)
		if err != nil {
			t.Fatalf("GetOrder(%d): %v", id, err)
		}
		if reloaded.PaymentStatus != models.OrderPaymentStatusPaid {
			t.Fatalf("order %d payment status = %s, want PAID", id, reloaded.PaymentStatus)
		}
	}
}

// GetOrderPaymentSummary lists confirmed payments by default and includes
// cancelled ones only on request.
func TestGetOrderPaymentSummary(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	client := createTestClient(t, ctx, "Summary Client")
	product := createTestProduct(t, ctx, "Item G", "IG-001", decimal.NewFromInt(100), decimal.NewFromInt(10))

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		ClientId: client.ID,
		Items:    []models.NewOrderItem{{ProductId: product.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	kept, err := models.RecordPayment(ctx, &models.NewPayment{
		OrderId: order.ID, Amount: decimal.NewFromInt(30), Method: models.PaymentMethodCash,
	}, 1)
	if err != nil {
		t.Fatalf("RecordPayment(kept): %v", err)
	}
	cancelled, err := models.RecordPayment(ctx, &models.NewPayment{
		OrderId: order.ID, Amount: decimal.NewFromInt(20), Method: models.PaymentMethodCash,
	}, 1)
	if err != nil {
		t.Fatalf("RecordPayment(cancelled): %v", err)
	}
	if _, err := models.CancelPayment(ctx, cancelled.ID); err != nil {
		t.Fatalf("CancelPayment: %v", err)
	}

	summary, err := models.GetOrderPaymentSummary(ctx, order.ID, false)
	if err != nil {
		t.Fatalf("GetOrderPaymentSummary: %v", err)
	}
	if summary.PaymentCount != 1 || summary.Payments[0].ID != kept.ID {
		t.Fatalf("confirmed-only summary has %d payments, want just %d", summary.PaymentCount, kept.ID)
	}
	if !summary.PaidAmount.Equal(decimal.NewFromInt(30)) || !summary.BalanceDue.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("summary paid=%s balance=%s, want 30/70", summary.PaidAmount, summary.BalanceDue)
	}

	all, err := models.GetOrderPaymentSummary(ctx, order.ID, true)
	if err != nil {
		t.Fatalf("GetOrderPaymentSummary(all): %v", err)
	}
	if all.PaymentCount != 2 {
		t.Fatalf("full summary has %d payments, want 2", all.PaymentCount)
	}
}
