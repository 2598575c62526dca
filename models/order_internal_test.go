package models

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeOrderTotal(t *testing.T) {
	cases := []struct {
		name     string
		subtotal string
		discount string
		want     string
	}{
		{"no discount", "315", "0", "315"},
		{"flat discount", "315", "15", "300"},
		{"discount equals subtotal", "100", "100", "0"},
		{"discount exceeds subtotal is ignored", "100", "150", "100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			subtotal, _ := decimal.NewFromString(tc.subtotal)
			discount, _ := decimal.NewFromString(tc.discount)
			want, _ := decimal.NewFromString(tc.want)
			got := computeOrderTotal(subtotal, discount)
			if !got.Equal(want) {
				t.Fatalf("computeOrderTotal(%s, %s) = %s, want %s", subtotal, discount, got, want)
			}
		})
	}
}

func TestGeneratedNumberFormats(t *testing.T) {
	orderRe := regexp.MustCompile(`^ORD-[0-9A-F]{8}$`)
	paymentRe := regexp.MustCompile(`^PAY-[0-9A-F]{8}$`)

	for i := 0; i < 100; i++ {
		if n := generateOrderNumber(); !orderRe.MatchString(n) {
			t.Fatalf("order number %q does not match %s", n, orderRe)
		}
		if n := generatePaymentNumber(); !paymentRe.MatchString(n) {
			t.Fatalf("payment number %q does not match %s", n, paymentRe)
		}
	}
}

func TestOrderStatusTransitionTable(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed:  {OrderStatusInProgress, OrderStatusCancelled},
		OrderStatusInProgress: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:    {OrderStatusDelivered},
		OrderStatusDelivered:  {},
		OrderStatusCancelled:  {},
	}
	all := []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusInProgress,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
	}

	for from, targets := range allowed {
		allowedSet := make(map[OrderStatus]bool)
		for _, to := range targets {
			allowedSet[to] = true
		}
		for _, to := range all {
			if got := from.CanTransitionTo(to); got != allowedSet[to] {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, allowedSet[to])
			}
		}
	}

	for _, s := range all {
		wantTerminal := s == OrderStatusDelivered || s == OrderStatusCancelled
		if s.IsTerminal() != wantTerminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, s.IsTerminal(), wantTerminal)
		}
	}

	if OrderStatus("BOGUS").IsValid() {
		t.Error("IsValid should reject unknown statuses")
	}
}

func TestStockRequiredSet(t *testing.T) {
	required := []OrderStatus{OrderStatusConfirmed, OrderStatusInProgress, OrderStatusShipped, OrderStatusDelivered}
	free := []OrderStatus{OrderStatusPending, OrderStatusCancelled}

	for _, s := range required {
		if !s.RequiresStock() {
			t.Errorf("RequiresStock(%s) = false, want true", s)
		}
	}
	for _, s := range free {
		if s.RequiresStock() {
			t.Errorf("RequiresStock(%s) = true, want false", s)
		}
	}
}
