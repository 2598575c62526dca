package models

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// orderStatusTransitions is the full lifecycle table. DELIVERED and
// CANCELLED are terminal.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusTransitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range orderStatusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// RequiresStock reports whether an order in this status holds a stock
// reservation for its items.
func (s OrderStatus) RequiresStock() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusInProgress, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type OrderPaymentStatus string

const (
	OrderPaymentStatusUnpaid  OrderPaymentStatus = "UNPAID"
	OrderPaymentStatusPartial OrderPaymentStatus = "PARTIAL"
	OrderPaymentStatusPaid    OrderPaymentStatus = "PAID"
)

type PaymentStatus string

const (
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}

// ActiveStatus gates whether a client, route, or product may be referenced
// by new orders.
type ActiveStatus string

const (
	ActiveStatusActive   ActiveStatus = "Active"
	ActiveStatusInactive ActiveStatus = "Inactive"
)

type OrderReferenceType string

const (
	OrderReferenceTypeOrder   OrderReferenceType = "ORD"
	OrderReferenceTypePayment OrderReferenceType = "PAY"
)

type PubSubMessageAction string

const (
	PubSubMessageActionCreate PubSubMessageAction = "C"
	PubSubMessageActionUpdate PubSubMessageAction = "U"
	PubSubMessageActionDelete PubSubMessageAction = "D"
)
