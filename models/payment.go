package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
	"github.com/CarlosEstrada30/smart-orders-api-sub000/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Payment struct {
	ID            int             `gorm:"primary_key" json:"id"`
	TenantId      string          `gorm:"index;not null;uniqueIndex:uk_payment_number" json:"tenant_id" binding:"required"`
	PaymentNumber string          `gorm:"size:20;not null;uniqueIndex:uk_payment_number" json:"payment_number"`
	OrderId       int             `gorm:"index;not null" json:"order_id" binding:"required"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount" binding:"required"`
	Method        PaymentMethod   `gorm:"type:enum('CASH','BANK_TRANSFER','CARD','CHECK','OTHER');not null" json:"method" binding:"required"`
	Status        PaymentStatus   `gorm:"type:enum('CONFIRMED','CANCELLED');not null;default:'CONFIRMED'" json:"status"`
	PaymentDate   time.Time       `gorm:"index;not null" json:"payment_date"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedBy     int             `gorm:"index" json:"created_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayment struct {
	OrderId     int             `json:"order_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Method      PaymentMethod   `json:"method" binding:"required"`
	PaymentDate *time.Time      `json:"payment_date"`
	Notes       string          `json:"notes"`
}

func generatePaymentNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PAY-" + strings.ToUpper(raw[:8])
}

// recomputeOrderPaymentState rederives paid_amount, balance_due, and
// payment_status from the confirmed payments of the order. It is idempotent
// and is the only code path allowed to write these three fields.
//
// balance_due is not clamped; overpayment leaves it negative.
func recomputeOrderPaymentState(tx *gorm.DB, order *Order) error {
	var paid decimal.NullDecimal
	err := tx.Model(&Payment{}).
		Where("order_id = ? AND status = ?", order.ID, PaymentStatusConfirmed).
		Select("SUM(amount)").
		Scan(&paid).Error
	if err != nil {
		return err
	}

	paidAmount := decimal.Zero
	if paid.Valid {
		paidAmount = paid.Decimal
	}
	balanceDue := order.TotalAmount.Sub(paidAmount)

	paymentStatus := OrderPaymentStatusUnpaid
	if balanceDue.LessThanOrEqual(decimal.Zero) {
		paymentStatus = OrderPaymentStatusPaid
	} else if paidAmount.IsPositive() {
		paymentStatus = OrderPaymentStatusPartial
	}

	err = tx.Model(order).Updates(map[string]interface{}{
		"PaidAmount":    paidAmount,
		"BalanceDue":    balanceDue,
		"PaymentStatus": paymentStatus,
	}).Error
	if err != nil {
		return err
	}

	order.PaidAmount = paidAmount
	order.BalanceDue = balanceDue
	order.PaymentStatus = paymentStatus
	return nil
}

// RecordPayment creates a CONFIRMED payment against an order and recomputes
// the order's ledger fields in the same transaction.
func RecordPayment(ctx context.Context, input *NewPayment, createdByUserId int) (*Payment, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	order, err := utils.FetchModel[Order](ctx, tenantId, input.OrderId)
	if err != nil {
		return nil, utils.NewNotFoundError("order", input.OrderId)
	}
	if order.Status == OrderStatusCancelled {
		return nil, utils.NewInvalidStateError("cannot record a payment against cancelled order %s", order.OrderNumber)
	}
	if !input.Amount.IsPositive() {
		return nil, utils.NewValidationError("payment amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, utils.NewValidationError("unknown payment method %q", input.Method)
	}
	if config.RejectOverpayment() && input.Amount.GreaterThan(order.BalanceDue) {
		return nil, utils.NewValidationError("payment amount %s exceeds balance due %s", input.Amount, order.BalanceDue)
	}

	paymentDate := time.Now()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	createdBy := createdByUserId
	if createdBy == 0 {
		if userId, ok := utils.GetUserIdFromContext(ctx); ok {
			createdBy = userId
		}
	}

	payment := Payment{
		TenantId:    tenantId,
		OrderId:     order.ID,
		Amount:      input.Amount,
		Method:      input.Method,
		Status:      PaymentStatusConfirmed,
		PaymentDate: paymentDate,
		Notes:       input.Notes,
		CreatedBy:   createdBy,
	}

	tx := db.Begin()

	payment.PaymentNumber = generatePaymentNumber()
	err = tx.WithContext(ctx).Create(&payment).Error
	if utils.IsDuplicateEntry(err) {
		payment.PaymentNumber = generatePaymentNumber()
		err = tx.WithContext(ctx).Create(&payment).Error
	}
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := recomputeOrderPaymentState(tx.WithContext(ctx), order); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := PublishOrderEvent(ctx, tx.WithContext(ctx), tenantId, payment.PaymentDate, payment.ID, OrderReferenceTypePayment, payment, nil, PubSubMessageActionCreate); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &payment, nil
}

// CancelPayment marks a payment CANCELLED and recomputes the owning order's
// ledger. Cancellation is terminal.
func CancelPayment(ctx context.Context, paymentId int) (*Payment, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	payment, err := utils.FetchModel[Payment](ctx, tenantId, paymentId)
	if err != nil {
		return nil, utils.NewNotFoundError("payment", paymentId)
	}
	if payment.Status == PaymentStatusCancelled {
		return nil, utils.NewInvalidStateError("payment %s is already cancelled", payment.PaymentNumber)
	}

	order, err := utils.FetchModel[Order](ctx, tenantId, payment.OrderId)
	if err != nil {
		return nil, utils.NewNotFoundError("order", payment.OrderId)
	}

	oldPayment := *payment

	tx := db.Begin()

	err = tx.WithContext(ctx).Model(payment).Updates(map[string]interface{}{
		"Status": PaymentStatusCancelled,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	payment.Status = PaymentStatusCancelled

	if err := recomputeOrderPaymentState(tx.WithContext(ctx), order); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := PublishOrderEvent(ctx, tx.WithContext(ctx), tenantId, time.Now(), payment.ID, OrderReferenceTypePayment, payment, oldPayment, PubSubMessageActionUpdate); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return payment, nil
}

type BulkPaymentError struct {
	Index       int    `json:"index"`
	OrderId     int    `json:"order_id"`
	OrderNumber string `json:"order_number,omitempty"`
	ClientName  string `json:"client_name,omitempty"`
	Reason      string `json:"reason"`
}

type BulkPaymentResult struct {
	Created      []*Payment         `json:"created"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	Errors       []BulkPaymentError `json:"errors"`
}

// BulkCreatePayments applies each entry independently through RecordPayment,
// each in its own transaction. One entry's failure is captured as a
// structured error and never aborts the rest.
func BulkCreatePayments(ctx context.Context, inputs []NewPayment, createdByUserId int) (*BulkPaymentResult, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	result := BulkPaymentResult{TotalAmount: decimal.Zero}

	for i := range inputs {
		input := inputs[i]
		payment, err := RecordPayment(ctx, &input, createdByUserId)
		if err != nil {
			bulkErr := BulkPaymentError{
				Index:   i,
				OrderId: input.OrderId,
				Reason:  err.Error(),
			}
			// enrich with order number and client name when resolvable
			var order Order
			if dbErr := db.WithContext(ctx).
				Where("tenant_id = ?", tenantId).
				First(&order, input.OrderId).Error; dbErr == nil {
				bulkErr.OrderNumber = order.OrderNumber
				var client Client
				if dbErr := db.WithContext(ctx).First(&client, order.ClientId).Error; dbErr == nil {
					bulkErr.ClientName = client.Name
				}
			}
			result.Errors = append(result.Errors, bulkErr)
			result.FailedCount++
			continue
		}
		result.Created = append(result.Created, payment)
		result.TotalAmount = result.TotalAmount.Add(payment.Amount)
		result.SuccessCount++
	}

	return &result, nil
}

type OrderPaymentSummary struct {
	OrderId       int                `json:"order_id"`
	OrderNumber   string             `json:"order_number"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	PaidAmount    decimal.Decimal    `json:"paid_amount"`
	BalanceDue    decimal.Decimal    `json:"balance_due"`
	PaymentStatus OrderPaymentStatus `json:"payment_status"`
	PaymentCount  int                `json:"payment_count"`
	Payments      []*Payment         `json:"payments"`
}

// GetOrderPaymentSummary projects the order's ledger with its payments.
// Only confirmed payments are listed unless includeCancelled is set.
func GetOrderPaymentSummary(ctx context.Context, orderId int, includeCancelled bool) (*OrderPaymentSummary, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	order, err := utils.FetchModel[Order](ctx, tenantId, orderId)
	if err != nil {
		return nil, utils.NewNotFoundError("order", orderId)
	}

	dbCtx := db.WithContext(ctx).Where("tenant_id = ? AND order_id = ?", tenantId, orderId)
	if !includeCancelled {
		dbCtx = dbCtx.Where("status = ?", PaymentStatusConfirmed)
	}

	var payments []*Payment
	if err := dbCtx.Order("payment_date ASC").Find(&payments).Error; err != nil {
		return nil, err
	}

	return &OrderPaymentSummary{
		OrderId:       order.ID,
		OrderNumber:   order.OrderNumber,
		TotalAmount:   order.TotalAmount,
		PaidAmount:    order.PaidAmount,
		BalanceDue:    order.BalanceDue,
		PaymentStatus: order.PaymentStatus,
		PaymentCount:  len(payments),
		Payments:      payments,
	}, nil
}

func GetPayment(ctx context.Context, id int) (*Payment, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	payment, err := utils.FetchModel[Payment](ctx, tenantId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("payment", id)
	}
	return payment, nil
}

func GetPaymentByNumber(ctx context.Context, paymentNumber string) (*Payment, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	var payment Payment
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND payment_number = ?", tenantId, paymentNumber).
		First(&payment).Error
	if err != nil {
		return nil, utils.NewNotFoundError("payment", paymentNumber)
	}
	return &payment, nil
}

type PaymentFilter struct {
	OrderId   *int
	Method    *PaymentMethod
	Status    *PaymentStatus
	StartDate *time.Time
	EndDate   *time.Time
}

func GetPayments(ctx context.Context, filter *PaymentFilter) ([]*Payment, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	dbCtx := db.WithContext(ctx).Where("tenant_id = ?", tenantId)

	if filter != nil {
		if filter.OrderId != nil && *filter.OrderId > 0 {
			dbCtx = dbCtx.Where("order_id = ?", *filter.OrderId)
		}
		if filter.Method != nil {
			dbCtx = dbCtx.Where("method = ?", *filter.Method)
		}
		if filter.Status != nil {
			dbCtx = dbCtx.Where("status = ?", *filter.Status)
		}
		if filter.StartDate != nil {
			dbCtx = dbCtx.Where("payment_date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			dbCtx = dbCtx.Where("payment_date <= ?", *filter.EndDate)
		}
	}

	var results []*Payment
	err := dbCtx.Order("payment_date DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
