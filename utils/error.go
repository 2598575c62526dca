package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError covers malformed input and references to nonexistent or
// inactive clients, routes, and products.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError marks an unknown order or payment id. It unwraps to
// ErrorRecordNotFound so existing sentinel checks keep working.
type NotFoundError struct {
	Resource string
	Id       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.Id)
}

func (e *NotFoundError) Unwrap() error { return ErrorRecordNotFound }

func NewNotFoundError(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, Id: id}
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrorRecordNotFound)
}

// InvalidStateError marks an operation that is not permitted given the
// current status of the order or payment.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return e.Message }

func NewInvalidStateError(format string, args ...any) *InvalidStateError {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}

func IsInvalidStateError(err error) bool {
	var se *InvalidStateError
	return errors.As(err, &se)
}

// StockShortfall describes one product that could not cover a reservation.
type StockShortfall struct {
	ProductId int             `json:"product_id"`
	Name      string          `json:"name"`
	Sku       string          `json:"sku"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
}

// InsufficientStockError carries the complete shortfall list for a failed
// reservation. Raised only at transition time, never at order creation.
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (sku=%s): required %s, available %s", s.Name, s.Sku, s.Required, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func AsInsufficientStockError(err error) (*InsufficientStockError, bool) {
	var ie *InsufficientStockError
	ok := errors.As(err, &ie)
	return ie, ok
}

// IsDuplicateEntry reports whether err is a MySQL duplicate-key violation
// (error 1062), e.g. an order/payment number collision.
func IsDuplicateEntry(err error) bool {
	var my *mysql.MySQLError
	return errors.As(err, &my) && my.Number == 1062
}
