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
)

type Order struct {
	ID             int                `gorm:"primary_key" json:"id"`
	TenantId       string             `gorm:"index;not null;uniqueIndex:uk_order_number" json:"tenant_id" binding:"required"`
	OrderNumber    string             `gorm:"size:20;not null;uniqueIndex:uk_order_number" json:"order_number"`
	ClientId       int                `gorm:"index;not null" json:"client_id" binding:"required"`
	RouteId        *int               `gorm:"index" json:"route_id"`
	Status         OrderStatus        `gorm:"type:enum('PENDING','CONFIRMED','IN_PROGRESS','SHIPPED','DELIVERED','CANCELLED');not null;default:'PENDING'" json:"status"`
	DiscountAmount decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PaidAmount     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	BalanceDue     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"balance_due"`
	PaymentStatus  OrderPaymentStatus `gorm:"type:enum('UNPAID','PARTIAL','PAID');not null;default:'UNPAID'" json:"payment_status"`
	Notes          string             `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	Items          []OrderItem        `gorm:"foreignKey:OrderId" json:"items"`
}

type OrderItem struct {
	ID         int             `gorm:"primary_key" json:"id"`
	OrderId    int             `gorm:"index;not null" json:"order_id"`
	ProductId  int             `gorm:"index;not null" json:"product_id" binding:"required"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity" binding:"required"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_price"`
}

type NewOrder struct {
	ClientId       int             `json:"client_id" binding:"required"`
	RouteId        *int            `json:"route_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Notes          string          `json:"notes"`
	Items          []NewOrderItem  `json:"items" binding:"required"`
}

type NewOrderItem struct {
	ProductId int             `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// OrderPatch is the full-replacement edit applied while an order is PENDING.
// Nil fields keep their current value; a non-nil Items slice replaces the
// whole item list (delete-and-recreate). A non-nil RouteId of 0 detaches the
// order from its route.
type OrderPatch struct {
	ClientId       *int             `json:"client_id"`
	RouteId        *int             `json:"route_id"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	Notes          *string          `json:"notes"`
	Items          []NewOrderItem   `json:"items"`
}

func generateOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(raw[:8])
}

func validateOrderRefs(ctx context.Context, tenantId string, clientId int, routeId *int, items []NewOrderItem, discountAmount decimal.Decimal) error {

	active, err := IsClientActive(ctx, tenantId, clientId)
	if err != nil {
		return err
	}
	if !active {
		return utils.NewValidationError("client %d not found or inactive", clientId)
	}

	if routeId != nil && *routeId > 0 {
		active, err := IsRouteActive(ctx, tenantId, *routeId)
		if err != nil {
			return err
		}
		if !active {
			return utils.NewValidationError("route %d not found or inactive", *routeId)
		}
	}

	if len(items) == 0 {
		return utils.NewValidationError("order must have at least one item")
	}
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			return utils.NewValidationError("quantity for product %d must be positive", item.ProductId)
		}
		if err := utils.ValidateActiveResourceId[Product](ctx, tenantId, item.ProductId); err != nil {
			return utils.NewValidationError("product %d not found or inactive", item.ProductId)
		}
	}

	if discountAmount.IsNegative() {
		return utils.NewValidationError("discount amount must not be negative")
	}

	return nil
}

// buildOrderItems snapshots unit prices (route override else catalog price)
// and returns the items with the pre-discount subtotal.
func buildOrderItems(ctx context.Context, tenantId string, routeId *int, items []NewOrderItem) ([]OrderItem, decimal.Decimal, error) {
	var orderItems []OrderItem
	var subtotal decimal.Decimal

	for _, item := range items {
		unitPrice, err := ResolveUnitPrice(ctx, tenantId, item.ProductId, routeId)
		if err != nil {
			return nil, decimal.Zero, err
		}
		orderItem := OrderItem{
			ProductId:  item.ProductId,
			Quantity:   item.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: item.Quantity.Mul(unitPrice),
		}
		subtotal = subtotal.Add(orderItem.TotalPrice)
		orderItems = append(orderItems, orderItem)
	}

	return orderItems, subtotal, nil
}

// computeOrderTotal applies the flat discount. A discount larger than the
// subtotal is ignored rather than producing a negative total.
func computeOrderTotal(subtotal decimal.Decimal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return subtotal
	}
	return total
}

// CreateOrder creates a PENDING order. Stock is not checked or reserved at
// creation time; that happens on the transition into a stock-required status.
func CreateOrder(ctx context.Context, input *NewOrder) (*Order, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := validateOrderRefs(ctx, tenantId, input.ClientId, input.RouteId, input.Items, input.DiscountAmount); err != nil {
		return nil, err
	}

	orderItems, subtotal, err := buildOrderItems(ctx, tenantId, input.RouteId, input.Items)
	if err != nil {
		return nil, err
	}
	totalAmount := computeOrderTotal(subtotal, input.DiscountAmount)

	order := Order{
		TenantId:       tenantId,
		ClientId:       input.ClientId,
		RouteId:        input.RouteId,
		Status:         OrderStatusPending,
		DiscountAmount: input.DiscountAmount,
		TotalAmount:    totalAmount,
		PaidAmount:     decimal.Zero,
		BalanceDue:     totalAmount,
		PaymentStatus:  OrderPaymentStatusUnpaid,
		Notes:          input.Notes,
		Items:          orderItems,
	}

	tx := db.Begin()

	order.OrderNumber = generateOrderNumber()
	err = tx.WithContext(ctx).Create(&order).Error
	if utils.IsDuplicateEntry(err) {
		// number collision, one retry with a fresh number
		order.OrderNumber = generateOrderNumber()
		err = tx.WithContext(ctx).Create(&order).Error
	}
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := PublishOrderEvent(ctx, tx.WithContext(ctx), tenantId, order.CreatedAt, order.ID, OrderReferenceTypeOrder, order, nil, PubSubMessageActionCreate); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &order, nil
}

// UpdatePendingOrder fully replaces the editable fields of a PENDING order.
// When the item list is replaced without an explicit discount in the same
// patch the discount resets to zero. Stock is never checked here.
func UpdatePendingOrder(ctx context.Context, id int, patch *OrderPatch) (*Order, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	existingOrder, err := utils.FetchModel[Order](ctx, tenantId, id, "Items")
	if err != nil {
		return nil, utils.NewNotFoundError("order", id)
	}
	if existingOrder.Status != OrderStatusPending {
		return nil, utils.NewInvalidStateError("order %s is %s; only PENDING orders can be edited", existingOrder.OrderNumber, existingOrder.Status)
	}

	oldOrder := *existingOrder

	clientId := existingOrder.ClientId
	if patch.ClientId != nil {
		clientId = *patch.ClientId
	}
	routeId := existingOrder.RouteId
	if patch.RouteId != nil {
		if *patch.RouteId > 0 {
			routeId = patch.RouteId
		} else {
			routeId = nil
		}
	}
	discount := existingOrder.DiscountAmount
	if patch.DiscountAmount != nil {
		discount = *patch.DiscountAmount
	} else if patch.Items != nil {
		// replacing items resets the discount unless one is supplied
		discount = decimal.Zero
	}

	newItems := patch.Items
	if newItems == nil {
		for _, item := range existingOrder.Items {
			newItems = append(newItems, NewOrderItem{ProductId: item.ProductId, Quantity: item.Quantity})
		}
	}

	if err := validateOrderRefs(ctx, tenantId, clientId, routeId, newItems, discount); err != nil {
		return nil, err
	}

	orderItems, subtotal, err := buildOrderItems(ctx, tenantId, routeId, newItems)
	if err != nil {
		return nil, err
	}

	existingOrder.ClientId = clientId
	existingOrder.RouteId = routeId
	existingOrder.DiscountAmount = discount
	if patch.Notes != nil {
		existingOrder.Notes = *patch.Notes
	}
	existingOrder.TotalAmount = computeOrderTotal(subtotal, discount)

	tx := db.Begin()

	// delete-and-recreate the item list
	if err := tx.WithContext(ctx).Where("order_id = ?", id).Delete(&OrderItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range orderItems {
		orderItems[i].OrderId = id
	}
	if err := tx.WithContext(ctx).Create(&orderItems).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	existingOrder.Items = orderItems

	// the total changed, so paid/balance/payment status must be rederived
	if err := recomputeOrderPaymentState(tx.WithContext(ctx), existingOrder); err != nil {
		tx.Rollback()
		return nil, err
	}

	err = tx.WithContext(ctx).Omit("Items").Save(existingOrder).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := PublishOrderEvent(ctx, tx.WithContext(ctx), tenantId, time.Now(), existingOrder.ID, OrderReferenceTypeOrder, existingOrder, oldOrder, PubSubMessageActionUpdate); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return existingOrder, nil
}

// UpdateOrderStatus moves an order along its lifecycle. The status write and
// any stock reservation/release commit in one transaction, so a crash never
// leaves stock decremented without the matching status change.
func UpdateOrderStatus(ctx context.Context, id int, newStatus OrderStatus) (*Order, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if !newStatus.IsValid() {
		return nil, utils.NewValidationError("unknown order status %q", newStatus)
	}

	order, err := utils.FetchModel[Order](ctx, tenantId, id, "Items")
	if err != nil {
		return nil, utils.NewNotFoundError("order", id)
	}

	oldStatus := order.Status
	if oldStatus == newStatus {
		return order, nil
	}
	if !config.PermissiveStatusTransitions() && !oldStatus.CanTransitionTo(newStatus) {
		return nil, utils.NewInvalidStateError("cannot transition order %s from %s to %s", order.OrderNumber, oldStatus, newStatus)
	}
	oldOrder := *order

	tx := db.Begin()

	err = tx.WithContext(ctx).Model(order).Updates(map[string]interface{}{
		"Status": newStatus,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	order.Status = newStatus

	if err := ApplyOrderStockForStatusTransition(tx.WithContext(ctx), order, oldStatus); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := PublishOrderEvent(ctx, tx.WithContext(ctx), tenantId, time.Now(), order.ID, OrderReferenceTypeOrder, order, &oldOrder, PubSubMessageActionUpdate); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return order, nil
}

// CancelOrder is narrower than a generic transition to CANCELLED: it is
// permitted only from PENDING or CONFIRMED. A CONFIRMED order releases its
// stock in the same transaction as the status write.
func CancelOrder(ctx context.Context, id int) (*Order, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	order, err := utils.FetchModel[Order](ctx, tenantId, id, "Items")
	if err != nil {
		return nil, utils.NewNotFoundError("order", id)
	}

	oldStatus := order.Status
	if oldStatus != OrderStatusPending && oldStatus != OrderStatusConfirmed {
		return nil, utils.NewInvalidStateError("cannot cancel order %s in status %s", order.OrderNumber, oldStatus)
	}
	oldOrder := *order

	tx := db.Begin()

	err = tx.WithContext(ctx).Model(order).Updates(map[string]interface{}{
		"Status": OrderStatusCancelled,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	order.Status = OrderStatusCancelled

	if err := ApplyOrderStockForStatusTransition(tx.WithContext(ctx), order, oldStatus); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := PublishOrderEvent(ctx, tx.WithContext(ctx), tenantId, time.Now(), order.ID, OrderReferenceTypeOrder, order, &oldOrder, PubSubMessageActionUpdate); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	order, err := utils.FetchModel[Order](ctx, tenantId, id, "Items")
	if err != nil {
		return nil, utils.NewNotFoundError("order", id)
	}
	return order, nil
}

func GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	var order Order
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND order_number = ?", tenantId, orderNumber).
		Preload("Items").
		First(&order).Error
	if err != nil {
		return nil, utils.NewNotFoundError("order", orderNumber)
	}
	return &order, nil
}

type OrderFilter struct {
	Status    *OrderStatus
	ClientId  *int
	RouteId   *int
	StartDate *time.Time
	EndDate   *time.Time
	Notes     *string
	Limit     *int
	Offset    *int
}

func GetOrders(ctx context.Context, filter *OrderFilter) ([]*Order, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	dbCtx := db.WithContext(ctx).Where("tenant_id = ?", tenantId)

	if filter != nil {
		if filter.Status != nil {
			dbCtx = dbCtx.Where("status = ?", *filter.Status)
		}
		if filter.ClientId != nil && *filter.ClientId > 0 {
			dbCtx = dbCtx.Where("client_id = ?", *filter.ClientId)
		}
		if filter.RouteId != nil && *filter.RouteId > 0 {
			dbCtx = dbCtx.Where("route_id = ?", *filter.RouteId)
		}
		if filter.StartDate != nil {
			dbCtx = dbCtx.Where("created_at >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			dbCtx = dbCtx.Where("created_at <= ?", *filter.EndDate)
		}
		if filter.Notes != nil && len(*filter.Notes) > 0 {
			dbCtx = dbCtx.Where("notes LIKE ?", "%"+*filter.Notes+"%")
		}
		if filter.Limit != nil && *filter.Limit > 0 {
			dbCtx = dbCtx.Limit(*filter.Limit)
		}
		if filter.Offset != nil && *filter.Offset > 0 {
			dbCtx = dbCtx.Offset(*filter.Offset)
		}
	}

	var results []*Order
	err := dbCtx.Preload("Items").Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

type OrderItemSummary struct {
	ProductId   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Sku         string          `json:"sku"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type OrderSummary struct {
	OrderId       int                `json:"order_id"`
	OrderNumber   string             `json:"order_number"`
	ClientId      int                `json:"client_id"`
	ClientName    string             `json:"client_name"`
	Status        OrderStatus        `json:"status"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	PaidAmount    decimal.Decimal    `json:"paid_amount"`
	BalanceDue    decimal.Decimal    `json:"balance_due"`
	PaymentStatus OrderPaymentStatus `json:"payment_status"`
	Items         []OrderItemSummary `json:"items"`
}

// GetOrderSummary is a read-only projection joining the client and the
// per-item product snapshot.
func GetOrderSummary(ctx context.Context, id int) (*OrderSummary, error) {
	db := config.GetDB()

	order, err := GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	var client Client
	if err := db.WithContext(ctx).Where("tenant_id = ?", order.TenantId).First(&client, order.ClientId).Error; err != nil {
		return nil, err
	}

	summary := OrderSummary{
		OrderId:       order.ID,
		OrderNumber:   order.OrderNumber,
		ClientId:      order.ClientId,
		ClientName:    client.Name,
		Status:        order.Status,
		TotalAmount:   order.TotalAmount,
		PaidAmount:    order.PaidAmount,
		BalanceDue:    order.BalanceDue,
		PaymentStatus: order.PaymentStatus,
	}

	productIds := make([]int, 0, len(order.Items))
	for _, item := range order.Items {
		productIds = append(productIds, item.ProductId)
	}
	products, err := productsById(ctx, order.TenantId, productIds)
	if err != nil {
		return nil, err
	}
	for _, item := range order.Items {
		product, ok := products[item.ProductId]
		if !ok {
			return nil, utils.NewNotFoundError("product", item.ProductId)
		}
		summary.Items = append(summary.Items, OrderItemSummary{
			ProductId:   item.ProductId,
			ProductName: product.Name,
			Sku:         product.Sku,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}

	return &summary, nil
}
