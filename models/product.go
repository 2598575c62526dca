package models

import (
	"context"
	"errors"
	"time"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
	"github.com/CarlosEstrada30/smart-orders-api-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          int             `gorm:"primary_key" json:"id"`
	TenantId    string          `gorm:"index;not null;uniqueIndex:uk_product_sku" json:"tenant_id" binding:"required"`
	Name        string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Sku         string          `gorm:"size:50;not null;uniqueIndex:uk_product_sku" json:"sku" binding:"required"`
	Description string          `gorm:"size:255" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	Stock       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock"`
	Status      ActiveStatus    `gorm:"type:enum('Active','Inactive');not null;default:'Active'" json:"status"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name        string          `json:"name" binding:"required"`
	Sku         string          `json:"sku" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       decimal.Decimal `json:"stock"`
}

func (input *NewProduct) validate(ctx context.Context, tenantId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Product](ctx, tenantId, id); err != nil {
			return utils.NewNotFoundError("product", id)
		}
	}
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Price.IsNegative() {
		return utils.NewValidationError("product price must not be negative")
	}
	if input.Stock.IsNegative() {
		return utils.NewValidationError("product stock must not be negative")
	}
	// validate unique sku
	if err := utils.ValidateUnique[Product](ctx, tenantId, "sku", input.Sku, id); err != nil {
		return err
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if err := input.validate(ctx, tenantId, 0); err != nil {
		return nil, err
	}

	product := Product{
		TenantId:    tenantId,
		Name:        input.Name,
		Sku:         input.Sku,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Status:      ActiveStatusActive,
	}

	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		if utils.IsDuplicateEntry(err) {
			return nil, utils.NewValidationError("duplicate sku")
		}
		return nil, err
	}

	_ = utils.RemoveRedisList[Product](tenantId)

	return &product, nil
}

// UpdateProduct updates catalog fields. Stock is deliberately excluded; it
// changes only through reservations, releases, and AdjustProductStock.
func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if err := input.validate(ctx, tenantId, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, tenantId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("product", id)
	}

	product.Name = input.Name
	product.Sku = input.Sku
	product.Description = input.Description
	product.Price = input.Price

	if err := db.WithContext(ctx).Omit("Stock").Save(product).Error; err != nil {
		return nil, err
	}

	_ = utils.RemoveRedisList[Product](tenantId)

	return product, nil
}

// AdjustProductStock applies a signed delta (restock or manual correction)
// atomically. Negative adjustments are guarded so stock never goes below zero.
func AdjustProductStock(ctx context.Context, id int, delta decimal.Decimal) (*Product, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	dbCtx := db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND tenant_id = ?", id, tenantId)
	if delta.IsNegative() {
		dbCtx = dbCtx.Where("stock >= ?", delta.Neg())
	}
	result := dbCtx.Update("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if err := utils.ValidateResourceId[Product](ctx, tenantId, id); err != nil {
			return nil, utils.NewNotFoundError("product", id)
		}
		return nil, utils.NewValidationError("stock adjustment would make stock negative")
	}

	return utils.FetchModel[Product](ctx, tenantId, id)
}

func ToggleActiveProduct(ctx context.Context, id int, active bool) (*Product, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	product, err := utils.FetchModel[Product](ctx, tenantId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("product", id)
	}

	status := ActiveStatusInactive
	if active {
		status = ActiveStatusActive
	}
	if err := db.WithContext(ctx).Model(product).Update("Status", status).Error; err != nil {
		return nil, err
	}
	product.Status = status

	_ = utils.RemoveRedisList[Product](tenantId)

	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	product, err := utils.FetchModel[Product](ctx, tenantId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("product", id)
	}
	return product, nil
}

func GetProducts(ctx context.Context, name *string, sku *string, status *ActiveStatus) ([]*Product, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if name == nil && sku == nil && status == nil {
		cached, err := utils.RetrieveRedisList[Product](tenantId)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	dbCtx := db.WithContext(ctx).Where("tenant_id = ?", tenantId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if sku != nil && len(*sku) > 0 {
		dbCtx = dbCtx.Where("sku = ?", *sku)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}

	var results []*Product
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}

	if name == nil && sku == nil && status == nil {
		_ = utils.StoreRedisList[Product](results, tenantId)
	}

	return results, nil
}

// productsById fetches a batch of products in one query, keyed by id.
// Missing ids are simply absent from the map.
func productsById(ctx context.Context, tenantId string, ids []int) (map[int]Product, error) {
	byId := make(map[int]Product, len(ids))
	if len(ids) == 0 {
		return byId, nil
	}

	db := config.GetDB()
	var products []Product
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantId, utils.UniqueSlice(ids)).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		byId[product.ID] = product
	}
	return byId, nil
}

// GetLowStockProducts lists active products at or below the given threshold.
func GetLowStockProducts(ctx context.Context, threshold decimal.Decimal) ([]*Product, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	var results []*Product
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND stock <= ?", tenantId, ActiveStatusActive, threshold).
		Order("stock ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CheckStockAvailability reports whether the product is Active with at
// least qty in stock. Read-only; reservations go through ReserveOrderStock.
func CheckStockAvailability(ctx context.Context, productId int, qty decimal.Decimal) (bool, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return false, errors.New("tenant id is required")
	}

	count, err := utils.ResourceCountWhere[Product](ctx, tenantId,
		"id = ? AND status = ? AND stock >= ?", productId, ActiveStatusActive, qty)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
