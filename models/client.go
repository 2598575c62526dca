package models

import (
	"context"
	"errors"
	"time"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
	"github.com/CarlosEstrada30/smart-orders-api-sub000/utils"
)

type Client struct {
	ID        int          `gorm:"primary_key" json:"id"`
	TenantId  string       `gorm:"index;not null" json:"tenant_id" binding:"required"`
	Name      string       `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     string       `gorm:"size:100" json:"email"`
	Phone     string       `gorm:"size:20" json:"phone"`
	Nit       string       `gorm:"size:20" json:"nit"`
	Address   string       `gorm:"size:255" json:"address"`
	Status    ActiveStatus `gorm:"type:enum('Active','Inactive');not null;default:'Active'" json:"status"`
	Notes     string       `gorm:"type:text" json:"notes"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewClient struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Nit     string `json:"nit"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (input *NewClient) validate(ctx context.Context, tenantId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Client](ctx, tenantId, id); err != nil {
			return utils.NewNotFoundError("client", id)
		}
	}
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	// validate unique name
	if err := utils.ValidateUnique[Client](ctx, tenantId, "name", input.Name, id); err != nil {
		return err
	}
	// validate phone
	if input.Phone != "" && len(input.Phone) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("invalid phone number: %s", input.Phone)
		}
	}
	return nil
}

func CreateClient(ctx context.Context, input *NewClient) (*Client, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if err := input.validate(ctx, tenantId, 0); err != nil {
		return nil, err
	}

	client := Client{
		TenantId: tenantId,
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Nit:      input.Nit,
		Address:  input.Address,
		Status:   ActiveStatusActive,
		Notes:    input.Notes,
	}

	if err := db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, err
	}

	_ = utils.RemoveRedisList[Client](tenantId)

	return &client, nil
}

func UpdateClient(ctx context.Context, id int, input *NewClient) (*Client, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if err := input.validate(ctx, tenantId, id); err != nil {
		return nil, err
	}

	client, err := utils.FetchModel[Client](ctx, tenantId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("client", id)
	}

	client.Name = input.Name
	client.Email = input.Email
	client.Phone = input.Phone
	client.Nit = input.Nit
	client.Address = input.Address
	client.Notes = input.Notes

	if err := db.WithContext(ctx).Save(client).Error; err != nil {
		return nil, err
	}

	_ = utils.RemoveRedisList[Client](tenantId)

	return client, nil
}

// ToggleActiveClient soft-deactivates or reactivates; inactive clients keep
// their history but cannot be referenced by new orders.
func ToggleActiveClient(ctx context.Context, id int, active bool) (*Client, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	client, err := utils.FetchModel[Client](ctx, tenantId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("client", id)
	}

	status := ActiveStatusInactive
	if active {
		status = ActiveStatusActive
	}
	if err := db.WithContext(ctx).Model(client).Update("Status", status).Error; err != nil {
		return nil, err
	}
	client.Status = status

	_ = utils.RemoveRedisList[Client](tenantId)

	return client, nil
}

func GetClient(ctx context.Context, id int) (*Client, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	client, err := utils.FetchModel[Client](ctx, tenantId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("client", id)
	}
	return client, nil
}

func GetClients(ctx context.Context, name *string, status *ActiveStatus) ([]*Client, error) {
	db := config.GetDB()

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	// unfiltered list is cached per tenant
	if name == nil && status == nil {
		cached, err := utils.RetrieveRedisList[Client](tenantId)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	dbCtx := db.WithContext(ctx).Where("tenant_id = ?", tenantId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}

	var results []*Client
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}

	if name == nil && status == nil {
		_ = utils.StoreRedisList[Client](results, tenantId)
	}

	return results, nil
}

// IsClientActive is the existence gate used by order validation.
func IsClientActive(ctx context.Context, tenantId string, clientId int) (bool, error) {
	count, err := utils.ResourceCountWhere[Client](ctx, tenantId, "id = ? AND status = ?", clientId, ActiveStatusActive)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
