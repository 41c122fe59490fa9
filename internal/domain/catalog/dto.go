package catalog

import "github.com/shopspring/decimal"

// CreatePartnerRequest for POST /partners
type CreatePartnerRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	Category    string `json:"category" validate:"required,category"`
	Address     string `json:"address" validate:"required,min=5,max=255"`
	Phone       string `json:"phone" validate:"omitempty,min=7,max=20"`
}

// UpdatePartnerRequest for PUT /partners/{id}
type UpdatePartnerRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Category    *string `json:"category" validate:"omitempty,category"`
	Address     *string `json:"address" validate:"omitempty,min=5,max=255"`
	Phone       *string `json:"phone" validate:"omitempty,min=7,max=20"`
	IsActive    *bool   `json:"is_active"`
}

// CreateMenuItemRequest for POST /partners/{id}/items
type CreateMenuItemRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	Price       string `json:"price" validate:"required,amount"`
}

// UpdateMenuItemRequest for PUT /items/{id}
type UpdateMenuItemRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Price       *string `json:"price" validate:"omitempty,amount"`
	IsAvailable *bool   `json:"is_available"`
}

// ParsePrice parses the price field of a create request.
func (r *CreateMenuItemRequest) ParsePrice() (decimal.Decimal, error) {
	return decimal.NewFromString(r.Price)
}
