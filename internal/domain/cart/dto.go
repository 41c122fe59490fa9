package cart

import "github.com/google/uuid"

// AddItemRequest for POST /cart/items
type AddItemRequest struct {
	MenuItemID uuid.UUID `json:"menu_item_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,gt=0,lte=50"`
}

// UpdateQuantityRequest for PATCH /cart/items/{id}
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=50"`
}
