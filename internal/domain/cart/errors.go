package cart

import "errors"

var (
	ErrItemNotFound     = errors.New("cart item not found")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrItemUnavailable  = errors.New("menu item is unavailable")
	ErrInvalidQuantity  = errors.New("invalid quantity")
)
