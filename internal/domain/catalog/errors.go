package catalog

import "errors"

var (
	ErrPartnerNotFound  = errors.New("partner not found")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrNotPartnerOwner  = errors.New("not the partner owner")
	ErrPartnerExists    = errors.New("partner already exists for this user")
	ErrInvalidImage     = errors.New("invalid image file")
	ErrImageTooLarge    = errors.New("image file too large")
)
