package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhojan/bhojan-api/internal/domain/catalog"
)

const maxQuantityPerLine = 50

// Service handles cart business logic
type Service struct {
	repo        Repository
	catalogRepo catalog.Repository
}

// NewService creates cart service
func NewService(repo Repository, catalogRepo catalog.Repository) *Service {
	return &Service{repo: repo, catalogRepo: catalogRepo}
}

// AddItem puts a menu item into the user's cart, merging quantities on repeat adds.
func (s *Service) AddItem(ctx context.Context, userID, menuItemID uuid.UUID, quantity int) (*Summary, error) {
	if quantity <= 0 || quantity > maxQuantityPerLine {
		return nil, ErrInvalidQuantity
	}

	item, err := s.catalogRepo.GetMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMenuItemNotFound
	}
	if !item.IsAvailable {
		return nil, ErrItemUnavailable
	}

	if err := s.repo.Upsert(ctx, userID, menuItemID, quantity); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// UpdateQuantity sets the quantity of a cart line; 0 removes it.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Summary, error) {
	if quantity < 0 || quantity > maxQuantityPerLine {
		return nil, ErrInvalidQuantity
	}

	if quantity == 0 {
		return s.RemoveItem(ctx, userID, itemID)
	}

	ok, err := s.repo.UpdateQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrItemNotFound
	}

	return s.Get(ctx, userID)
}

// RemoveItem deletes a cart line
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*Summary, error) {
	ok, err := s.repo.Remove(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrItemNotFound
	}

	return s.Get(ctx, userID)
}

// Get returns the cart with its total
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].Subtotal())
	}

	return &Summary{Items: items, Total: total}, nil
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}
