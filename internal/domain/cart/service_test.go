package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/bhojan/bhojan-api/internal/domain/catalog"
)

// stubCartRepo keeps cart lines in memory, joined against the catalog stub.
type stubCartRepo struct {
	catalog *stubCatalog
	lines   map[uuid.UUID]*Item
}

type stubCatalog struct {
	catalog.Repository
	items map[uuid.UUID]*catalog.MenuItem
}

func (s *stubCatalog) GetMenuItem(_ context.Context, id uuid.UUID) (*catalog.MenuItem, error) {
	return s.items[id], nil
}

func newStubCartRepo(cat *stubCatalog) *stubCartRepo {
	return &stubCartRepo{catalog: cat, lines: make(map[uuid.UUID]*Item)}
}

func (s *stubCartRepo) Upsert(_ context.Context, userID, menuItemID uuid.UUID, quantity int) error {
	for _, line := range s.lines {
		if line.UserID == userID && line.MenuItemID == menuItemID {
			line.Quantity += quantity
			return nil
		}
	}
	s.lines[uuid.New()] = &Item{
		ID:         uuid.New(),
		UserID:     userID,
		MenuItemID: menuItemID,
		Quantity:   quantity,
	}
	return nil
}

func (s *stubCartRepo) UpdateQuantity(_ context.Context, userID, itemID uuid.UUID, quantity int) (bool, error) {
	for _, line := range s.lines {
		if line.ID == itemID && line.UserID == userID {
			line.Quantity = quantity
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCartRepo) Remove(_ context.Context, userID, itemID uuid.UUID) (bool, error) {
	for key, line := range s.lines {
		if line.ID == itemID && line.UserID == userID {
			delete(s.lines, key)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCartRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]Item, error) {
	result := make([]Item, 0)
	for _, line := range s.lines {
		if line.UserID != userID {
			continue
		}
		item := *line
		if m := s.catalog.items[line.MenuItemID]; m != nil {
			item.ItemName = m.Name
			item.Price = m.Price
			item.PartnerID = m.PartnerID
			item.IsAvailable = m.IsAvailable
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *stubCartRepo) Clear(_ context.Context, userID uuid.UUID) error {
	for key, line := range s.lines {
		if line.UserID == userID {
			delete(s.lines, key)
		}
	}
	return nil
}

func (s *stubCartRepo) ClearTx(ctx context.Context, _ *sqlx.Tx, userID uuid.UUID) error {
	return s.Clear(ctx, userID)
}

func testCatalog() *stubCatalog {
	return &stubCatalog{items: make(map[uuid.UUID]*catalog.MenuItem)}
}

func addMenuItem(cat *stubCatalog, price string, available bool) uuid.UUID {
	id := uuid.New()
	p, _ := decimal.NewFromString(price)
	cat.items[id] = &catalog.MenuItem{
		ID:          id,
		PartnerID:   uuid.New(),
		Name:        "Dish",
		Price:       p,
		IsAvailable: available,
	}
	return id
}

func TestAddItemComputesTotal(t *testing.T) {
	cat := testCatalog()
	repo := newStubCartRepo(cat)
	svc := NewService(repo, cat)
	userID := uuid.New()

	itemID := addMenuItem(cat, "250.50", true)

	summary, err := svc.AddItem(context.Background(), userID, itemID, 2)
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	want, _ := decimal.NewFromString("501")
	if !summary.Total.Equal(want) {
		t.Errorf("total = %s, want 501", summary.Total)
	}

	// Adding again merges the line
	summary, err = svc.AddItem(context.Background(), userID, itemID, 1)
	if err != nil {
		t.Fatalf("second AddItem() error = %v", err)
	}
	if len(summary.Items) != 1 || summary.Items[0].Quantity != 3 {
		t.Errorf("expected one merged line with quantity 3, got %+v", summary.Items)
	}
}

func TestAddUnavailableItem(t *testing.T) {
	cat := testCatalog()
	svc := NewService(newStubCartRepo(cat), cat)

	itemID := addMenuItem(cat, "100", false)

	_, err := svc.AddItem(context.Background(), uuid.New(), itemID, 1)
	if err != ErrItemUnavailable {
		t.Errorf("error = %v, want ErrItemUnavailable", err)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	cat := testCatalog()
	repo := newStubCartRepo(cat)
	svc := NewService(repo, cat)
	userID := uuid.New()

	itemID := addMenuItem(cat, "100", true)
	if _, err := svc.AddItem(context.Background(), userID, itemID, 2); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	var lineID uuid.UUID
	for _, line := range repo.lines {
		lineID = line.ID
	}

	summary, err := svc.UpdateQuantity(context.Background(), userID, lineID, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity(0) error = %v", err)
	}
	if len(summary.Items) != 0 {
		t.Errorf("expected empty cart, got %d lines", len(summary.Items))
	}
}
