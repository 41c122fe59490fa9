package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/bhojan/bhojan-api/internal/domain/reward"
)

// stubCatalogRepo is an in-memory Repository for service tests.
type stubCatalogRepo struct {
	partners map[uuid.UUID]*Partner
	items    map[uuid.UUID]*MenuItem
}

func newStubCatalogRepo() *stubCatalogRepo {
	return &stubCatalogRepo{
		partners: make(map[uuid.UUID]*Partner),
		items:    make(map[uuid.UUID]*MenuItem),
	}
}

func (s *stubCatalogRepo) CreatePartner(_ context.Context, p *Partner) error {
	s.partners[p.ID] = p
	return nil
}

func (s *stubCatalogRepo) GetPartner(_ context.Context, id uuid.UUID) (*Partner, error) {
	return s.partners[id], nil
}

func (s *stubCatalogRepo) GetPartnerByOwner(_ context.Context, ownerUserID uuid.UUID) (*Partner, error) {
	for _, p := range s.partners {
		if p.OwnerUserID == ownerUserID {
			return p, nil
		}
	}
	return nil, nil
}

func (s *stubCatalogRepo) ListPartners(_ context.Context, filters PartnerFilters) ([]Partner, error) {
	result := make([]Partner, 0)
	for _, p := range s.partners {
		if filters.Category != nil && p.Category != *filters.Category {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (s *stubCatalogRepo) UpdatePartner(_ context.Context, p *Partner) error {
	s.partners[p.ID] = p
	return nil
}

func (s *stubCatalogRepo) DeletePartner(_ context.Context, id uuid.UUID) error {
	delete(s.partners, id)
	return nil
}

func (s *stubCatalogRepo) CreateMenuItem(_ context.Context, item *MenuItem) error {
	s.items[item.ID] = item
	return nil
}

func (s *stubCatalogRepo) GetMenuItem(_ context.Context, id uuid.UUID) (*MenuItem, error) {
	return s.items[id], nil
}

func (s *stubCatalogRepo) GetMenuItems(_ context.Context, ids []uuid.UUID) ([]MenuItem, error) {
	result := make([]MenuItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (s *stubCatalogRepo) ListMenuItems(_ context.Context, partnerID uuid.UUID) ([]MenuItem, error) {
	result := make([]MenuItem, 0)
	for _, item := range s.items {
		if item.PartnerID == partnerID {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (s *stubCatalogRepo) UpdateMenuItem(_ context.Context, item *MenuItem) error {
	s.items[item.ID] = item
	return nil
}

func (s *stubCatalogRepo) SetMenuItemImage(_ context.Context, id uuid.UUID, imageURL, thumbnailURL string) error {
	return nil
}

func (s *stubCatalogRepo) DeleteMenuItem(_ context.Context, id uuid.UUID) error {
	delete(s.items, id)
	return nil
}

func TestCreatePartnerOnePerOwner(t *testing.T) {
	repo := newStubCatalogRepo()
	svc := NewService(repo, nil, nil)
	ownerID := uuid.New()

	req := &CreatePartnerRequest{
		Name:     "Momo House",
		Category: "restaurant",
		Address:  "Thamel, Kathmandu",
	}
	p, err := svc.CreatePartner(context.Background(), ownerID, req)
	if err != nil {
		t.Fatalf("CreatePartner() error = %v", err)
	}
	if p.Category != reward.CategoryRestaurant {
		t.Errorf("category = %s, want restaurant", p.Category)
	}
	if !p.IsActive {
		t.Error("new partner should be active")
	}

	_, err = svc.CreatePartner(context.Background(), ownerID, req)
	if err != ErrPartnerExists {
		t.Errorf("second create: error = %v, want ErrPartnerExists", err)
	}
}

func TestUpdateMenuItemOwnership(t *testing.T) {
	repo := newStubCatalogRepo()
	svc := NewService(repo, nil, nil)
	ownerID := uuid.New()

	p, err := svc.CreatePartner(context.Background(), ownerID, &CreatePartnerRequest{
		Name:     "Chiya Corner",
		Category: "cafe",
		Address:  "Patan Durbar Square",
	})
	if err != nil {
		t.Fatalf("CreatePartner() error = %v", err)
	}

	item, err := svc.CreateMenuItem(context.Background(), ownerID, p.ID, false, &CreateMenuItemRequest{
		Name:  "Milk Tea",
		Price: "80",
	})
	if err != nil {
		t.Fatalf("CreateMenuItem() error = %v", err)
	}

	// Another user cannot edit the item
	newName := "Black Tea"
	_, err = svc.UpdateMenuItem(context.Background(), uuid.New(), item.ID, false, &UpdateMenuItemRequest{Name: &newName})
	if err != ErrNotPartnerOwner {
		t.Errorf("foreign user update: error = %v, want ErrNotPartnerOwner", err)
	}

	// Admin can
	updated, err := svc.UpdateMenuItem(context.Background(), uuid.New(), item.ID, true, &UpdateMenuItemRequest{Name: &newName})
	if err != nil {
		t.Fatalf("admin update: error = %v", err)
	}
	if updated.Name != "Black Tea" {
		t.Errorf("name = %q, want Black Tea", updated.Name)
	}
}

func TestCreateMenuItemInvalidPartner(t *testing.T) {
	svc := NewService(newStubCatalogRepo(), nil, nil)

	_, err := svc.CreateMenuItem(context.Background(), uuid.New(), uuid.New(), false, &CreateMenuItemRequest{
		Name:  "Sel Roti",
		Price: "50",
	})
	if err != ErrPartnerNotFound {
		t.Errorf("error = %v, want ErrPartnerNotFound", err)
	}
}
