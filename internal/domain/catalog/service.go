package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/bhojan/bhojan-api/internal/domain/reward"
	"github.com/bhojan/bhojan-api/internal/pkg/imaging"
	"github.com/bhojan/bhojan-api/internal/pkg/storage"
)

// Service handles catalog business logic
type Service struct {
	repo      Repository
	storage   storage.Storage // nil if object storage disabled
	processor *imaging.Processor
}

// NewService creates catalog service
func NewService(repo Repository, store storage.Storage, processor *imaging.Processor) *Service {
	return &Service{
		repo:      repo,
		storage:   store,
		processor: processor,
	}
}

// CreatePartner registers a venue for a partner user. One venue per owner.
func (s *Service) CreatePartner(ctx context.Context, ownerUserID uuid.UUID, req *CreatePartnerRequest) (*Partner, error) {
	existing, err := s.repo.GetPartnerByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPartnerExists
	}

	now := time.Now()
	p := &Partner{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		Name:        req.Name,
		Category:    reward.Category(req.Category),
		Address:     req.Address,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Description != "" {
		p.Description = sql.NullString{String: req.Description, Valid: true}
	}
	if req.Phone != "" {
		p.Phone = sql.NullString{String: req.Phone, Valid: true}
	}

	if err := s.repo.CreatePartner(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPartner returns a venue by ID
func (s *Service) GetPartner(ctx context.Context, id uuid.UUID) (*Partner, error) {
	p, err := s.repo.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPartnerNotFound
	}
	return p, nil
}

// GetOwnPartner returns the venue owned by the user
func (s *Service) GetOwnPartner(ctx context.Context, ownerUserID uuid.UUID) (*Partner, error) {
	p, err := s.repo.GetPartnerByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPartnerNotFound
	}
	return p, nil
}

// ListPartners returns active venues, optionally filtered by category
func (s *Service) ListPartners(ctx context.Context, filters PartnerFilters) ([]Partner, error) {
	return s.repo.ListPartners(ctx, filters)
}

// UpdatePartner updates the caller's venue. Admins may update any venue.
func (s *Service) UpdatePartner(ctx context.Context, userID, partnerID uuid.UUID, isAdmin bool, req *UpdatePartnerRequest) (*Partner, error) {
	p, err := s.ownedPartner(ctx, userID, partnerID, isAdmin)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = sql.NullString{String: *req.Description, Valid: *req.Description != ""}
	}
	if req.Category != nil {
		p.Category = reward.Category(*req.Category)
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.Phone != nil {
		p.Phone = sql.NullString{String: *req.Phone, Valid: *req.Phone != ""}
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.repo.UpdatePartner(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePartner removes a venue (admin only path)
func (s *Service) DeletePartner(ctx context.Context, partnerID uuid.UUID) error {
	p, err := s.repo.GetPartner(ctx, partnerID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrPartnerNotFound
	}
	return s.repo.DeletePartner(ctx, partnerID)
}

// CreateMenuItem adds a dish to the caller's venue
func (s *Service) CreateMenuItem(ctx context.Context, userID, partnerID uuid.UUID, isAdmin bool, req *CreateMenuItemRequest) (*MenuItem, error) {
	p, err := s.ownedPartner(ctx, userID, partnerID, isAdmin)
	if err != nil {
		return nil, err
	}

	price, err := req.ParsePrice()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item := &MenuItem{
		ID:          uuid.New(),
		PartnerID:   p.ID,
		Name:        req.Name,
		Price:       price,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Description != "" {
		item.Description = sql.NullString{String: req.Description, Valid: true}
	}

	if err := s.repo.CreateMenuItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListMenuItems returns a venue's menu
func (s *Service) ListMenuItems(ctx context.Context, partnerID uuid.UUID) ([]MenuItem, error) {
	p, err := s.repo.GetPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPartnerNotFound
	}
	return s.repo.ListMenuItems(ctx, partnerID)
}

// GetMenuItem returns a single dish
func (s *Service) GetMenuItem(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	item, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMenuItemNotFound
	}
	return item, nil
}

// UpdateMenuItem updates a dish on the caller's venue
func (s *Service) UpdateMenuItem(ctx context.Context, userID, itemID uuid.UUID, isAdmin bool, req *UpdateMenuItemRequest) (*MenuItem, error) {
	item, err := s.ownedMenuItem(ctx, userID, itemID, isAdmin)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = sql.NullString{String: *req.Description, Valid: *req.Description != ""}
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			return nil, err
		}
		item.Price = price
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := s.repo.UpdateMenuItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteMenuItem removes a dish and its stored images
func (s *Service) DeleteMenuItem(ctx context.Context, userID, itemID uuid.UUID, isAdmin bool) error {
	item, err := s.ownedMenuItem(ctx, userID, itemID, isAdmin)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteMenuItem(ctx, itemID); err != nil {
		return err
	}

	// Remove stored images out of band
	if s.storage != nil && item.ImageURL.Valid {
		original, thumb := imaging.GeneratePaths(item.PartnerID.String(), item.ID.String()+".jpg")
		go func() {
			_ = s.storage.Delete(context.Background(), original)
			_ = s.storage.Delete(context.Background(), thumb)
		}()
	}

	return nil
}

// UploadMenuItemImage processes and stores a dish photo plus thumbnail.
func (s *Service) UploadMenuItemImage(ctx context.Context, userID, itemID uuid.UUID, isAdmin bool, filename string, reader io.Reader, size int64) (*MenuItem, error) {
	if s.storage == nil {
		return nil, ErrInvalidImage
	}
	if size > imaging.MaxFileSize {
		return nil, ErrImageTooLarge
	}
	if !imaging.ValidateType(filename) {
		return nil, ErrInvalidImage
	}

	item, err := s.ownedMenuItem(ctx, userID, itemID, isAdmin)
	if err != nil {
		return nil, err
	}

	processed, err := s.processor.Process(io.LimitReader(reader, imaging.MaxFileSize))
	if err != nil {
		return nil, ErrInvalidImage
	}

	originalKey, thumbKey := imaging.GeneratePaths(item.PartnerID.String(), item.ID.String()+".jpg")

	if err := s.storage.Put(ctx, originalKey, bytes.NewReader(processed.Original), processed.ContentType); err != nil {
		return nil, err
	}
	if err := s.storage.Put(ctx, thumbKey, bytes.NewReader(processed.Thumbnail), processed.ContentType); err != nil {
		// Leave the original in place; a retry overwrites both keys.
		log.Warn().Err(err).Str("key", thumbKey).Msg("failed to store thumbnail")
		return nil, err
	}

	imageURL := s.storage.GetURL(originalKey)
	thumbURL := s.storage.GetURL(thumbKey)
	if err := s.repo.SetMenuItemImage(ctx, item.ID, imageURL, thumbURL); err != nil {
		return nil, err
	}

	item.ImageURL = sql.NullString{String: imageURL, Valid: true}
	item.ThumbnailURL = sql.NullString{String: thumbURL, Valid: true}
	return item, nil
}

func (s *Service) ownedPartner(ctx context.Context, userID, partnerID uuid.UUID, isAdmin bool) (*Partner, error) {
	p, err := s.repo.GetPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPartnerNotFound
	}
	if !isAdmin && p.OwnerUserID != userID {
		return nil, ErrNotPartnerOwner
	}
	return p, nil
}

func (s *Service) ownedMenuItem(ctx context.Context, userID, itemID uuid.UUID, isAdmin bool) (*MenuItem, error) {
	item, err := s.repo.GetMenuItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMenuItemNotFound
	}
	if _, err := s.ownedPartner(ctx, userID, item.PartnerID, isAdmin); err != nil {
		if err == ErrNotPartnerOwner {
			return nil, ErrNotPartnerOwner
		}
		return nil, err
	}
	return item, nil
}
