package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines catalog data access interface
type Repository interface {
	CreatePartner(ctx context.Context, p *Partner) error
	GetPartner(ctx context.Context, id uuid.UUID) (*Partner, error)
	GetPartnerByOwner(ctx context.Context, ownerUserID uuid.UUID) (*Partner, error)
	ListPartners(ctx context.Context, filters PartnerFilters) ([]Partner, error)
	UpdatePartner(ctx context.Context, p *Partner) error
	DeletePartner(ctx context.Context, id uuid.UUID) error

	CreateMenuItem(ctx context.Context, item *MenuItem) error
	GetMenuItem(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	GetMenuItems(ctx context.Context, ids []uuid.UUID) ([]MenuItem, error)
	ListMenuItems(ctx context.Context, partnerID uuid.UUID) ([]MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *MenuItem) error
	SetMenuItemImage(ctx context.Context, id uuid.UUID, imageURL, thumbnailURL string) error
	DeleteMenuItem(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates catalog repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const partnerColumns = `id, owner_user_id, name, description, category, address, phone, is_active, created_at, updated_at`

func (r *repository) CreatePartner(ctx context.Context, p *Partner) error {
	query := `
		INSERT INTO partners (id, owner_user_id, name, description, category, address, phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.OwnerUserID, p.Name, p.Description, p.Category,
		p.Address, p.Phone, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *repository) GetPartner(ctx context.Context, id uuid.UUID) (*Partner, error) {
	var p Partner
	err := r.db.GetContext(ctx, &p, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetPartnerByOwner(ctx context.Context, ownerUserID uuid.UUID) (*Partner, error) {
	var p Partner
	err := r.db.GetContext(ctx, &p, `SELECT `+partnerColumns+` FROM partners WHERE owner_user_id = $1`, ownerUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListPartners(ctx context.Context, filters PartnerFilters) ([]Partner, error) {
	base := `SELECT ` + partnerColumns + ` FROM partners WHERE is_active = TRUE`
	args := make([]interface{}, 0, 4)
	idx := 1

	if filters.Category != nil {
		base += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, *filters.Category)
		idx++
	}
	if filters.Search != "" {
		base += fmt.Sprintf(" AND name ILIKE $%d", idx)
		args = append(args, "%"+filters.Search+"%")
		idx++
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	base += fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filters.Offset)

	partners := make([]Partner, 0)
	if err := r.db.SelectContext(ctx, &partners, base, args...); err != nil {
		return nil, err
	}
	return partners, nil
}

func (r *repository) UpdatePartner(ctx context.Context, p *Partner) error {
	query := `
		UPDATE partners
		SET name = $2, description = $3, category = $4, address = $5, phone = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Category, p.Address, p.Phone, p.IsActive,
	)
	return err
}

func (r *repository) DeletePartner(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM partners WHERE id = $1`, id)
	return err
}

const menuItemColumns = `id, partner_id, name, description, price, image_url, thumbnail_url, is_available, created_at, updated_at`

func (r *repository) CreateMenuItem(ctx context.Context, item *MenuItem) error {
	query := `
		INSERT INTO menu_items (id, partner_id, name, description, price, image_url, thumbnail_url, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.PartnerID, item.Name, item.Description, item.Price,
		item.ImageURL, item.ThumbnailURL, item.IsAvailable, item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (r *repository) GetMenuItem(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	var item MenuItem
	err := r.db.GetContext(ctx, &item, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) GetMenuItems(ctx context.Context, ids []uuid.UUID) ([]MenuItem, error) {
	if len(ids) == 0 {
		return []MenuItem{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+menuItemColumns+` FROM menu_items WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	items := make([]MenuItem, 0, len(ids))
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListMenuItems(ctx context.Context, partnerID uuid.UUID) ([]MenuItem, error) {
	items := make([]MenuItem, 0)
	err := r.db.SelectContext(ctx, &items, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		WHERE partner_id = $1
		ORDER BY name
	`, partnerID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateMenuItem(ctx context.Context, item *MenuItem) error {
	query := `
		UPDATE menu_items
		SET name = $2, description = $3, price = $4, is_available = $5, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Description, item.Price, item.IsAvailable,
	)
	return err
}

func (r *repository) SetMenuItemImage(ctx context.Context, id uuid.UUID, imageURL, thumbnailURL string) error {
	query := `UPDATE menu_items SET image_url = $2, thumbnail_url = $3, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, imageURL, thumbnailURL)
	return err
}

func (r *repository) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	return err
}
