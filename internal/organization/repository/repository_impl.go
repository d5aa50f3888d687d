package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/organization/domain"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id snowflake.ID) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
	// UpdateStatus performs a compare-and-set on the status column and
	// reports whether the row was in the expected state.
	UpdateStatus(ctx context.Context, id snowflake.ID, from, to domain.Status) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, org *domain.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repository) List(ctx context.Context) ([]domain.Organization, error) {
	var orgs []domain.Organization
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id snowflake.ID, from, to domain.Status) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE organizations SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
