package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/principal/domain"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	GetByID(ctx context.Context, id snowflake.ID) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	// BindOrganization attaches an unbound user to an organization. The
	// guard on org_id keeps a user from ever moving between tenants.
	BindOrganization(ctx context.Context, id, orgID snowflake.ID, role domain.Role, at time.Time) (bool, error)
	TouchLastLogin(ctx context.Context, id snowflake.ID, at time.Time) error
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

func (r *repository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) BindOrganization(ctx context.Context, id, orgID snowflake.ID, role domain.Role, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE users SET org_id = ?, role = ?, is_active = ?, updated_at = ?
		 WHERE id = ? AND org_id IS NULL`,
		orgID, role, true, at.UTC(), id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) TouchLastLogin(ctx context.Context, id snowflake.ID, at time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE users SET last_login_at = ? WHERE id = ?`,
		at.UTC(), id,
	).Error
}
