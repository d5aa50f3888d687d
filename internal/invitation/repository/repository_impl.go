package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/invitation/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, inv *domain.Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) GetByID(ctx context.Context, orgID, id snowflake.ID) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.WithContext(ctx).
		First(&inv, "id = ? AND org_id = ?", id, orgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.WithContext(ctx).First(&inv, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID, status *domain.Status) ([]domain.Invitation, error) {
	q := r.db.WithContext(ctx).Where("org_id = ?", orgID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var invs []domain.Invitation
	if err := q.Order("invited_at DESC, id DESC").Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

// FindPending returns the PENDING invitation for the address, overdue or
// not, or nil when there is none. The unique index admits at most one
// PENDING row per (org, email), so the caller sees everything that could
// collide with an insert.
func (r *repository) FindPending(ctx context.Context, orgID snowflake.ID, email string) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.WithContext(ctx).
		First(&inv, "org_id = ? AND email = ? AND status = ?", orgID, email, domain.StatusPending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) MarkAccepted(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE invitations
		 SET status = ?, accepted_at = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND expires_at > ?`,
		domain.StatusAccepted, now, now, id, domain.StatusPending, now,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) MarkRevoked(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusRevoked, now, id, domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) MarkExpired(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND expires_at < ?`,
		domain.StatusExpired, now, id, domain.StatusPending, now,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SweepExpired moves every overdue PENDING row to EXPIRED in a single
// statement. Running it twice in a row is a no-op the second time.
func (r *repository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, updated_at = ?
		 WHERE status = ? AND expires_at < ?`,
		domain.StatusExpired, now, domain.StatusPending, now,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) CountByStatus(ctx context.Context, orgID *snowflake.ID) (map[domain.Status]int64, error) {
	type row struct {
		Status domain.Status
		Total  int64
	}
	q := r.db.WithContext(ctx).
		Table("invitations").
		Select("status, COUNT(1) AS total").
		Group("status")
	if orgID != nil {
		q = q.Where("org_id = ?", *orgID)
	}
	var rows []row
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := map[domain.Status]int64{
		domain.StatusPending:  0,
		domain.StatusAccepted: 0,
		domain.StatusExpired:  0,
		domain.StatusRevoked:  0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (r *repository) CountCreatedSince(ctx context.Context, orgID *snowflake.ID, since time.Time) (int64, error) {
	q := r.db.WithContext(ctx).
		Table("invitations").
		Where("created_at >= ?", since)
	if orgID != nil {
		q = q.Where("org_id = ?", *orgID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CountExpiringSoon(ctx context.Context, orgID *snowflake.ID, now time.Time, window time.Duration) (int64, error) {
	q := r.db.WithContext(ctx).
		Table("invitations").
		Where("status = ?", domain.StatusPending).
		Where("expires_at > ? AND expires_at <= ?", now, now.Add(window))
	if orgID != nil {
		q = q.Where("org_id = ?", *orgID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
