package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/plan/domain"
	"gorm.io/gorm"
)

type Repository interface {
	ListPublic(ctx context.Context) ([]domain.SubscriptionPlan, error)
	GetBySlug(ctx context.Context, slug string) (*domain.SubscriptionPlan, error)
	GetByID(ctx context.Context, id snowflake.ID) (*domain.SubscriptionPlan, error)
	Create(ctx context.Context, plan *domain.SubscriptionPlan) error
	Update(ctx context.Context, plan *domain.SubscriptionPlan) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListPublic(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	var plans []domain.SubscriptionPlan
	err := r.db.WithContext(ctx).
		Where("is_public = ? AND is_active = ?", true, true).
		Order("slug ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*domain.SubscriptionPlan, error) {
	var plan domain.SubscriptionPlan
	err := r.db.WithContext(ctx).First(&plan, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.SubscriptionPlan, error) {
	var plan domain.SubscriptionPlan
	err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) Create(ctx context.Context, plan *domain.SubscriptionPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repository) Update(ctx context.Context, plan *domain.SubscriptionPlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}
