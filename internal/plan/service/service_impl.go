package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/plan/domain"
	"github.com/invobase/invobase/internal/plan/repository"
	"github.com/invobase/invobase/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type service struct {
	repo  repository.Repository
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(repo repository.Repository, log *zap.Logger, genID *snowflake.Node) domain.Service {
	return &service{
		repo:  repo,
		log:   log.Named("plan.service"),
		genID: genID,
	}
}

func (s *service) ListPublic(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	return s.repo.ListPublic(ctx)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*domain.SubscriptionPlan, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.ErrInvalidSlug
	}
	return s.repo.GetBySlug(ctx, slug)
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.SubscriptionPlan, error) {
	planID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || planID == 0 {
		return nil, domain.ErrPlanNotFound
	}
	return s.repo.GetByID(ctx, planID)
}

func (s *service) Create(ctx context.Context, req domain.UpsertPlanRequest) (*domain.SubscriptionPlan, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	plan := domain.SubscriptionPlan{
		ID:           s.genID.Generate(),
		Slug:         strings.TrimSpace(req.Slug),
		Name:         strings.TrimSpace(req.Name),
		MaxUsers:     req.MaxUsers,
		MaxInvoices:  req.MaxInvoices,
		MaxCustomers: req.MaxCustomers,
		MaxExpenses:  req.MaxExpenses,
		Features:     datatypes.JSONMap(req.Features),
		IsActive:     true,
		IsPublic:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if req.IsPublic != nil {
		plan.IsPublic = *req.IsPublic
	}

	if err := s.repo.Create(ctx, &plan); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateSlug
		}
		return nil, err
	}
	return &plan, nil
}

func (s *service) Update(ctx context.Context, id string, req domain.UpsertPlanRequest) (*domain.SubscriptionPlan, error) {
	plan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	plan.Slug = strings.TrimSpace(req.Slug)
	plan.Name = strings.TrimSpace(req.Name)
	plan.MaxUsers = req.MaxUsers
	plan.MaxInvoices = req.MaxInvoices
	plan.MaxCustomers = req.MaxCustomers
	plan.MaxExpenses = req.MaxExpenses
	if req.Features != nil {
		plan.Features = datatypes.JSONMap(req.Features)
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if req.IsPublic != nil {
		plan.IsPublic = *req.IsPublic
	}
	plan.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, plan); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateSlug
		}
		return nil, err
	}
	return plan, nil
}

func validate(req domain.UpsertPlanRequest) error {
	if strings.TrimSpace(req.Slug) == "" {
		return domain.ErrInvalidSlug
	}
	if strings.TrimSpace(req.Name) == "" {
		return domain.ErrInvalidName
	}
	for _, limit := range []int64{req.MaxUsers, req.MaxInvoices, req.MaxCustomers, req.MaxExpenses} {
		if limit < domain.Unlimited {
			return domain.ErrInvalidLimit
		}
	}
	return nil
}
