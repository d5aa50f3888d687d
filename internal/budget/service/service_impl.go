package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/budget/domain"
	"github.com/invobase/invobase/internal/budget/repository"
	"github.com/invobase/invobase/internal/clock"
	"github.com/invobase/invobase/pkg/db"
	"go.uber.org/zap"
)

type service struct {
	repo  repository.Repository
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(repo repository.Repository, log *zap.Logger, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &service{
		repo:  repo,
		log:   log.Named("budget.service"),
		genID: genID,
		clock: clk,
	}
}

func (s *service) CreateCategory(ctx context.Context, orgID snowflake.ID, name string) (*domain.ExpenseCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidCategoryName
	}

	now := s.clock.Now().UTC()
	category := domain.ExpenseCategory{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCategory(ctx, &category); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateCategory
		}
		return nil, db.AsTransient(err)
	}
	return &category, nil
}

func (s *service) ListCategories(ctx context.Context, orgID snowflake.ID) ([]domain.ExpenseCategory, error) {
	return s.repo.ListCategories(ctx, orgID)
}

func (s *service) CreateBudget(ctx context.Context, req domain.UpsertBudgetRequest) (*domain.Budget, error) {
	if req.AmountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if _, err := s.repo.GetCategory(ctx, req.OrgID, req.CategoryID); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	now := s.clock.Now().UTC()
	budget := domain.Budget{
		ID:          s.genID.Generate(),
		OrgID:       req.OrgID,
		UserID:      req.UserID,
		CategoryID:  req.CategoryID,
		AmountCents: req.AmountCents,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateBudget(ctx, &budget); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateBudget
		}
		return nil, db.AsTransient(err)
	}
	return &budget, nil
}

func (s *service) UpdateBudgetAmount(ctx context.Context, orgID, id snowflake.ID, amountCents int64) (*domain.Budget, error) {
	if amountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	updated, err := s.repo.UpdateBudgetAmount(ctx, orgID, id, amountCents)
	if err != nil {
		return nil, db.AsTransient(err)
	}
	if !updated {
		return nil, domain.ErrBudgetNotFound
	}

	budget, err := s.repo.GetBudget(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *service) ListBudgets(ctx context.Context, orgID snowflake.ID, userID *snowflake.ID) ([]domain.Budget, error) {
	return s.repo.ListBudgets(ctx, orgID, userID)
}
