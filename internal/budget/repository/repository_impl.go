package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/budget/domain"
	"gorm.io/gorm"
)

type Repository interface {
	CreateCategory(ctx context.Context, category *domain.ExpenseCategory) error
	GetCategory(ctx context.Context, orgID, id snowflake.ID) (*domain.ExpenseCategory, error)
	ListCategories(ctx context.Context, orgID snowflake.ID) ([]domain.ExpenseCategory, error)
	CreateBudget(ctx context.Context, budget *domain.Budget) error
	GetBudget(ctx context.Context, orgID, id snowflake.ID) (*domain.Budget, error)
	UpdateBudgetAmount(ctx context.Context, orgID, id snowflake.ID, amountCents int64) (bool, error)
	ListBudgets(ctx context.Context, orgID snowflake.ID, userID *snowflake.ID) ([]domain.Budget, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateCategory(ctx context.Context, category *domain.ExpenseCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) GetCategory(ctx context.Context, orgID, id snowflake.ID) (*domain.ExpenseCategory, error) {
	var category domain.ExpenseCategory
	err := r.db.WithContext(ctx).First(&category, "id = ? AND org_id = ?", id, orgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) ListCategories(ctx context.Context, orgID snowflake.ID) ([]domain.ExpenseCategory, error) {
	var categories []domain.ExpenseCategory
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) CreateBudget(ctx context.Context, budget *domain.Budget) error {
	return r.db.WithContext(ctx).Create(budget).Error
}

func (r *repository) GetBudget(ctx context.Context, orgID, id snowflake.ID) (*domain.Budget, error) {
	var budget domain.Budget
	err := r.db.WithContext(ctx).First(&budget, "id = ? AND org_id = ?", id, orgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBudgetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *repository) UpdateBudgetAmount(ctx context.Context, orgID, id snowflake.ID, amountCents int64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE budgets SET amount_cents = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND org_id = ?`,
		amountCents, id, orgID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListBudgets(ctx context.Context, orgID snowflake.ID, userID *snowflake.ID) ([]domain.Budget, error) {
	q := r.db.WithContext(ctx).Where("org_id = ?", orgID)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var budgets []domain.Budget
	if err := q.Order("created_at ASC").Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}
