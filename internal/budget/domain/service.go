package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidCategoryName = errors.New("invalid_category_name")
	ErrDuplicateCategory   = errors.New("duplicate_category")
	ErrCategoryNotFound    = errors.New("category_not_found")
	ErrInvalidAmount       = errors.New("invalid_budget_amount")
	ErrDuplicateBudget     = errors.New("duplicate_budget")
	ErrBudgetNotFound      = errors.New("budget_not_found")
)

// UpsertBudgetRequest carries the inputs for creating or adjusting a
// budget.
type UpsertBudgetRequest struct {
	OrgID       snowflake.ID
	UserID      snowflake.ID
	CategoryID  snowflake.ID
	AmountCents int64
	Currency    string
}

// Service manages expense categories and per-user budgets.
type Service interface {
	CreateCategory(ctx context.Context, orgID snowflake.ID, name string) (*ExpenseCategory, error)
	ListCategories(ctx context.Context, orgID snowflake.ID) ([]ExpenseCategory, error)
	CreateBudget(ctx context.Context, req UpsertBudgetRequest) (*Budget, error)
	UpdateBudgetAmount(ctx context.Context, orgID, id snowflake.ID, amountCents int64) (*Budget, error)
	ListBudgets(ctx context.Context, orgID snowflake.ID, userID *snowflake.ID) ([]Budget, error)
}
