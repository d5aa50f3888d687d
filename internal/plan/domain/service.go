package domain

import (
	"context"
	"errors"
)

type Service interface {
	ListPublic(ctx context.Context) ([]SubscriptionPlan, error)
	GetBySlug(ctx context.Context, slug string) (*SubscriptionPlan, error)
	GetByID(ctx context.Context, id string) (*SubscriptionPlan, error)
	Create(ctx context.Context, req UpsertPlanRequest) (*SubscriptionPlan, error)
	Update(ctx context.Context, id string, req UpsertPlanRequest) (*SubscriptionPlan, error)
}

// UpsertPlanRequest carries administrative plan edits. Limit fields use
// -1 for unlimited.
type UpsertPlanRequest struct {
	Slug         string         `json:"slug"`
	Name         string         `json:"name"`
	MaxUsers     int64          `json:"max_users"`
	MaxInvoices  int64          `json:"max_invoices"`
	MaxCustomers int64          `json:"max_customers"`
	MaxExpenses  int64          `json:"max_expenses"`
	Features     map[string]any `json:"features"`
	IsActive     *bool          `json:"is_active"`
	IsPublic     *bool          `json:"is_public"`
}

var (
	ErrInvalidSlug   = errors.New("invalid_slug")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidLimit  = errors.New("invalid_limit")
	ErrDuplicateSlug = errors.New("duplicate_slug")
	ErrPlanNotFound  = errors.New("plan_not_found")
)
