package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/budget/domain"
	"github.com/invobase/invobase/internal/budget/repository"
	"github.com/invobase/invobase/internal/clock"
	dbpkg "github.com/invobase/invobase/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	svc   domain.Service
	orgID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := db.AutoMigrate(&domain.ExpenseCategory{}, &domain.Budget{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create id generator: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(repository.NewRepository(db), zap.NewNop(), node, clk)
	return &fixture{db: db, node: node, svc: svc, orgID: node.Generate()}
}

func (f *fixture) category(t *testing.T, name string) *domain.ExpenseCategory {
	t.Helper()
	category, err := f.svc.CreateCategory(context.Background(), f.orgID, name)
	if err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	return category
}

func TestCreateCategory(t *testing.T) {
	f := newFixture(t)

	category := f.category(t, "  Travel ")
	if category.Name != "Travel" {
		t.Fatalf("expected trimmed name, got %q", category.Name)
	}

	if _, err := f.svc.CreateCategory(context.Background(), f.orgID, "Travel"); !errors.Is(err, domain.ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}

	// The uniqueness constraint is per tenant.
	if _, err := f.svc.CreateCategory(context.Background(), f.node.Generate(), "Travel"); err != nil {
		t.Fatalf("expected the name to be free in another org, got %v", err)
	}
}

func TestCreateCategoryRejectsBlankName(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.CreateCategory(context.Background(), f.orgID, "   "); !errors.Is(err, domain.ErrInvalidCategoryName) {
		t.Fatalf("expected ErrInvalidCategoryName, got %v", err)
	}
}

func TestCreateBudget(t *testing.T) {
	f := newFixture(t)
	category := f.category(t, "Travel")
	userID := f.node.Generate()

	budget, err := f.svc.CreateBudget(context.Background(), domain.UpsertBudgetRequest{
		OrgID:       f.orgID,
		UserID:      userID,
		CategoryID:  category.ID,
		AmountCents: 50_000,
	})
	if err != nil {
		t.Fatalf("failed to create budget: %v", err)
	}
	if budget.Currency != "USD" {
		t.Fatalf("expected the currency to default to USD, got %q", budget.Currency)
	}

	_, err = f.svc.CreateBudget(context.Background(), domain.UpsertBudgetRequest{
		OrgID:       f.orgID,
		UserID:      userID,
		CategoryID:  category.ID,
		AmountCents: 10_000,
	})
	if !errors.Is(err, domain.ErrDuplicateBudget) {
		t.Fatalf("expected ErrDuplicateBudget for the same user and category, got %v", err)
	}
}

func TestCreateBudgetValidation(t *testing.T) {
	f := newFixture(t)
	category := f.category(t, "Travel")

	_, err := f.svc.CreateBudget(context.Background(), domain.UpsertBudgetRequest{
		OrgID:       f.orgID,
		UserID:      f.node.Generate(),
		CategoryID:  category.ID,
		AmountCents: 0,
	})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	_, err = f.svc.CreateBudget(context.Background(), domain.UpsertBudgetRequest{
		OrgID:       f.orgID,
		UserID:      f.node.Generate(),
		CategoryID:  f.node.Generate(),
		AmountCents: 10_000,
	})
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestUpdateBudgetAmount(t *testing.T) {
	f := newFixture(t)
	category := f.category(t, "Travel")

	budget, err := f.svc.CreateBudget(context.Background(), domain.UpsertBudgetRequest{
		OrgID:       f.orgID,
		UserID:      f.node.Generate(),
		CategoryID:  category.ID,
		AmountCents: 50_000,
	})
	if err != nil {
		t.Fatalf("failed to create budget: %v", err)
	}

	updated, err := f.svc.UpdateBudgetAmount(context.Background(), f.orgID, budget.ID, 75_000)
	if err != nil {
		t.Fatalf("failed to update budget: %v", err)
	}
	if updated.AmountCents != 75_000 {
		t.Fatalf("expected 75000, got %d", updated.AmountCents)
	}

	if _, err := f.svc.UpdateBudgetAmount(context.Background(), f.orgID, budget.ID, 0); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := f.svc.UpdateBudgetAmount(context.Background(), f.orgID, f.node.Generate(), 10_000); !errors.Is(err, domain.ErrBudgetNotFound) {
		t.Fatalf("expected ErrBudgetNotFound, got %v", err)
	}
	// Updates are tenant scoped.
	if _, err := f.svc.UpdateBudgetAmount(context.Background(), f.node.Generate(), budget.ID, 10_000); !errors.Is(err, domain.ErrBudgetNotFound) {
		t.Fatalf("expected ErrBudgetNotFound across tenants, got %v", err)
	}
}

func TestListBudgetsFilterByUser(t *testing.T) {
	f := newFixture(t)
	category := f.category(t, "Travel")
	alice := f.node.Generate()
	bob := f.node.Generate()

	for _, userID := range []snowflake.ID{alice, bob} {
		if _, err := f.svc.CreateBudget(context.Background(), domain.UpsertBudgetRequest{
			OrgID:       f.orgID,
			UserID:      userID,
			CategoryID:  category.ID,
			AmountCents: 10_000,
		}); err != nil {
			t.Fatalf("failed to create budget: %v", err)
		}
	}

	all, err := f.svc.ListBudgets(context.Background(), f.orgID, nil)
	if err != nil {
		t.Fatalf("failed to list budgets: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 budgets, got %d", len(all))
	}

	mine, err := f.svc.ListBudgets(context.Background(), f.orgID, &alice)
	if err != nil {
		t.Fatalf("failed to list budgets: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != alice {
		t.Fatalf("expected only alice's budget, got %+v", mine)
	}
}
