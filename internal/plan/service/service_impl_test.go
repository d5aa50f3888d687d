package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/plan/domain"
	"github.com/invobase/invobase/internal/plan/repository"
	dbpkg "github.com/invobase/invobase/pkg/db"
	"go.uber.org/zap"
)

func newService(t *testing.T) domain.Service {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := db.AutoMigrate(&domain.SubscriptionPlan{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create id generator: %v", err)
	}
	return NewService(repository.NewRepository(db), zap.NewNop(), node)
}

func validRequest() domain.UpsertPlanRequest {
	return domain.UpsertPlanRequest{
		Slug:         "starter",
		Name:         "Starter",
		MaxUsers:     5,
		MaxInvoices:  100,
		MaxCustomers: 50,
		MaxExpenses:  500,
	}
}

func TestCreateAndGetBySlug(t *testing.T) {
	svc := newService(t)

	created, err := svc.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}
	if !created.IsActive || !created.IsPublic {
		t.Fatalf("new plans default to active and public, got %+v", created)
	}

	got, err := svc.GetBySlug(context.Background(), "starter")
	if err != nil {
		t.Fatalf("failed to fetch plan: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected plan %d, got %d", created.ID, got.ID)
	}
}

func TestCreateDuplicateSlug(t *testing.T) {
	svc := newService(t)

	if _, err := svc.Create(context.Background(), validRequest()); err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}
	if _, err := svc.Create(context.Background(), validRequest()); !errors.Is(err, domain.ErrDuplicateSlug) {
		t.Fatalf("expected ErrDuplicateSlug, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)

	req := validRequest()
	req.Slug = "  "
	if _, err := svc.Create(context.Background(), req); !errors.Is(err, domain.ErrInvalidSlug) {
		t.Fatalf("expected ErrInvalidSlug, got %v", err)
	}

	req = validRequest()
	req.MaxUsers = -2
	if _, err := svc.Create(context.Background(), req); !errors.Is(err, domain.ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit below -1, got %v", err)
	}

	// -1 is the unlimited sentinel, not an invalid limit.
	req = validRequest()
	req.MaxUsers = domain.Unlimited
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("expected unlimited to be accepted, got %v", err)
	}
}

func TestUpdatePlan(t *testing.T) {
	svc := newService(t)

	created, err := svc.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	req := validRequest()
	req.MaxUsers = 25
	hidden := false
	req.IsPublic = &hidden

	updated, err := svc.Update(context.Background(), created.ID.String(), req)
	if err != nil {
		t.Fatalf("failed to update plan: %v", err)
	}
	if updated.MaxUsers != 25 {
		t.Fatalf("expected 25 seats, got %d", updated.MaxUsers)
	}
	if updated.IsPublic {
		t.Fatal("expected the plan to be hidden")
	}

	if _, err := svc.Update(context.Background(), "12345", validRequest()); !errors.Is(err, domain.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestListPublicHidesPrivatePlans(t *testing.T) {
	svc := newService(t)

	if _, err := svc.Create(context.Background(), validRequest()); err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}
	req := validRequest()
	req.Slug = "enterprise"
	req.Name = "Enterprise"
	hidden := false
	req.IsPublic = &hidden
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("failed to create private plan: %v", err)
	}

	plans, err := svc.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("failed to list plans: %v", err)
	}
	if len(plans) != 1 || plans[0].Slug != "starter" {
		t.Fatalf("expected only the public plan, got %+v", plans)
	}
}
