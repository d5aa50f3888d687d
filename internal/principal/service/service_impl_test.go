package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/clock"
	"github.com/invobase/invobase/internal/principal/domain"
	"github.com/invobase/invobase/internal/principal/repository"
	dbpkg "github.com/invobase/invobase/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   domain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create id generator: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(repository.NewRepository(db), clk, zap.NewNop())
	return &fixture{db: db, node: node, clock: clk, svc: svc}
}

func (f *fixture) seedUser(t *testing.T, mutate func(*domain.User)) *domain.User {
	t.Helper()
	orgID := f.node.Generate()
	user := domain.User{
		ID:         f.node.Generate(),
		ExternalID: "idp|dana",
		Email:      "dana@example.com",
		OrgID:      &orgID,
		Role:       domain.RoleUser,
		IsActive:   true,
	}
	if mutate != nil {
		mutate(&user)
	}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return &user
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, nil)

	p, err := f.svc.Resolve(context.Background(), "idp|dana")
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if p.UserID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, p.UserID)
	}
	if p.OrgID != *user.OrgID {
		t.Fatalf("expected org %d, got %d", *user.OrgID, p.OrgID)
	}
	if p.Role != domain.RoleUser || !p.IsActive {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestResolveBlankIdentity(t *testing.T) {
	f := newFixture(t)

	for _, id := range []string{"", "   "} {
		if _, err := f.svc.Resolve(context.Background(), id); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated for %q, got %v", id, err)
		}
	}
}

func TestResolveUnknownIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Resolve(context.Background(), "idp|stranger")
	if !errors.Is(err, domain.ErrNotProvisioned) {
		t.Fatalf("expected ErrNotProvisioned, got %v", err)
	}
}

func TestResolveUnboundUser(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, func(u *domain.User) { u.OrgID = nil })

	_, err := f.svc.Resolve(context.Background(), "idp|dana")
	if !errors.Is(err, domain.ErrNotProvisioned) {
		t.Fatalf("expected ErrNotProvisioned for an unbound user, got %v", err)
	}
}

func TestResolveSuperuserWithoutOrg(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, func(u *domain.User) {
		u.OrgID = nil
		u.IsSuperuser = true
		u.Role = domain.RoleAdmin
	})

	p, err := f.svc.Resolve(context.Background(), "idp|dana")
	if err != nil {
		t.Fatalf("failed to resolve superuser: %v", err)
	}
	if !p.IsSuperuser {
		t.Fatal("expected the superuser flag to carry over")
	}
	if p.OrgID != 0 {
		t.Fatalf("superusers are unbound, got org %d", p.OrgID)
	}
}

func TestResolveInactiveUserStillResolves(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, func(u *domain.User) { u.IsActive = false })

	// Resolution only establishes identity. Denying inactive accounts is
	// the access gate's rule, keyed on the flag carried here.
	p, err := f.svc.Resolve(context.Background(), "idp|dana")
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if p.IsActive {
		t.Fatal("expected the inactive flag to carry over")
	}
}

func TestResolveTouchesLastLogin(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, nil)

	f.clock.Advance(90 * time.Minute)
	if _, err := f.svc.Resolve(context.Background(), "idp|dana"); err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}

	var stored domain.User
	if err := f.db.First(&stored, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.LastLoginAt == nil || !stored.LastLoginAt.Equal(f.clock.Now()) {
		t.Fatalf("expected last login %v, got %v", f.clock.Now(), stored.LastLoginAt)
	}
}
