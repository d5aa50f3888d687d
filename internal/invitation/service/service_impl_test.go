package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/access"
	auditdomain "github.com/invobase/invobase/internal/audit/domain"
	auditrepo "github.com/invobase/invobase/internal/audit/repository"
	auditservice "github.com/invobase/invobase/internal/audit/service"
	"github.com/invobase/invobase/internal/clock"
	"github.com/invobase/invobase/internal/config"
	"github.com/invobase/invobase/internal/invitation/domain"
	invitationrepo "github.com/invobase/invobase/internal/invitation/repository"
	organizationdomain "github.com/invobase/invobase/internal/organization/domain"
	organizationrepo "github.com/invobase/invobase/internal/organization/repository"
	plandomain "github.com/invobase/invobase/internal/plan/domain"
	principaldomain "github.com/invobase/invobase/internal/principal/domain"
	principalrepo "github.com/invobase/invobase/internal/principal/repository"
	"github.com/invobase/invobase/internal/quota"
	dbpkg "github.com/invobase/invobase/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   domain.Service
	orgID snowflake.ID
}

func newFixture(t *testing.T, maxUsers int64) *fixture {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	if err := db.AutoMigrate(
		&plandomain.SubscriptionPlan{},
		&organizationdomain.Organization{},
		&principaldomain.User{},
		&domain.Invitation{},
		&auditdomain.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create id generator: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	plan := plandomain.SubscriptionPlan{
		ID:       node.Generate(),
		Slug:     "test",
		Name:     "Test",
		MaxUsers: maxUsers,
	}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("failed to seed plan: %v", err)
	}
	org := organizationdomain.Organization{
		ID:     node.Generate(),
		Name:   "Acme",
		Slug:   "acme",
		Status: organizationdomain.StatusActive,
		PlanID: plan.ID,
	}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("failed to seed organization: %v", err)
	}

	enforcer, err := access.NewEnforcer(db)
	if err != nil {
		t.Fatalf("failed to build enforcer: %v", err)
	}
	auditSvc := auditservice.NewService(auditservice.Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(db),
	})
	accessSvc := access.NewService(access.Params{
		Log:      zap.NewNop(),
		Enforcer: enforcer,
		AuditSvc: auditSvc,
	})
	quotaSvc := quota.NewService(quota.Params{
		DB:       db,
		Log:      zap.NewNop(),
		AuditSvc: auditSvc,
	})
	svc := NewService(Params{
		Log:     zap.NewNop(),
		DB:      db,
		GenID:   node,
		Clock:   clk,
		Policy:  config.NewStaticPolicyHolder(config.DefaultInvitationPolicy()),
		Repo:    invitationrepo.NewRepository(db),
		OrgRepo: organizationrepo.NewRepository(db),
		Users:   principalrepo.NewRepository(db),
		Access:  accessSvc,
		Quota:   quotaSvc,
		Audit:   auditSvc,
	})
	return &fixture{db: db, node: node, clock: clk, svc: svc, orgID: org.ID}
}

func (f *fixture) admin() principaldomain.Principal {
	return principaldomain.Principal{
		UserID:   f.node.Generate(),
		OrgID:    f.orgID,
		Role:     principaldomain.RoleAdmin,
		IsActive: true,
	}
}

func (f *fixture) invite(t *testing.T, email string) *domain.Invitation {
	t.Helper()
	inv, err := f.svc.Create(context.Background(), domain.CreateInvitationRequest{
		OrgID:     f.orgID,
		Email:     email,
		Role:      principaldomain.RoleUser,
		InvitedBy: f.admin().UserID,
	})
	if err != nil {
		t.Fatalf("failed to create invitation: %v", err)
	}
	return inv
}

func (f *fixture) reload(t *testing.T, id snowflake.ID) *domain.Invitation {
	t.Helper()
	var inv domain.Invitation
	if err := f.db.First(&inv, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload invitation: %v", err)
	}
	return &inv
}

func (f *fixture) seedMember(t *testing.T, externalID string) *principaldomain.User {
	t.Helper()
	orgID := f.orgID
	user := principaldomain.User{
		ID:         f.node.Generate(),
		ExternalID: externalID,
		Email:      externalID,
		OrgID:      &orgID,
		Role:       principaldomain.RoleUser,
		IsActive:   true,
	}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return &user
}

func TestCreateAppliesPolicyTTL(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)

	inv := f.invite(t, "dana@example.com")
	if inv.Status != domain.StatusPending {
		t.Fatalf("expected PENDING, got %s", inv.Status)
	}
	if inv.Token == "" {
		t.Fatal("expected a non-empty token")
	}
	want := f.clock.Now().Add(7 * 24 * time.Hour)
	if !inv.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, inv.ExpiresAt)
	}
}

func TestCreateNormalizesEmail(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)

	inv := f.invite(t, "  Dana@Example.COM ")
	if inv.Email != "dana@example.com" {
		t.Fatalf("expected normalized email, got %q", inv.Email)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)

	_, err := f.svc.Create(context.Background(), domain.CreateInvitationRequest{
		OrgID: f.orgID,
		Email: "not-an-email",
		Role:  principaldomain.RoleUser,
	})
	if !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	_, err = f.svc.Create(context.Background(), domain.CreateInvitationRequest{
		OrgID: f.orgID,
		Email: "dana@example.com",
		Role:  principaldomain.Role("OWNER"),
	})
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestCreateDuplicatePending(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)

	f.invite(t, "dana@example.com")
	_, err := f.svc.Create(context.Background(), domain.CreateInvitationRequest{
		OrgID: f.orgID,
		Email: "dana@example.com",
		Role:  principaldomain.RoleUser,
	})
	if !errors.Is(err, domain.ErrDuplicatePending) {
		t.Fatalf("expected ErrDuplicatePending, got %v", err)
	}
}

func TestCreateAllowedAfterTerminalState(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)

	inv := f.invite(t, "dana@example.com")
	if _, err := f.svc.Revoke(context.Background(), f.admin(), f.orgID, inv.ID); err != nil {
		t.Fatalf("failed to revoke: %v", err)
	}

	// Only PENDING rows block re-invitation.
	f.invite(t, "dana@example.com")
}

func TestCreateSettlesOverdueRowBeforeReinvite(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)

	// The production schema enforces one PENDING row per (org, email)
	// regardless of expiry; recreate that index so the insert path is
	// exercised against it.
	if err := f.db.Exec(
		`CREATE UNIQUE INDEX ux_invitations_pending_email
		 ON invitations (org_id, email) WHERE status = 'PENDING'`,
	).Error; err != nil {
		t.Fatalf("failed to create partial index: %v", err)
	}

	stale := f.invite(t, "dana@example.com")
	f.clock.Advance(8 * 24 * time.Hour)

	// The overdue row has not been swept yet; re-inviting must settle it
	// rather than collide with the index.
	fresh := f.invite(t, "dana@example.com")
	if fresh.ID == stale.ID {
		t.Fatal("expected a new invitation row")
	}
	if got := f.reload(t, stale.ID); got.Status != domain.StatusExpired {
		t.Fatalf("expected stale row EXPIRED, got %s", got.Status)
	}
	if got := f.reload(t, fresh.ID); got.Status != domain.StatusPending {
		t.Fatalf("expected fresh row PENDING, got %s", got.Status)
	}
}

func TestCreateRejectedForSuspendedOrg(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)

	if err := f.db.Model(&organizationdomain.Organization{}).
		Where("id = ?", f.orgID).
		Update("status", organizationdomain.StatusSuspended).Error; err != nil {
		t.Fatalf("failed to suspend org: %v", err)
	}

	_, err := f.svc.Create(context.Background(), domain.CreateInvitationRequest{
		OrgID: f.orgID,
		Email: "dana@example.com",
		Role:  principaldomain.RoleUser,
	})
	if !errors.Is(err, organizationdomain.ErrOrganizationSuspended) {
		t.Fatalf("expected ErrOrganizationSuspended, got %v", err)
	}
}

func TestAcceptCreatesAndBindsUser(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)
	inv := f.invite(t, "dana@example.com")

	user, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      inv.Token,
		ExternalID: "idp|dana",
	})
	if err != nil {
		t.Fatalf("failed to accept: %v", err)
	}
	if user.OrgID == nil || *user.OrgID != f.orgID {
		t.Fatalf("expected user bound to %d, got %v", f.orgID, user.OrgID)
	}
	if user.Role != principaldomain.RoleUser {
		t.Fatalf("expected invited role, got %s", user.Role)
	}

	got := f.reload(t, inv.ID)
	if got.Status != domain.StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", got.Status)
	}
	if got.AcceptedAt == nil {
		t.Fatal("expected accepted_at to be set")
	}

	var stored principaldomain.User
	if err := f.db.First(&stored, "external_id = ?", "idp|dana").Error; err != nil {
		t.Fatalf("expected a persisted user: %v", err)
	}
}

func TestAcceptBindsExistingUnboundUser(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)
	inv := f.invite(t, "dana@example.com")

	unbound := principaldomain.User{
		ID:         f.node.Generate(),
		ExternalID: "idp|dana",
		Email:      "dana@example.com",
		Role:       principaldomain.RoleUser,
		IsActive:   true,
	}
	if err := f.db.Create(&unbound).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	user, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      inv.Token,
		ExternalID: "idp|dana",
	})
	if err != nil {
		t.Fatalf("failed to accept: %v", err)
	}
	if user.ID != unbound.ID {
		t.Fatalf("expected the existing user to be bound, got %d", user.ID)
	}

	var stored principaldomain.User
	if err := f.db.First(&stored, "id = ?", unbound.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.OrgID == nil || *stored.OrgID != f.orgID {
		t.Fatalf("expected user bound to %d, got %v", f.orgID, stored.OrgID)
	}
}

func TestAcceptRejectsMismatchedEmail(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)
	inv := f.invite(t, "dana@example.com")

	_, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      inv.Token,
		ExternalID: "idp|dana",
		Email:      "mallory@example.com",
	})
	if !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if got := f.reload(t, inv.ID); got.Status != domain.StatusPending {
		t.Fatalf("a rejected accept must leave the row PENDING, got %s", got.Status)
	}

	// A matching confirmation address is fine, case-insensitively.
	if _, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      inv.Token,
		ExternalID: "idp|dana",
		Email:      " Dana@Example.COM ",
	}); err != nil {
		t.Fatalf("failed to accept with matching email: %v", err)
	}
}

func TestAcceptRejectsBoundIdentity(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)
	inv := f.invite(t, "dana@example.com")
	f.seedMember(t, "idp|dana")

	_, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      inv.Token,
		ExternalID: "idp|dana",
	})
	if !errors.Is(err, domain.ErrIdentityAlreadyBound) {
		t.Fatalf("expected ErrIdentityAlreadyBound, got %v", err)
	}
	if got := f.reload(t, inv.ID); got.Status != domain.StatusPending {
		t.Fatalf("failed accept must leave the row PENDING, got %s", got.Status)
	}
}

func TestAcceptAfterExpirySettlesRow(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)
	inv := f.invite(t, "dana@example.com")

	f.clock.Advance(8 * 24 * time.Hour)

	_, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      inv.Token,
		ExternalID: "idp|dana",
	})
	if !errors.Is(err, domain.ErrInvitationExpired) {
		t.Fatalf("expected ErrInvitationExpired, got %v", err)
	}
	if got := f.reload(t, inv.ID); got.Status != domain.StatusExpired {
		t.Fatalf("overdue accept must settle the row to EXPIRED, got %s", got.Status)
	}

	var count int64
	if err := f.db.Model(&principaldomain.User{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count users: %v", err)
	}
	if count != 0 {
		t.Fatalf("expired accept must not create a user, found %d", count)
	}
}

func TestAcceptDeniedAtSeatLimit(t *testing.T) {
	f := newFixture(t, 1)
	f.seedMember(t, "idp|existing")
	inv := f.invite(t, "dana@example.com")

	_, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      inv.Token,
		ExternalID: "idp|dana",
	})
	if !errors.Is(err, quota.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if got := f.reload(t, inv.ID); got.Status != domain.StatusPending {
		t.Fatalf("a quota denial must leave the row PENDING, got %s", got.Status)
	}
}

func TestAcceptConsumesSeat(t *testing.T) {
	f := newFixture(t, 2)
	f.seedMember(t, "idp|existing")

	first := f.invite(t, "dana@example.com")
	if _, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      first.Token,
		ExternalID: "idp|dana",
	}); err != nil {
		t.Fatalf("failed to accept within the limit: %v", err)
	}

	second := f.invite(t, "erin@example.com")
	_, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      second.Token,
		ExternalID: "idp|erin",
	})
	if !errors.Is(err, quota.ErrQuotaExceeded) {
		t.Fatalf("expected the second accept to exhaust the plan, got %v", err)
	}
}

func TestAcceptUnknownToken(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)

	_, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      "no-such-token",
		ExternalID: "idp|dana",
	})
	if !errors.Is(err, domain.ErrInvitationNotFound) {
		t.Fatalf("expected ErrInvitationNotFound, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)
	inv := f.invite(t, "dana@example.com")

	revoked, err := f.svc.Revoke(context.Background(), f.admin(), f.orgID, inv.ID)
	if err != nil {
		t.Fatalf("failed to revoke: %v", err)
	}
	if revoked.Status != domain.StatusRevoked {
		t.Fatalf("expected REVOKED, got %s", revoked.Status)
	}

	// Terminal rows stay put.
	if _, err := f.svc.Revoke(context.Background(), f.admin(), f.orgID, inv.ID); !errors.Is(err, domain.ErrInvitationNotPending) {
		t.Fatalf("expected ErrInvitationNotPending on a terminal row, got %v", err)
	}
}

func TestRevokeRequiresAdmin(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)
	inv := f.invite(t, "dana@example.com")

	member := principaldomain.Principal{
		UserID:   f.node.Generate(),
		OrgID:    f.orgID,
		Role:     principaldomain.RoleUser,
		IsActive: true,
	}
	_, err := f.svc.Revoke(context.Background(), member, f.orgID, inv.ID)
	if !errors.Is(err, access.ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole, got %v", err)
	}
	if got := f.reload(t, inv.ID); got.Status != domain.StatusPending {
		t.Fatalf("a denied revoke must leave the row PENDING, got %s", got.Status)
	}
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)
	f.invite(t, "dana@example.com")
	f.invite(t, "erin@example.com")

	accepted := f.invite(t, "gail@example.com")
	if _, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      accepted.Token,
		ExternalID: "idp|gail",
	}); err != nil {
		t.Fatalf("failed to accept: %v", err)
	}

	f.clock.Advance(8 * 24 * time.Hour)

	count, err := f.svc.SweepExpired(context.Background(), f.clock.Now())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 transitioned rows, got %d", count)
	}

	count, err = f.svc.SweepExpired(context.Background(), f.clock.Now())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("a repeated sweep must transition nothing, got %d", count)
	}

	if got := f.reload(t, accepted.ID); got.Status != domain.StatusAccepted {
		t.Fatalf("sweep must not touch ACCEPTED rows, got %s", got.Status)
	}
}

func TestStatsSweepsBeforeCounting(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)

	overdue := f.invite(t, "dana@example.com")
	accepted := f.invite(t, "erin@example.com")
	if _, err := f.svc.Accept(context.Background(), domain.AcceptInvitationRequest{
		Token:      accepted.Token,
		ExternalID: "idp|erin",
	}); err != nil {
		t.Fatalf("failed to accept: %v", err)
	}

	f.clock.Advance(8 * 24 * time.Hour)
	f.invite(t, "gail@example.com")

	stats, err := f.svc.Stats(context.Background(), f.orgID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.ByStatus[domain.StatusExpired] != 1 {
		t.Fatalf("expected the overdue row counted as EXPIRED, got %+v", stats.ByStatus)
	}
	if stats.ByStatus[domain.StatusPending] != 1 {
		t.Fatalf("expected 1 PENDING row, got %+v", stats.ByStatus)
	}
	if stats.ByStatus[domain.StatusAccepted] != 1 {
		t.Fatalf("expected 1 ACCEPTED row, got %+v", stats.ByStatus)
	}
	if got := f.reload(t, overdue.ID); got.Status != domain.StatusExpired {
		t.Fatalf("stats read must settle overdue rows, got %s", got.Status)
	}
	if stats.RecentCreated != 1 {
		t.Fatalf("only the invitation created inside the 7 day window counts, got %d", stats.RecentCreated)
	}

	want := 1.0 / 3.0
	if stats.AcceptedRate != want {
		t.Fatalf("expected accepted rate %v, got %v", want, stats.AcceptedRate)
	}
}

func TestStatsExpiringSoonWindow(t *testing.T) {
	f := newFixture(t, plandomain.Unlimited)

	// Expires in 7 days, outside the 3 day window.
	f.invite(t, "dana@example.com")

	f.clock.Advance(5 * 24 * time.Hour)
	// Now 2 days out, inside the window. The newer invitation still has
	// its full 7 days left.
	f.invite(t, "erin@example.com")

	stats, err := f.svc.Stats(context.Background(), f.orgID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.ExpiringSoon != 1 {
		t.Fatalf("expected 1 expiring soon, got %d", stats.ExpiringSoon)
	}
}
