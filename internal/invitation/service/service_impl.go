package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/invobase/invobase/internal/access"
	auditdomain "github.com/invobase/invobase/internal/audit/domain"
	"github.com/invobase/invobase/internal/clock"
	"github.com/invobase/invobase/internal/config"
	"github.com/invobase/invobase/internal/invitation/domain"
	"github.com/invobase/invobase/internal/observability/metrics"
	organizationdomain "github.com/invobase/invobase/internal/organization/domain"
	organizationrepo "github.com/invobase/invobase/internal/organization/repository"
	principaldomain "github.com/invobase/invobase/internal/principal/domain"
	principalrepo "github.com/invobase/invobase/internal/principal/repository"
	"github.com/invobase/invobase/internal/quota"
	"github.com/invobase/invobase/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errAcceptLost signals that the accept transaction lost the row to a
// concurrent transition. Resolved to a caller-facing error after re-read.
var errAcceptLost = errors.New("accept_lost_race")

type Params struct {
	fx.In

	Log     *zap.Logger
	DB      *gorm.DB
	GenID   *snowflake.Node
	Clock   clock.Clock
	Policy  *config.PolicyHolder
	Repo    domain.Repository
	OrgRepo organizationrepo.Repository
	Users   principalrepo.Repository
	Access  access.Service
	Quota   quota.Service
	Audit   auditdomain.Service
}

type ServiceImpl struct {
	log      *zap.Logger
	db       *gorm.DB
	genID    *snowflake.Node
	clock    clock.Clock
	policy   *config.PolicyHolder
	repo     domain.Repository
	orgRepo  organizationrepo.Repository
	users    principalrepo.Repository
	access   access.Service
	quota    quota.Service
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &ServiceImpl{
		log:      p.Log.Named("invitation.service"),
		db:       p.DB,
		genID:    p.GenID,
		clock:    p.Clock,
		policy:   p.Policy,
		repo:     p.Repo,
		orgRepo:  p.OrgRepo,
		users:    p.Users,
		access:   p.Access,
		quota:    p.Quota,
		auditSvc: p.Audit,
	}
}

func (s *ServiceImpl) Create(ctx context.Context, req domain.CreateInvitationRequest) (*domain.Invitation, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if !req.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	org, err := s.orgRepo.GetByID(ctx, req.OrgID)
	if err != nil {
		return nil, err
	}
	if org.Status != organizationdomain.StatusActive {
		return nil, organizationdomain.ErrOrganizationSuspended
	}

	now := s.clock.Now().UTC()
	pending, err := s.repo.FindPending(ctx, req.OrgID, email)
	if err != nil {
		return nil, db.AsTransient(err)
	}
	if pending != nil {
		if now.Before(pending.ExpiresAt) {
			return nil, domain.ErrDuplicatePending
		}
		// The unique index covers every PENDING row regardless of expiry,
		// so an overdue one must be settled before the insert can land.
		s.expireNow(ctx, pending, now)
	}

	ttl := time.Duration(s.policy.Get().TTLDays) * 24 * time.Hour
	inv := domain.Invitation{
		ID:        s.genID.Generate(),
		OrgID:     req.OrgID,
		Email:     email,
		Role:      req.Role,
		Token:     uuid.NewString(),
		Status:    domain.StatusPending,
		InvitedBy: req.InvitedBy,
		InvitedAt: now,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &inv); err != nil {
		// The partial unique index on (org_id, email) for PENDING rows
		// closes the check-then-insert race.
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicatePending
		}
		return nil, db.AsTransient(err)
	}

	metrics.Lifecycle().RecordInvitationTransition(string(domain.StatusPending))
	s.audit(ctx, inv.OrgID, nil, "invitation.create", inv.ID, auditdomain.OutcomeOK, "", map[string]any{
		"email": email,
		"role":  string(req.Role),
	})
	return &inv, nil
}

func (s *ServiceImpl) GetByID(ctx context.Context, orgID, id snowflake.ID) (*domain.Invitation, error) {
	return s.repo.GetByID(ctx, orgID, id)
}

func (s *ServiceImpl) List(ctx context.Context, orgID snowflake.ID, status *domain.Status) ([]domain.Invitation, error) {
	return s.repo.List(ctx, orgID, status)
}

// Accept transitions the invitation to ACCEPTED and binds the accepting
// identity to the invited organization. The seat reservation, the status
// compare-and-set and the user write share one transaction so a quota
// failure leaves the invitation PENDING.
func (s *ServiceImpl) Accept(ctx context.Context, req domain.AcceptInvitationRequest) (*principaldomain.User, error) {
	inv, err := s.repo.GetByToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	// The invitation's address is authoritative; a supplied one is only a
	// confirmation.
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != inv.Email {
		return nil, domain.ErrInvalidEmail
	}
	now := s.clock.Now().UTC()

	if inv.Status.Terminal() {
		if inv.Status == domain.StatusExpired {
			return nil, domain.ErrInvitationExpired
		}
		return nil, domain.ErrInvitationNotPending
	}
	if !now.Before(inv.ExpiresAt) {
		// Settle the row the way the sweep would. The expiry write stays
		// outside the accept path so returning the error cannot undo it.
		s.expireNow(ctx, inv, now)
		return nil, domain.ErrInvitationExpired
	}

	org, err := s.orgRepo.GetByID(ctx, inv.OrgID)
	if err != nil {
		return nil, err
	}
	if org.Status != organizationdomain.StatusActive {
		return nil, organizationdomain.ErrOrganizationSuspended
	}

	existing, err := s.users.GetByExternalID(ctx, req.ExternalID)
	if err != nil && !errors.Is(err, principaldomain.ErrUserNotFound) {
		return nil, db.AsTransient(err)
	}
	if existing != nil && existing.OrgID != nil {
		return nil, domain.ErrIdentityAlreadyBound
	}

	var user *principaldomain.User
	err = db.Retry(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			decision, err := s.quota.ReserveTx(ctx, tx, inv.OrgID, quota.ResourceUsers)
			if err != nil {
				return err
			}
			if !decision.Allowed {
				return decision.Err()
			}

			moved, err := s.repo.WithTx(tx).MarkAccepted(ctx, inv.ID, now)
			if err != nil {
				return db.AsTransient(err)
			}
			if !moved {
				return errAcceptLost
			}

			user, err = s.bindUser(ctx, tx, existing, inv, req, now)
			return err
		})
	})
	if errors.Is(err, errAcceptLost) {
		return nil, s.resolveLostAccept(ctx, inv.OrgID, inv.ID)
	}
	if err != nil {
		return nil, err
	}

	metrics.Lifecycle().RecordInvitationTransition(string(domain.StatusAccepted))
	actor := user.ID.String()
	s.audit(ctx, inv.OrgID, &actor, "invitation.accept", inv.ID, auditdomain.OutcomeOK, "", map[string]any{
		"email": inv.Email,
		"role":  string(inv.Role),
	})
	return user, nil
}

func (s *ServiceImpl) bindUser(ctx context.Context, tx *gorm.DB, existing *principaldomain.User, inv *domain.Invitation, req domain.AcceptInvitationRequest, now time.Time) (*principaldomain.User, error) {
	users := s.users.WithTx(tx)
	if existing != nil {
		bound, err := users.BindOrganization(ctx, existing.ID, inv.OrgID, inv.Role, now)
		if err != nil {
			return nil, db.AsTransient(err)
		}
		if !bound {
			return nil, domain.ErrIdentityAlreadyBound
		}
		orgID := inv.OrgID
		existing.OrgID = &orgID
		existing.Role = inv.Role
		existing.IsActive = true
		return existing, nil
	}

	orgID := inv.OrgID
	user := principaldomain.User{
		ID:         s.genID.Generate(),
		ExternalID: req.ExternalID,
		Email:      inv.Email,
		OrgID:      &orgID,
		Role:       inv.Role,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := users.Create(ctx, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrIdentityAlreadyBound
		}
		return nil, db.AsTransient(err)
	}
	return &user, nil
}

// resolveLostAccept re-reads the row to tell the caller which concurrent
// transition won.
func (s *ServiceImpl) resolveLostAccept(ctx context.Context, orgID, id snowflake.ID) error {
	inv, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return domain.ErrInvitationNotPending
	}
	if inv.Status == domain.StatusExpired {
		return domain.ErrInvitationExpired
	}
	return domain.ErrInvitationNotPending
}

func (s *ServiceImpl) expireNow(ctx context.Context, inv *domain.Invitation, now time.Time) {
	moved, err := s.repo.MarkExpired(ctx, inv.ID, now)
	if err != nil {
		s.log.Warn("failed to settle overdue invitation", zap.Int64("invitation_id", int64(inv.ID)), zap.Error(err))
		return
	}
	if moved {
		metrics.Lifecycle().RecordInvitationTransition(string(domain.StatusExpired))
		s.audit(ctx, inv.OrgID, nil, "invitation.expire", inv.ID, auditdomain.OutcomeOK, "", nil)
	}
}

func (s *ServiceImpl) Revoke(ctx context.Context, actor principaldomain.Principal, orgID, id snowflake.ID) (*domain.Invitation, error) {
	decision, err := s.access.Check(ctx, actor, access.CapabilityInvitationRevoke, orgID)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}

	inv, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status.Terminal() {
		return nil, domain.ErrInvitationNotPending
	}

	now := s.clock.Now().UTC()
	moved, err := s.repo.MarkRevoked(ctx, id, now)
	if err != nil {
		return nil, db.AsTransient(err)
	}
	if !moved {
		return nil, domain.ErrInvitationNotPending
	}

	inv.Status = domain.StatusRevoked
	inv.UpdatedAt = now
	metrics.Lifecycle().RecordInvitationTransition(string(domain.StatusRevoked))
	actorID := actor.UserID.String()
	s.audit(ctx, orgID, &actorID, "invitation.revoke", id, auditdomain.OutcomeOK, "", map[string]any{
		"email": inv.Email,
	})
	return inv, nil
}

func (s *ServiceImpl) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	started := s.clock.Now()
	count, err := s.repo.SweepExpired(ctx, now.UTC())
	if err != nil {
		return 0, db.AsTransient(err)
	}
	metrics.Lifecycle().RecordSweep(count, s.clock.Now().Sub(started))
	if count > 0 {
		for i := int64(0); i < count; i++ {
			metrics.Lifecycle().RecordInvitationTransition(string(domain.StatusExpired))
		}
		s.log.Info("invitation sweep transitioned rows", zap.Int64("count", count))
	}
	return count, nil
}

func (s *ServiceImpl) Stats(ctx context.Context, orgID snowflake.ID) (*domain.Stats, error) {
	stats, err := s.stats(ctx, &orgID)
	if err != nil {
		return nil, err
	}
	stats.OrgID = orgID
	return stats, nil
}

func (s *ServiceImpl) GlobalStats(ctx context.Context) (*domain.Stats, error) {
	return s.stats(ctx, nil)
}

func (s *ServiceImpl) stats(ctx context.Context, orgID *snowflake.ID) (*domain.Stats, error) {
	policy := s.policy.Get()
	now := s.clock.Now().UTC()

	if policy.SweepOnStatsRead {
		if _, err := s.SweepExpired(ctx, now); err != nil {
			return nil, err
		}
	}

	counts, err := s.repo.CountByStatus(ctx, orgID)
	if err != nil {
		return nil, db.AsTransient(err)
	}
	window := time.Duration(policy.ExpiringSoonDays) * 24 * time.Hour
	soon, err := s.repo.CountExpiringSoon(ctx, orgID, now, window)
	if err != nil {
		return nil, db.AsTransient(err)
	}
	recent, err := s.repo.CountCreatedSince(ctx, orgID, now.Add(-time.Duration(policy.RecentWindowDays)*24*time.Hour))
	if err != nil {
		return nil, db.AsTransient(err)
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	rate := 0.0
	if total > 0 {
		rate = float64(counts[domain.StatusAccepted]) / float64(total)
	}
	return &domain.Stats{
		ByStatus:      counts,
		ExpiringSoon:  soon,
		RecentCreated: recent,
		AcceptedRate:  rate,
	}, nil
}

func (s *ServiceImpl) audit(ctx context.Context, orgID snowflake.ID, actorID *string, action string, targetID snowflake.ID, outcome auditdomain.Outcome, reason string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	target := targetID.String()
	if err := s.auditSvc.Record(ctx, &orgID, actorID, action, "invitation", &target, outcome, reason, metadata); err != nil {
		s.log.Warn("failed to audit invitation transition", zap.String("action", action), zap.Error(err))
	}
}
