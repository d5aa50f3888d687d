package access

import (
	"context"
	_ "embed"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/invobase/invobase/internal/audit/domain"
	"github.com/invobase/invobase/internal/observability/metrics"
	principaldomain "github.com/invobase/invobase/internal/principal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

// Service is the per-tenant access gate plus the separate superuser gate.
type Service interface {
	// Check evaluates the ordered tenant rules and returns a decision.
	// Only infrastructure failures surface as errors; a denial is a
	// valid decision, not an error.
	Check(ctx context.Context, p principaldomain.Principal, capability Capability, targetOrgID snowflake.ID) (Decision, error)
	// CheckSuper evaluates a platform-administrator capability against
	// the superuser flag, ignoring organization membership.
	CheckSuper(ctx context.Context, p principaldomain.Principal, capability SuperCapability) Decision
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

// NewEnforcer builds the casbin enforcer backed by the shared database
// and seeds the role policy matrix.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("access.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

// Check applies the tenant rules in order, first match wins:
// cross-tenant, inactive account, admin-only role, accountant-restricted
// set, then the seeded role policy.
func (s *ServiceImpl) Check(ctx context.Context, p principaldomain.Principal, capability Capability, targetOrgID snowflake.ID) (Decision, error) {
	// No exception for ADMIN: cross-tenant work goes through the
	// superuser gate or not at all.
	if p.OrgID != targetOrgID {
		return s.deny(ctx, p, string(capability), targetOrgID, ReasonCrossTenant), nil
	}

	if !p.IsActive {
		return s.deny(ctx, p, string(capability), targetOrgID, ReasonAccountInactive), nil
	}

	switch p.Role {
	case principaldomain.RoleAdmin, principaldomain.RoleUser, principaldomain.RoleAccountant:
	default:
		// Unknown role fails closed.
		return s.deny(ctx, p, string(capability), targetOrgID, ReasonInsufficientRole), nil
	}

	if capability.RequiresAdmin() && p.Role != principaldomain.RoleAdmin {
		return s.deny(ctx, p, string(capability), targetOrgID, ReasonInsufficientRole), nil
	}

	if capability.AccountantRestricted() && p.Role == principaldomain.RoleAccountant {
		return s.deny(ctx, p, string(capability), targetOrgID, ReasonRoleForbidden), nil
	}

	subject := roleSubject(p.Role)
	domain := "org:" + targetOrgID.String()
	if err := s.ensureGrouping(subject, domain); err != nil {
		return Decision{}, err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, capability.Object(), capability.Action())
	if err != nil {
		return Decision{}, err
	}
	if !allowed {
		return s.deny(ctx, p, string(capability), targetOrgID, ReasonInsufficientRole), nil
	}

	return Allow(), nil
}

func (s *ServiceImpl) CheckSuper(ctx context.Context, p principaldomain.Principal, capability SuperCapability) Decision {
	if !p.IsActive {
		return s.deny(ctx, p, string(capability), 0, ReasonAccountInactive)
	}
	if !p.IsSuperuser {
		return s.deny(ctx, p, string(capability), 0, ReasonInsufficientRole)
	}
	return Allow()
}

func (s *ServiceImpl) ensureGrouping(subject string, domain string) error {
	has, err := s.enforcer.HasGroupingPolicy(subject, subject, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, subject, domain)
	return err
}

// deny records the denial on the decision log before returning it.
// Audit failures are swallowed: logging a denial must never fail the
// request that triggered it.
func (s *ServiceImpl) deny(ctx context.Context, p principaldomain.Principal, capability string, targetOrgID snowflake.ID, reason Reason) Decision {
	metrics.Lifecycle().RecordAccessDenial(string(reason))
	if s.auditSvc != nil {
		actorID := p.UserID.String()
		var orgID *snowflake.ID
		if targetOrgID != 0 {
			orgID = &targetOrgID
		}
		if err := s.auditSvc.Record(ctx, orgID, &actorID, capability, "capability", nil, auditdomain.OutcomeDeny, string(reason), map[string]any{
			"role":          string(p.Role),
			"principal_org": p.OrgID.String(),
		}); err != nil {
			s.log.Warn("failed to audit denial",
				zap.String("capability", capability),
				zap.Error(err),
			)
		}
	}
	return Deny(reason)
}

func roleSubject(role principaldomain.Role) string {
	return "role:" + strings.ToLower(string(role))
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	for _, capability := range All() {
		grantees := []principaldomain.Role{principaldomain.RoleAdmin}
		if !capability.RequiresAdmin() {
			grantees = append(grantees, principaldomain.RoleUser)
			if !capability.AccountantRestricted() {
				grantees = append(grantees, principaldomain.RoleAccountant)
			}
		}
		for _, role := range grantees {
			if _, err := enforcer.AddPolicy(roleSubject(role), capability.Object(), capability.Action()); err != nil {
				return err
			}
		}
	}
	return nil
}
