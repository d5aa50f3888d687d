package quota

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/invobase/invobase/internal/audit/domain"
	"github.com/invobase/invobase/internal/observability/metrics"
	organizationdomain "github.com/invobase/invobase/internal/organization/domain"
	plandomain "github.com/invobase/invobase/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service decides whether one more unit of a resource fits the tenant's
// plan.
type Service interface {
	// Reserve decides against a caller-supplied count, for callers that
	// already hold the count inside their transaction.
	Reserve(ctx context.Context, orgID snowflake.ID, kind ResourceKind, currentCount int64) (Decision, error)
	// ReserveTx computes the live tenant-scoped count on tx and decides.
	// The caller must perform the guarded insert on the same tx.
	ReserveTx(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, kind ResourceKind) (Decision, error)
	// LiveCount returns the tenant-scoped count of kind at call time.
	LiveCount(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, kind ResourceKind) (int64, error)
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	auditSvc auditdomain.Service
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("quota.service"),
		auditSvc: p.AuditSvc,
	}
}

// countTables maps resource kinds to their tenant-scoped tables. Counts
// are always computed live: cached counters drift under concurrent
// deletions elsewhere.
var countTables = map[ResourceKind]string{
	ResourceUsers:     "users",
	ResourceInvoices:  "invoices",
	ResourceCustomers: "customers",
	ResourceExpenses:  "expenses",
}

func (s *ServiceImpl) Reserve(ctx context.Context, orgID snowflake.ID, kind ResourceKind, currentCount int64) (Decision, error) {
	limit, err := s.limitFor(ctx, s.db, orgID, kind)
	if err != nil {
		return Decision{}, err
	}
	decision := decide(limit, currentCount)
	if !decision.Allowed {
		s.auditDenied(ctx, orgID, kind, decision)
	}
	return decision, nil
}

func (s *ServiceImpl) ReserveTx(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, kind ResourceKind) (Decision, error) {
	limit, err := s.limitFor(ctx, tx, orgID, kind)
	if err != nil {
		return Decision{}, err
	}
	current, err := s.LiveCount(ctx, tx, orgID, kind)
	if err != nil {
		return Decision{}, err
	}
	decision := decide(limit, current)
	if !decision.Allowed {
		s.auditDenied(ctx, orgID, kind, decision)
	}
	return decision, nil
}

func (s *ServiceImpl) LiveCount(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, kind ResourceKind) (int64, error) {
	table, ok := countTables[kind]
	if !ok {
		return 0, ErrUnknownResource
	}
	var count int64
	err := tx.WithContext(ctx).Table(table).Where("org_id = ?", orgID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *ServiceImpl) limitFor(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, kind ResourceKind) (int64, error) {
	if !kind.Valid() {
		return 0, ErrUnknownResource
	}

	var row struct {
		MaxUsers     int64 `gorm:"column:max_users"`
		MaxInvoices  int64 `gorm:"column:max_invoices"`
		MaxCustomers int64 `gorm:"column:max_customers"`
		MaxExpenses  int64 `gorm:"column:max_expenses"`
	}
	res := tx.WithContext(ctx).Raw(
		`SELECT p.max_users, p.max_invoices, p.max_customers, p.max_expenses
		 FROM organizations o
		 JOIN subscription_plans p ON p.id = o.plan_id
		 WHERE o.id = ?`,
		orgID,
	).Scan(&row)
	if res.Error != nil {
		return 0, res.Error
	}
	// Scan on zero rows is not an error; it just leaves the struct empty.
	if res.RowsAffected == 0 {
		return 0, organizationdomain.ErrOrganizationNotFound
	}

	switch kind {
	case ResourceUsers:
		return row.MaxUsers, nil
	case ResourceInvoices:
		return row.MaxInvoices, nil
	case ResourceCustomers:
		return row.MaxCustomers, nil
	case ResourceExpenses:
		return row.MaxExpenses, nil
	default:
		return 0, ErrUnknownResource
	}
}

func decide(limit, current int64) Decision {
	if limit == plandomain.Unlimited {
		return Decision{Allowed: true, Unlimited: true, Limit: limit, Current: current}
	}
	if current >= limit {
		return Decision{Allowed: false, Limit: limit, Current: current}
	}
	// Remaining after the reservation being requested.
	return Decision{Allowed: true, Limit: limit, Current: current, Remaining: limit - current - 1}
}

func (s *ServiceImpl) auditDenied(ctx context.Context, orgID snowflake.ID, kind ResourceKind, decision Decision) {
	metrics.Lifecycle().RecordQuotaDenial(string(kind))
	if s.auditSvc == nil {
		return
	}
	target := string(kind)
	if err := s.auditSvc.Record(ctx, &orgID, nil, "quota.reserve", "quota", &target, auditdomain.OutcomeDeny, "quota_exceeded", map[string]any{
		"limit":   decision.Limit,
		"current": decision.Current,
	}); err != nil {
		s.log.Warn("failed to audit quota denial", zap.String("resource", string(kind)), zap.Error(err))
	}
}
