package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/invobase/invobase/internal/audit/domain"
	"github.com/invobase/invobase/internal/organization/domain"
	"github.com/invobase/invobase/internal/organization/repository"
	plandomain "github.com/invobase/invobase/internal/plan/domain"
	"go.uber.org/zap"
)

type service struct {
	repo     repository.Repository
	planSvc  plandomain.Service
	auditSvc auditdomain.Service
	log      *zap.Logger
	genID    *snowflake.Node
}

func NewService(repo repository.Repository, planSvc plandomain.Service, auditSvc auditdomain.Service, log *zap.Logger, genID *snowflake.Node) domain.Service {
	return &service{
		repo:     repo,
		planSvc:  planSvc,
		auditSvc: auditSvc,
		log:      log.Named("organization.service"),
		genID:    genID,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateOrganizationRequest) (*domain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	plan, err := s.planSvc.GetBySlug(ctx, req.PlanSlug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		Status:    domain.StatusActive,
		PlanID:    plan.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	orgID, err := parseOrgID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, orgID)
}

func (s *service) List(ctx context.Context) ([]domain.Organization, error) {
	return s.repo.List(ctx)
}

func (s *service) ChangeStatus(ctx context.Context, id string, next domain.Status) (*domain.Organization, error) {
	switch next {
	case domain.StatusActive, domain.StatusSuspended, domain.StatusDeleted:
	default:
		return nil, domain.ErrInvalidStatus
	}

	orgID, err := parseOrgID(id)
	if err != nil {
		return nil, err
	}

	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.Status.CanTransition(next) {
		return nil, domain.ErrInvalidTransition
	}

	// CAS guards against a concurrent status change between read and write.
	updated, err := s.repo.UpdateStatus(ctx, orgID, org.Status, next)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrInvalidTransition
	}

	s.auditTransition(ctx, org, next)

	org.Status = next
	return org, nil
}

func (s *service) auditTransition(ctx context.Context, org *domain.Organization, next domain.Status) {
	if s.auditSvc == nil {
		return
	}
	targetID := org.ID.String()
	if err := s.auditSvc.Record(ctx, &org.ID, nil, "organization.status_changed", "organization", &targetID, auditdomain.OutcomeOK, "", map[string]any{
		"from": string(org.Status),
		"to":   string(next),
	}); err != nil {
		s.log.Warn("failed to audit status change", zap.Error(err))
	}
}

func parseOrgID(id string) (snowflake.ID, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}
