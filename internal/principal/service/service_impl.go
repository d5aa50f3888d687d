package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/clock"
	"github.com/invobase/invobase/internal/principal/domain"
	"github.com/invobase/invobase/internal/principal/repository"
	"go.uber.org/zap"
)

type service struct {
	repo  repository.Repository
	clock clock.Clock
	log   *zap.Logger
}

func NewService(repo repository.Repository, clk clock.Clock, log *zap.Logger) domain.Service {
	return &service{
		repo:  repo,
		clock: clk,
		log:   log.Named("principal.service"),
	}
}

func (s *service) Resolve(ctx context.Context, externalID string) (*domain.Principal, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			// Verified upstream but never provisioned locally.
			return nil, domain.ErrNotProvisioned
		}
		return nil, err
	}
	var orgID snowflake.ID
	switch {
	case user.OrgID != nil && *user.OrgID != 0:
		orgID = *user.OrgID
	case user.IsSuperuser:
		// Platform operators are not bound to a tenant.
	default:
		// Account exists but has not finished setup.
		return nil, domain.ErrNotProvisioned
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID, s.clock.Now()); err != nil {
		s.log.Warn("failed to touch last login", zap.Error(err))
	}

	return &domain.Principal{
		UserID:      user.ID,
		OrgID:       orgID,
		Role:        user.Role,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
	}, nil
}
