package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(ctx context.Context, req CreateOrganizationRequest) (*Organization, error)
	GetByID(ctx context.Context, id string) (*Organization, error)

	// List and ChangeStatus are platform-administrator operations and
	// must be guarded by the superuser gate, never the per-tenant one.
	List(ctx context.Context) ([]Organization, error)
	ChangeStatus(ctx context.Context, id string, next Status) (*Organization, error)
}

type CreateOrganizationRequest struct {
	Name     string `json:"name"`
	PlanSlug string `json:"plan_slug"`
}

var (
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidOrganization   = errors.New("invalid_organization")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrInvalidTransition     = errors.New("invalid_status_transition")
	ErrOrganizationNotFound  = errors.New("organization_not_found")
	ErrOrganizationSuspended = errors.New("organization_suspended")
)
