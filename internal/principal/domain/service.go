package domain

import (
	"context"
	"errors"
)

// Service maps a verified identity-provider subject to a Principal.
//
// ErrUnauthenticated means the token carried no usable identity.
// ErrNotProvisioned means the identity is valid upstream but has no
// internal user record (or no organization binding) yet; callers must
// send the actor to provisioning, not treat this as a hard denial.
type Service interface {
	Resolve(ctx context.Context, externalID string) (*Principal, error)
}

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotProvisioned  = errors.New("account_not_provisioned")
	ErrUserNotFound    = errors.New("user_not_found")
)
