package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	principaldomain "github.com/invobase/invobase/internal/principal/domain"
	"gorm.io/gorm"
)

var (
	ErrInvitationNotFound   = errors.New("invitation_not_found")
	ErrInvitationExpired    = errors.New("invitation_expired")
	ErrInvitationNotPending = errors.New("invitation_not_pending")
	ErrDuplicatePending     = errors.New("duplicate_pending_invitation")
	ErrInvalidEmail         = errors.New("invalid_email")
	ErrInvalidRole          = errors.New("invalid_role")
	ErrIdentityAlreadyBound = errors.New("identity_already_bound")
)

// CreateInvitationRequest carries the inputs for issuing an invitation.
type CreateInvitationRequest struct {
	OrgID     snowflake.ID
	Email     string
	Role      principaldomain.Role
	InvitedBy snowflake.ID
}

// AcceptInvitationRequest binds an external identity to the invited
// organization when the token is still live.
type AcceptInvitationRequest struct {
	Token      string
	ExternalID string
	Email      string
}

// Stats summarizes an organization's invitations after expiry has been
// settled, so the counts never include stale PENDING rows.
type Stats struct {
	OrgID         snowflake.ID     `json:"org_id,omitempty"`
	ByStatus      map[Status]int64 `json:"by_status"`
	ExpiringSoon  int64            `json:"expiring_soon"`
	RecentCreated int64            `json:"recent_created"`
	AcceptedRate  float64          `json:"accepted_rate"`
}

// Service manages the invitation lifecycle.
type Service interface {
	Create(ctx context.Context, req CreateInvitationRequest) (*Invitation, error)
	GetByID(ctx context.Context, orgID, id snowflake.ID) (*Invitation, error)
	List(ctx context.Context, orgID snowflake.ID, status *Status) ([]Invitation, error)
	Accept(ctx context.Context, req AcceptInvitationRequest) (*principaldomain.User, error)
	Revoke(ctx context.Context, actor principaldomain.Principal, orgID, id snowflake.ID) (*Invitation, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	Stats(ctx context.Context, orgID snowflake.ID) (*Stats, error)
	GlobalStats(ctx context.Context) (*Stats, error)
}

// Repository is the persistence boundary for invitations. Mark* methods
// are compare-and-set updates guarded on the current PENDING status and
// report whether the row actually moved.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, orgID, id snowflake.ID) (*Invitation, error)
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	List(ctx context.Context, orgID snowflake.ID, status *Status) ([]Invitation, error)
	FindPending(ctx context.Context, orgID snowflake.ID, email string) (*Invitation, error)
	MarkAccepted(ctx context.Context, id snowflake.ID, now time.Time) (bool, error)
	MarkRevoked(ctx context.Context, id snowflake.ID, now time.Time) (bool, error)
	MarkExpired(ctx context.Context, id snowflake.ID, now time.Time) (bool, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	CountByStatus(ctx context.Context, orgID *snowflake.ID) (map[Status]int64, error)
	CountExpiringSoon(ctx context.Context, orgID *snowflake.ID, now time.Time, window time.Duration) (int64, error)
	CountCreatedSince(ctx context.Context, orgID *snowflake.ID, since time.Time) (int64, error)
}
