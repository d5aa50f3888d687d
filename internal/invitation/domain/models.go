// Package domain contains persistence models for invitations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	principaldomain "github.com/invobase/invobase/internal/principal/domain"
)

// Status is the invitation lifecycle state. PENDING is the only
// non-terminal state: once an invitation leaves it, it never moves again.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusExpired  Status = "EXPIRED"
	StatusRevoked  Status = "REVOKED"
)

// Terminal reports whether s admits no further transition.
func (s Status) Terminal() bool { return s != StatusPending }

// Invitation invites an email address into an organization under a role.
// ExpiresAt is fixed at creation and never extended.
type Invitation struct {
	ID         snowflake.ID         `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID         `gorm:"not null;index" json:"org_id"`
	Email      string               `gorm:"type:text;not null" json:"email"`
	Role       principaldomain.Role `gorm:"type:text;not null" json:"role"`
	Token      string               `gorm:"type:text;not null;uniqueIndex:ux_invitations_token" json:"-"`
	Status     Status               `gorm:"type:text;not null;index" json:"status"`
	InvitedBy  snowflake.ID         `gorm:"not null" json:"invited_by"`
	InvitedAt  time.Time            `gorm:"not null" json:"invited_at"`
	ExpiresAt  time.Time            `gorm:"not null;index" json:"expires_at"`
	AcceptedAt *time.Time           `gorm:"" json:"accepted_at,omitempty"`
	CreatedAt  time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invitation) TableName() string { return "invitations" }
