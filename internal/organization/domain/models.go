// Package domain contains persistence models for organizations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the lifecycle state of a tenant.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusDeleted   Status = "DELETED"
)

// CanTransition reports whether moving from s to next is allowed.
// ACTIVE and SUSPENDED flip freely between each other and either may be
// deleted; DELETED is terminal.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return false
	}
	switch s {
	case StatusActive:
		return next == StatusSuspended || next == StatusDeleted
	case StatusSuspended:
		return next == StatusActive || next == StatusDeleted
	case StatusDeleted:
		return false
	default:
		return false
	}
}

// Organization represents a tenant. It is the isolation boundary: users,
// invitations, and budgets are owned by exactly one organization.
type Organization struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	Status    Status       `gorm:"type:text;not null;default:'ACTIVE'" json:"status"`
	PlanID    snowflake.ID `gorm:"not null;index" json:"plan_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }
