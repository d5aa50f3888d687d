// Package domain contains the user record and the resolved principal.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role is the closed set of per-organization roles. The access gate
// switches exhaustively on it so a new role fails closed until every
// call site is revisited.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleUser       Role = "USER"
	RoleAccountant Role = "ACCOUNTANT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleAccountant:
		return true
	default:
		return false
	}
}

// User is an internal account bound to exactly one organization for its
// lifetime. ExternalID references the identity-provider subject.
type User struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	ExternalID  string        `gorm:"type:text;not null;uniqueIndex:ux_users_external_id" json:"external_id"`
	Email       string        `gorm:"type:text;not null;index" json:"email"`
	OrgID       *snowflake.ID `gorm:"index" json:"org_id,omitempty"`
	Role        Role          `gorm:"type:text;not null;default:'USER'" json:"role"`
	// No column default: gorm skips zero values for defaulted columns on
	// insert, so a default of true would make false unstorable.
	IsActive    bool          `gorm:"not null" json:"is_active"`
	IsSuperuser bool          `gorm:"not null;default:false" json:"is_superuser"`
	LastLoginAt *time.Time    `gorm:"" json:"last_login_at,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Principal is an authenticated actor with its organization binding
// resolved. An inactive user still resolves; downstream gates deny it.
type Principal struct {
	UserID      snowflake.ID `json:"user_id"`
	OrgID       snowflake.ID `json:"org_id"`
	Role        Role         `json:"role"`
	IsActive    bool         `json:"is_active"`
	IsSuperuser bool         `json:"is_superuser"`
}
