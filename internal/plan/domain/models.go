// Package domain contains persistence models for subscription plans.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Unlimited is the sentinel limit value meaning no ceiling.
const Unlimited int64 = -1

// SubscriptionPlan defines the resource ceilings and feature flags an
// organization buys into. Plans are shared: many organizations reference
// one plan and none owns it.
type SubscriptionPlan struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Slug         string            `gorm:"type:text;not null;uniqueIndex:ux_plans_slug" json:"slug"`
	Name         string            `gorm:"type:text;not null" json:"name"`
	// No column defaults on the limit and visibility fields: gorm skips
	// zero values for defaulted columns on insert, which would turn a
	// limit of 0 into -1 and is_public=false into true.
	MaxUsers     int64             `gorm:"not null" json:"max_users"`
	MaxInvoices  int64             `gorm:"not null" json:"max_invoices"`
	MaxCustomers int64             `gorm:"not null" json:"max_customers"`
	MaxExpenses  int64             `gorm:"not null" json:"max_expenses"`
	Features     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"features"`
	IsActive     bool              `gorm:"not null" json:"is_active"`
	IsPublic     bool              `gorm:"not null" json:"is_public"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (SubscriptionPlan) TableName() string { return "subscription_plans" }

// HasFeature reports whether the named feature flag is enabled.
func (p SubscriptionPlan) HasFeature(code string) bool {
	raw, ok := p.Features[code]
	if !ok {
		return false
	}
	enabled, ok := raw.(bool)
	return ok && enabled
}
