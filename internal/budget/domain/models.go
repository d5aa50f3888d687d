// Package domain contains persistence models for spending budgets.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ExpenseCategory groups expenses for budgeting. Names are unique per
// organization.
type ExpenseCategory struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;uniqueIndex:ux_expense_categories_org_name" json:"org_id"`
	Name      string       `gorm:"type:text;not null;uniqueIndex:ux_expense_categories_org_name" json:"name"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ExpenseCategory) TableName() string { return "expense_categories" }

// Budget is a per-user monthly spending ceiling for one category. A user
// holds at most one budget per category.
type Budget struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index" json:"org_id"`
	UserID      snowflake.ID `gorm:"not null;uniqueIndex:ux_budgets_user_category" json:"user_id"`
	CategoryID  snowflake.ID `gorm:"not null;uniqueIndex:ux_budgets_user_category" json:"category_id"`
	AmountCents int64        `gorm:"not null" json:"amount_cents"`
	Currency    string       `gorm:"type:text;not null;default:'USD'" json:"currency"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Budget) TableName() string { return "budgets" }
