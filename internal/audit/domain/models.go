// Package domain contains the append-only decision log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Outcome classifies what the recorded decision or transition did.
type Outcome string

const (
	OutcomeOK   Outcome = "ok"
	OutcomeDeny Outcome = "deny"
)

// AuditLog is one immutable entry. There is no update or delete path:
// the repository only inserts and reads.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID      *snowflake.ID     `gorm:"index" json:"org_id,omitempty"`
	ActorID    *string           `gorm:"type:text" json:"actor_id,omitempty"`
	Action     string            `gorm:"type:text;not null" json:"action"`
	TargetType string            `gorm:"type:text;not null" json:"target_type"`
	TargetID   *string           `gorm:"type:text" json:"target_id,omitempty"`
	Outcome    Outcome           `gorm:"type:text;not null" json:"outcome"`
	Reason     string            `gorm:"type:text" json:"reason,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

// AuditCursor is the keyset position for paging the log.
type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

// ListFilter narrows a log read. OrgID is mandatory: the log is always
// read within one tenant.
type ListFilter struct {
	OrgID   snowflake.ID
	Action  string
	Outcome Outcome
	StartAt *time.Time
	EndAt   *time.Time
	Cursor  *AuditCursor
	Limit   int
}
