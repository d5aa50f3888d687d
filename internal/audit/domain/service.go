package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/pkg/db/pagination"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action  string
	Outcome Outcome
	StartAt *time.Time
	EndAt   *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

// Service records decisions and invitation transitions. Record must
// never fail the originating request: callers log and continue when it
// errors.
type Service interface {
	Record(ctx context.Context, orgID *snowflake.ID, actorID *string, action string, targetType string, targetID *string, outcome Outcome, reason string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, entry *AuditLog) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrInvalidTimeRange    = errors.New("invalid_time_range")
	ErrInvalidAction       = errors.New("invalid_action")
)
