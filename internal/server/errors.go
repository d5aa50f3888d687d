package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invobase/invobase/internal/access"
	auditdomain "github.com/invobase/invobase/internal/audit/domain"
	budgetdomain "github.com/invobase/invobase/internal/budget/domain"
	invitationdomain "github.com/invobase/invobase/internal/invitation/domain"
	organizationdomain "github.com/invobase/invobase/internal/organization/domain"
	plandomain "github.com/invobase/invobase/internal/plan/domain"
	principaldomain "github.com/invobase/invobase/internal/principal/domain"
	"github.com/invobase/invobase/internal/quota"
	"github.com/invobase/invobase/pkg/db"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// mapError translates domain errors into responses. Every terminal
// reason keeps its own type string so API clients can distinguish, for
// example, an expired invitation from one that was already accepted.
func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, payload("internal_error", "internal server error")

	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, principaldomain.ErrUnauthenticated):
		return http.StatusUnauthorized, payload("unauthenticated", "authentication required")

	case errors.Is(err, principaldomain.ErrNotProvisioned):
		return http.StatusForbidden, payload("account_not_provisioned", "account is not provisioned")

	case errors.Is(err, access.ErrCrossTenant):
		return http.StatusForbidden, payload("cross_tenant", "resource belongs to another organization")
	case errors.Is(err, access.ErrAccountInactive):
		return http.StatusForbidden, payload("account_inactive", "account is deactivated")
	case errors.Is(err, access.ErrInsufficientRole):
		return http.StatusForbidden, payload("insufficient_role", "operation requires the admin role")
	case errors.Is(err, access.ErrRoleForbidden),
		errors.Is(err, ErrForbidden):
		return http.StatusForbidden, payload("role_forbidden", "role may not perform this operation")

	case errors.Is(err, quota.ErrQuotaExceeded):
		return http.StatusConflict, payload("quota_exceeded", "plan limit reached for this resource")

	case errors.Is(err, invitationdomain.ErrDuplicatePending):
		return http.StatusConflict, payload("duplicate_pending", "a pending invitation already exists for this email")
	case errors.Is(err, invitationdomain.ErrInvitationExpired):
		return http.StatusGone, payload("invitation_expired", "invitation has expired")
	case errors.Is(err, invitationdomain.ErrInvitationNotPending):
		return http.StatusConflict, payload("invitation_not_pending", "invitation was already accepted, expired, or revoked")
	case errors.Is(err, invitationdomain.ErrIdentityAlreadyBound):
		return http.StatusConflict, payload("identity_already_bound", "identity already belongs to an organization")

	case errors.Is(err, organizationdomain.ErrInvalidTransition):
		return http.StatusConflict, payload("invalid_status_transition", "organization status transition is not allowed")
	case errors.Is(err, organizationdomain.ErrOrganizationSuspended):
		return http.StatusConflict, payload("organization_suspended", "organization is not active")

	case errors.Is(err, plandomain.ErrDuplicateSlug),
		errors.Is(err, budgetdomain.ErrDuplicateCategory),
		errors.Is(err, budgetdomain.ErrDuplicateBudget):
		return http.StatusConflict, payload("conflict", "resource already exists")

	case isValidationError(err):
		return http.StatusBadRequest, payload("validation_error", err.Error())

	case isNotFoundError(err):
		return http.StatusNotFound, payload("not_found", "not found")

	case errors.Is(err, db.ErrTransient):
		return http.StatusServiceUnavailable, payload("transient_failure", "temporary store contention, retry the request")

	default:
		return http.StatusInternalServerError, payload("internal_error", "internal server error")
	}
}

func payload(errType, message string) errorPayload {
	return errorPayload{Type: errType, Message: message}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invitationdomain.ErrInvalidEmail),
		errors.Is(err, invitationdomain.ErrInvalidRole),
		errors.Is(err, organizationdomain.ErrInvalidName),
		errors.Is(err, organizationdomain.ErrInvalidStatus),
		errors.Is(err, organizationdomain.ErrInvalidOrganization),
		errors.Is(err, plandomain.ErrInvalidSlug),
		errors.Is(err, plandomain.ErrInvalidName),
		errors.Is(err, plandomain.ErrInvalidLimit),
		errors.Is(err, budgetdomain.ErrInvalidCategoryName),
		errors.Is(err, budgetdomain.ErrInvalidAmount),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, quota.ErrUnknownResource):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invitationdomain.ErrInvitationNotFound),
		errors.Is(err, organizationdomain.ErrOrganizationNotFound),
		errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, budgetdomain.ErrCategoryNotFound),
		errors.Is(err, budgetdomain.ErrBudgetNotFound),
		errors.Is(err, principaldomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
