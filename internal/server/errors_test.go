package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

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
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		errType string
	}{
		{ErrUnauthorized, http.StatusUnauthorized, "unauthenticated"},
		{principaldomain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{principaldomain.ErrNotProvisioned, http.StatusForbidden, "account_not_provisioned"},

		{access.ErrCrossTenant, http.StatusForbidden, "cross_tenant"},
		{access.ErrAccountInactive, http.StatusForbidden, "account_inactive"},
		{access.ErrInsufficientRole, http.StatusForbidden, "insufficient_role"},
		{access.ErrRoleForbidden, http.StatusForbidden, "role_forbidden"},

		{quota.ErrQuotaExceeded, http.StatusConflict, "quota_exceeded"},
		{quota.ErrUnknownResource, http.StatusBadRequest, "validation_error"},

		{invitationdomain.ErrDuplicatePending, http.StatusConflict, "duplicate_pending"},
		{invitationdomain.ErrInvitationExpired, http.StatusGone, "invitation_expired"},
		{invitationdomain.ErrInvitationNotPending, http.StatusConflict, "invitation_not_pending"},
		{invitationdomain.ErrIdentityAlreadyBound, http.StatusConflict, "identity_already_bound"},
		{invitationdomain.ErrInvitationNotFound, http.StatusNotFound, "not_found"},
		{invitationdomain.ErrInvalidEmail, http.StatusBadRequest, "validation_error"},

		{organizationdomain.ErrInvalidTransition, http.StatusConflict, "invalid_status_transition"},
		{organizationdomain.ErrOrganizationSuspended, http.StatusConflict, "organization_suspended"},
		{organizationdomain.ErrOrganizationNotFound, http.StatusNotFound, "not_found"},

		{plandomain.ErrDuplicateSlug, http.StatusConflict, "conflict"},
		{budgetdomain.ErrDuplicateCategory, http.StatusConflict, "conflict"},
		{budgetdomain.ErrBudgetNotFound, http.StatusNotFound, "not_found"},

		{auditdomain.ErrInvalidPageToken, http.StatusBadRequest, "validation_error"},
		{auditdomain.ErrInvalidTimeRange, http.StatusBadRequest, "validation_error"},

		{db.ErrTransient, http.StatusServiceUnavailable, "transient_failure"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, body := mapError(tc.err)
		if status != tc.status {
			t.Fatalf("mapError(%v) status = %d, want %d", tc.err, status, tc.status)
		}
		if body.Type != tc.errType {
			t.Fatalf("mapError(%v) type = %q, want %q", tc.err, body.Type, tc.errType)
		}
	}
}

func TestMapErrorKeepsTransientWrapping(t *testing.T) {
	wrapped := db.AsTransient(errors.New("database is locked"))
	status, body := mapError(wrapped)
	if status != http.StatusServiceUnavailable || body.Type != "transient_failure" {
		t.Fatalf("wrapped transient errors must map to 503, got %d %q", status, body.Type)
	}
}

func TestErrorHandlingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())
	engine.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, invitationdomain.ErrInvitationExpired)
	})
	engine.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
