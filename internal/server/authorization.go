package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invobase/invobase/internal/access"
	"github.com/invobase/invobase/internal/quota"
)

type checkAccessRequest struct {
	Capability string `json:"capability"`
}

// CheckAccess runs the access gate without performing the operation, so
// UIs can hide actions the caller would be denied.
func (s *Server) CheckAccess(c *gin.Context) {
	p := principalFrom(c)
	if p == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req checkAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	decision, err := s.accessSvc.Check(c.Request.Context(), *p, access.Capability(req.Capability), targetOrgFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

type checkQuotaRequest struct {
	Resource     string `json:"resource"`
	CurrentCount *int64 `json:"current_count"`
}

// CheckQuota returns the enforcer's verdict. With current_count supplied
// the check is advisory against the caller's number; without it the live
// count is used. Limits and counts are tenant data, so the target
// organization must be the caller's own unless the caller is a superuser.
func (s *Server) CheckQuota(c *gin.Context) {
	p := principalFrom(c)
	if p == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req checkQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	orgID := targetOrgFrom(c)
	if !p.IsSuperuser && p.OrgID != orgID {
		AbortWithError(c, access.ErrCrossTenant)
		return
	}
	if !p.IsActive {
		AbortWithError(c, access.ErrAccountInactive)
		return
	}
	kind := quota.ResourceKind(req.Resource)

	var current int64
	if req.CurrentCount != nil {
		current = *req.CurrentCount
	} else {
		live, err := s.quotaSvc.LiveCount(c.Request.Context(), s.db, orgID, kind)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		current = live
	}

	decision, err := s.quotaSvc.Reserve(c.Request.Context(), orgID, kind, current)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}
