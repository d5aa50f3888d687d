package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invitationdomain "github.com/invobase/invobase/internal/invitation/domain"
	principaldomain "github.com/invobase/invobase/internal/principal/domain"
)

type createInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) CreateInvitation(c *gin.Context) {
	p := principalFrom(c)
	if p == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	inv, err := s.invitationSvc.Create(c.Request.Context(), invitationdomain.CreateInvitationRequest{
		OrgID:     targetOrgFrom(c),
		Email:     req.Email,
		Role:      principaldomain.Role(strings.ToUpper(strings.TrimSpace(req.Role))),
		InvitedBy: p.UserID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (s *Server) ListInvitations(c *gin.Context) {
	var status *invitationdomain.Status
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		parsed := invitationdomain.Status(strings.ToUpper(raw))
		status = &parsed
	}

	invs, err := s.invitationSvc.List(c.Request.Context(), targetOrgFrom(c), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invs})
}

func (s *Server) GetInvitation(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	inv, err := s.invitationSvc.GetByID(c.Request.Context(), targetOrgFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

type acceptInvitationRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// AcceptInvitation binds the caller's identity to the invited
// organization. The caller usually has no principal yet, so only the raw
// identity header is required.
func (s *Server) AcceptInvitation(c *gin.Context) {
	externalID := strings.TrimSpace(c.GetHeader(HeaderIdentity))
	if externalID == "" {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req acceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.invitationSvc.Accept(c.Request.Context(), invitationdomain.AcceptInvitationRequest{
		Token:      strings.TrimSpace(req.Token),
		ExternalID: externalID,
		Email:      req.Email,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) RevokeInvitation(c *gin.Context) {
	p := principalFrom(c)
	if p == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	inv, err := s.invitationSvc.Revoke(c.Request.Context(), *p, targetOrgFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) InvitationStats(c *gin.Context) {
	stats, err := s.invitationSvc.Stats(c.Request.Context(), targetOrgFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) AdminInvitationStats(c *gin.Context) {
	stats, err := s.invitationSvc.GlobalStats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) AdminSweepInvitations(c *gin.Context) {
	if s.scheduler != nil {
		if err := s.scheduler.RunOnce(c.Request.Context()); err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	count, err := s.invitationSvc.SweepExpired(c.Request.Context(), s.clock.Now().UTC())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transitioned": count})
}
