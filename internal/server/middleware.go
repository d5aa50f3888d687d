package server

import (
	"math/rand"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/invobase/invobase/internal/orgcontext"
	principaldomain "github.com/invobase/invobase/internal/principal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	HeaderIdentity   = "X-Identity"
	HeaderOrg        = "X-Org-ID"
	HeaderRequestID  = "X-Request-ID"
	contextPrincipal = "principal"
	contextIdentity  = "identity"
	contextTargetOrg = "target_org"
	contextRequestID = "request_id"
)

// RequestID propagates the inbound request ID or mints a ULID.
func RequestID() gin.HandlerFunc {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
		}
		c.Set(contextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("request_id", c.GetString(contextRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// IdentityRequired resolves the upstream-verified identity header into a
// principal. Unprovisioned accounts are rejected here; the accept
// endpoint reads the raw header instead because its caller has no
// organization yet.
func (s *Server) IdentityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID := strings.TrimSpace(c.GetHeader(HeaderIdentity))
		principal, err := s.principalSvc.Resolve(c.Request.Context(), externalID)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextIdentity, externalID)
		c.Set(contextPrincipal, principal)
		c.Next()
	}
}

// OrgContext resolves the target organization for the request, from the
// X-Org-ID header when present, otherwise the principal's own binding.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		var target snowflake.ID
		if header := strings.TrimSpace(c.GetHeader(HeaderOrg)); header != "" {
			parsed, err := snowflake.ParseString(header)
			if err != nil {
				AbortWithError(c, ErrInvalidRequest)
				return
			}
			target = parsed
		} else if p := principalFrom(c); p != nil {
			target = p.OrgID
		}

		c.Set(contextTargetOrg, target)
		c.Request = c.Request.WithContext(orgcontext.WithOrgID(c.Request.Context(), target))
		c.Next()
	}
}

// SuperuserRequired gates the platform-administrator surface.
func (s *Server) SuperuserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principalFrom(c)
		if p == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !p.IsSuperuser || !p.IsActive {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func principalFrom(c *gin.Context) *principaldomain.Principal {
	v, ok := c.Get(contextPrincipal)
	if !ok {
		return nil
	}
	p, ok := v.(*principaldomain.Principal)
	if !ok {
		return nil
	}
	return p
}

func targetOrgFrom(c *gin.Context) snowflake.ID {
	v, ok := c.Get(contextTargetOrg)
	if !ok {
		return 0
	}
	id, ok := v.(snowflake.ID)
	if !ok {
		return 0
	}
	return id
}
