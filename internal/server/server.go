package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/invobase/invobase/internal/access"
	"github.com/invobase/invobase/internal/audit"
	auditdomain "github.com/invobase/invobase/internal/audit/domain"
	"github.com/invobase/invobase/internal/budget"
	budgetdomain "github.com/invobase/invobase/internal/budget/domain"
	"github.com/invobase/invobase/internal/clock"
	"github.com/invobase/invobase/internal/config"
	"github.com/invobase/invobase/internal/invitation"
	invitationdomain "github.com/invobase/invobase/internal/invitation/domain"
	"github.com/invobase/invobase/internal/observability"
	obsmetrics "github.com/invobase/invobase/internal/observability/metrics"
	"github.com/invobase/invobase/internal/organization"
	organizationdomain "github.com/invobase/invobase/internal/organization/domain"
	"github.com/invobase/invobase/internal/plan"
	plandomain "github.com/invobase/invobase/internal/plan/domain"
	"github.com/invobase/invobase/internal/principal"
	principaldomain "github.com/invobase/invobase/internal/principal/domain"
	"github.com/invobase/invobase/internal/quota"
	"github.com/invobase/invobase/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	observability.Module,
	audit.Module,
	access.Module,
	principal.Module,
	plan.Module,
	organization.Module,
	quota.Module,
	invitation.Module,
	budget.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	clock           clock.Clock
	principalSvc    principaldomain.Service
	accessSvc       access.Service
	quotaSvc        quota.Service
	auditSvc        auditdomain.Service
	planSvc         plandomain.Service
	organizationSvc organizationdomain.Service
	invitationSvc   invitationdomain.Service
	budgetSvc       budgetdomain.Service

	scheduler *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	Clock           clock.Clock
	PrincipalSvc    principaldomain.Service
	AccessSvc       access.Service
	QuotaSvc        quota.Service
	AuditSvc        auditdomain.Service
	PlanSvc         plandomain.Service
	OrganizationSvc organizationdomain.Service
	InvitationSvc   invitationdomain.Service
	BudgetSvc       budgetdomain.Service

	Scheduler *scheduler.Scheduler `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		clock:           p.Clock,
		principalSvc:    p.PrincipalSvc,
		accessSvc:       p.AccessSvc,
		quotaSvc:        p.QuotaSvc,
		auditSvc:        p.AuditSvc,
		planSvc:         p.PlanSvc,
		organizationSvc: p.OrganizationSvc,
		invitationSvc:   p.InvitationSvc,
		budgetSvc:       p.BudgetSvc,
		scheduler:       p.Scheduler,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	// Accept is the one surface a tenant-less identity may call.
	s.engine.POST("/api/invitations/accept", s.AcceptInvitation)

	api := s.engine.Group("/api", s.IdentityRequired(), s.OrgContext())

	api.GET("/me", s.Me)
	api.GET("/plans", s.ListPlans)
	api.GET("/plans/:slug", s.GetPlanBySlug)

	api.POST("/organizations", s.CreateOrganization)
	api.GET("/organizations/:id", s.GetOrganization)

	api.POST("/quota/check", s.CheckQuota)
	api.POST("/access/check", s.CheckAccess)

	api.POST("/invitations", s.authorize(access.CapabilityInvitationCreate), s.CreateInvitation)
	api.GET("/invitations", s.authorize(access.CapabilityInvitationView), s.ListInvitations)
	api.GET("/invitations/stats", s.authorize(access.CapabilityInvitationView), s.InvitationStats)
	api.GET("/invitations/:id", s.authorize(access.CapabilityInvitationView), s.GetInvitation)
	api.DELETE("/invitations/:id", s.RevokeInvitation)

	api.GET("/expense_categories", s.authorize(access.CapabilityBudgetView), s.ListExpenseCategories)
	api.POST("/expense_categories", s.authorize(access.CapabilityCategoryCreate), s.CreateExpenseCategory)
	api.GET("/budgets", s.authorize(access.CapabilityBudgetView), s.ListBudgets)
	api.POST("/budgets", s.authorize(access.CapabilityBudgetManage), s.CreateBudget)
	api.PUT("/budgets/:id", s.authorize(access.CapabilityBudgetManage), s.UpdateBudget)

	api.GET("/audit_logs", s.authorize(access.CapabilityAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.IdentityRequired(), s.SuperuserRequired())

	admin.GET("/organizations", s.authorizeSuper(access.SuperCapabilityOrgList), s.AdminListOrganizations)
	admin.POST("/organizations/:id/status", s.authorizeSuper(access.SuperCapabilityOrgStatusChange), s.AdminChangeOrganizationStatus)
	admin.GET("/invitations/stats", s.authorizeSuper(access.SuperCapabilityInvitationStats), s.AdminInvitationStats)
	admin.POST("/invitations/sweep", s.authorizeSuper(access.SuperCapabilityInvitationStats), s.AdminSweepInvitations)
	admin.POST("/plans", s.CreatePlan)
	admin.PUT("/plans/:id", s.UpdatePlan)
}

// authorize runs the per-tenant access gate against the request's target
// organization.
func (s *Server) authorize(capability access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principalFrom(c)
		if p == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		decision, err := s.accessSvc.Check(c.Request.Context(), *p, capability, targetOrgFrom(c))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if err := decision.Err(); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeSuper(capability access.SuperCapability) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principalFrom(c)
		if p == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		decision := s.accessSvc.CheckSuper(c.Request.Context(), *p, capability)
		if err := decision.Err(); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
