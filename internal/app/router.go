package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/adapter/inbound/http/approvalhttp"
	"github.com/approvenow/server/internal/adapter/inbound/http/internalhttp"
	"github.com/approvenow/server/internal/adapter/inbound/http/invitationhttp"
	"github.com/approvenow/server/internal/adapter/inbound/http/workspacehttp"
	"github.com/approvenow/server/internal/domain/approval"
	"github.com/approvenow/server/internal/domain/invitation"
	"github.com/approvenow/server/internal/domain/workspace"
	"github.com/approvenow/server/internal/infra/events"
	"github.com/approvenow/server/internal/port/outbound"
	"github.com/approvenow/server/internal/shared/config"
	"github.com/approvenow/server/internal/utils/metrics"
	"github.com/approvenow/server/internal/utils/middleware"
)

// RouterDeps holds what the HTTP surface is built from.
type RouterDeps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Validator   outbound.TokenValidatorPort
	RateLimiter outbound.RateLimiterPort
	Redis       goredis.UniversalClient
	Bus         *events.Bus

	Workspaces  *workspace.Domain
	Approvals   *approval.Domain
	Invitations *invitation.Domain
}

// NewRouter creates and configures the Gin router.
func NewRouter(d RouterDeps) *gin.Engine {
	if d.Config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(d.Logger))
	if d.Config.Metrics.Enabled {
		r.Use(middleware.Metrics(d.Metrics, d.Metrics.HTTPRequestsInFlight))
	}
	r.Use(middleware.CORS(d.Config.Server.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Config.Metrics.Enabled {
		r.GET(d.Config.Metrics.Path, gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	idempotency := middleware.Idempotency(d.Redis, middleware.IdempotencyConfig{
		TTL:    d.Config.Server.IdempotencyTTL,
		Logger: d.Logger,
	})

	v1 := r.Group("/v1")

	// Invitee-facing routes; accepting needs a caller, rejecting does not.
	invitationHandler := invitationhttp.NewInvitationHandler(d.Invitations, d.Logger)
	public := v1.Group("", middleware.OptionalAuth(d.Validator))
	invitationHandler.RegisterPublicRoutes(public,
		middleware.RateLimit(d.RateLimiter, middleware.RateLimitConfig{
			Name:    "redeem",
			Limit:   d.Config.Invitation.RedeemRateLimit,
			Window:  d.Config.Invitation.RedeemRateWindow,
			KeyFunc: func(c *gin.Context) string { return "ip:" + c.ClientIP() },
			Logger:  d.Logger,
		}),
		idempotency,
	)
	invitationHandler.RegisterCallableRoutes(public.Group("", idempotency))

	authed := v1.Group("", middleware.RequireAuth(d.Validator), idempotency)
	workspacehttp.NewWorkspaceHandler(d.Workspaces, d.Logger).RegisterRoutes(authed)
	approvalhttp.NewRequestHandler(d.Approvals, d.Logger).RegisterRoutes(authed)
	invitationHandler.RegisterRoutes(authed)

	internal := r.Group("/internal", middleware.RequireInternalToken(d.Config.Server.InternalToken))
	internalhttp.NewHandler(d.Invitations, d.Bus, d.Logger).RegisterRoutes(internal)

	return r
}
