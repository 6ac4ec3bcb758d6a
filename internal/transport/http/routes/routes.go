package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/infra/config"
	"github.com/mkmahmud/meditech-backend/internal/transport/http/handlers"
	"github.com/mkmahmud/meditech-backend/internal/transport/http/middleware"
	"github.com/mkmahmud/meditech-backend/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth         *usecase.Authenticator
	Tokens       *usecase.TokenService
	Registration *usecase.RegistrationService
	Audit        *usecase.AuditRecorder
	Records      *usecase.PatientRecordService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Services ServiceSet
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err == nil {
		r.Use(metrics.Handler())
	} else {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	}

	probes := make(map[string]handlers.ReadinessProbe, 2)
	if deps.Database != nil {
		probes["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		probes["redis"] = deps.Cache.HealthCheck
	}

	healthHandler := handlers.NewHealthHandler(probes)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.RequireAuth(deps.Services.Tokens)

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Tokens, deps.Services.Registration, deps.Services.Audit)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Patient record handlers emit their own audit entries with old and
		// new values; the interceptor covers everything else.
		recordGroup := api.Group("/patients", authMiddleware)
		handlers.NewPatientRecordHandler(deps.Services.Records).RegisterRoutes(recordGroup)

		auditGroup := api.Group("/audit",
			authMiddleware,
			middleware.RequireRole(string(domain.RoleAdmin), string(domain.RoleSuperAdmin)),
			middleware.Audit(deps.Services.Audit),
		)
		handlers.NewAuditHandler(deps.Services.Audit).RegisterRoutes(auditGroup)
	}

	return r
}
