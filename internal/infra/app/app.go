package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mkmahmud/meditech-backend/internal/core/port"
	"github.com/mkmahmud/meditech-backend/internal/infra/config"
	"github.com/mkmahmud/meditech-backend/internal/infra/crypto"
	"github.com/mkmahmud/meditech-backend/internal/infra/database"
	kafkainfra "github.com/mkmahmud/meditech-backend/internal/infra/kafka"
	"github.com/mkmahmud/meditech-backend/internal/infra/logger"
	redisinfra "github.com/mkmahmud/meditech-backend/internal/infra/redis"
	"github.com/mkmahmud/meditech-backend/internal/infra/security"
	"github.com/mkmahmud/meditech-backend/internal/infra/telemetry"
	postgresrepo "github.com/mkmahmud/meditech-backend/internal/repository/postgres"
	redisrepo "github.com/mkmahmud/meditech-backend/internal/repository/redis"
	"github.com/mkmahmud/meditech-backend/internal/transport/http/routes"
	"github.com/mkmahmud/meditech-backend/internal/usecase"
)

// Application owns the wired service graph and its lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	audit    *usecase.AuditRecorder
	producer *kafkainfra.Producer
	tracer   *telemetry.TracerProvider
}

// New wires configuration into a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var tracer *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	signer, err := security.NewTokenSigner(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
	)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	codec, err := crypto.NewCodec([]byte(cfg.Security.EncryptionKey), log)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init encryption codec: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)
	denylist := redisrepo.NewDenylist(redisClient.Client(), cfg.Redis.DenylistPrefix)

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	auditRecorder := usecase.NewAuditRecorder(repos.Audit, cfg.Audit.QueueSize, log)

	tokenService := usecase.NewTokenService(
		signer,
		repos.Tokens,
		repos.Credentials,
		denylist,
		eventPublisher,
		log,
		cfg.Security.DenylistTTL,
	)

	authenticator := usecase.NewAuthenticator(
		repos.Credentials,
		repos.Profiles,
		tokenService,
		eventPublisher,
		log,
		cfg.Security.MaxFailedLogins,
		cfg.Security.LockoutDuration,
	)

	registrationService := usecase.NewRegistrationService(
		repos.Credentials,
		eventPublisher,
		security.DefaultPasswordValidator(),
		log,
	)

	recordService := usecase.NewPatientRecordService(repos.Profiles, codec, auditRecorder, log)

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Database: pool,
		Cache:    redisClient,
		Services: routes.ServiceSet{
			Auth:         authenticator,
			Tokens:       tokenService,
			Registration: registrationService,
			Audit:        auditRecorder,
			Records:      recordService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		audit:    auditRecorder,
		producer: producer,
		tracer:   tracer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down in
// dependency order: server, audit queue, producer, connections.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()
	defer a.audit.Close()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.tracer.Shutdown(shutdownCtx)
		}
	}()

	sweepDone := a.startRetentionSweep(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting meditech security API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		<-sweepDone
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// startRetentionSweep purges audit entries past the retention horizon on a
// ticker until the context is cancelled.
func (a *Application) startRetentionSweep(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	interval := a.cfg.Audit.SweepInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	retention := time.Duration(a.cfg.Audit.RetentionDays) * 24 * time.Hour

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
				if _, err := a.audit.PurgeExpired(sweepCtx, retention); err != nil {
					a.logger.Error("audit retention sweep failed", zap.Error(err))
				}
				cancel()
			case <-ctx.Done():
				return
			}
		}
	}()

	return done
}
