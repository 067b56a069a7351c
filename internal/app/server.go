// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"jobboard-service/internal/config"
	"jobboard-service/internal/db"
	adminHandler "jobboard-service/internal/handlers/admin"
	authHandler "jobboard-service/internal/handlers/auth"
	eventsHandler "jobboard-service/internal/handlers/events"
	jobHandler "jobboard-service/internal/handlers/job"
	"jobboard-service/internal/middleware"
	"jobboard-service/internal/pkg/audit"
	"jobboard-service/internal/pkg/jwt"
	"jobboard-service/internal/pkg/metrics"
	"jobboard-service/internal/pkg/ratelimit"
	"jobboard-service/internal/pkg/session"
	"jobboard-service/internal/repository/postgres"
	adminUsecase "jobboard-service/internal/service/admin"
	authUsecase "jobboard-service/internal/service/auth"
	jobUsecase "jobboard-service/internal/service/job"
	ws "jobboard-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UserStore is the user table as seen by login, the guard and provisioning.
type UserStore interface {
	authUsecase.CredentialStore
	adminUsecase.UserStore
}

// Deps are the stateful collaborators the HTTP layer is built on.
type Deps struct {
	Users   UserStore
	Jobs    jobUsecase.Repository
	Limiter *ratelimit.Limiter
	Audit   *audit.Logger
	Metrics *metrics.Metrics
	// Hub serves the admin event stream; Audit should carry its EventSink.
	Hub     *ws.Hub
}

// Application is a fully wired HTTP layer.
type Application struct {
	Engine   *gin.Engine
	Admin    *adminUsecase.AdminService
	Throttle *middleware.Throttle
}

// Build wires codec, guard, services, handlers and routes on top of deps.
func Build(cfg config.AppConfig, logger *zap.Logger, deps Deps) (*Application, error) {
	// ----- Token Codec & Guard -----
	codec, err := jwt.NewCodec(cfg.Session.Secret,
		jwt.WithIssuer(cfg.Session.Issuer),
		jwt.WithTTL(cfg.Session.TTL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build token codec: %w", err)
	}
	guard := authUsecase.NewGuard(codec, deps.Users, deps.Audit, deps.Metrics, logger, cfg.PrincipalLookupTimeout)

	// ----- Services (Usecases) -----
	authService := authUsecase.NewAuthService(
		deps.Users,
		codec,
		deps.Limiter,
		deps.Audit,
		deps.Metrics,
		logger,
		authUsecase.ServiceConfig{
			LoginPolicy:   cfg.RateLimit.Login,
			BcryptCost:    cfg.BcryptCost,
			LookupTimeout: cfg.PrincipalLookupTimeout,
		},
	)
	adminService := adminUsecase.NewAdminService(deps.Users, guard, deps.Audit, logger, cfg.BcryptCost)
	jobService := jobUsecase.NewJobService(deps.Jobs, deps.Audit, logger)

	// ----- Handlers -----
	cookie := session.Cookie{Secure: cfg.Session.CookieSecure}
	handlers := &Handlers{
		AuthHandler:         authHandler.NewAuthHandler(authService, cookie, logger),
		AdminHandler:        adminHandler.NewAdminHandler(adminService, logger),
		JobHandler:          jobHandler.NewJobHandler(jobService, logger),
		EventsHandler:       eventsHandler.NewEventsHandler(deps.Hub, cfg.AllowedOrigins, logger),
		AuthMiddleware:      middleware.NewAuthMiddleware(guard),
		RateLimitMiddleware: middleware.NewRateLimitMiddleware(deps.Limiter, deps.Audit, deps.Metrics, logger),
		Throttle:            middleware.NewThrottle(cfg.Throttle.RPS, cfg.Throttle.Burst, deps.Audit, deps.Metrics),
		Metrics:             deps.Metrics,
		SubmitJobPolicy:     cfg.RateLimit.SubmitJob,
		JobOwnership:        jobService.OwnedBy,
	}

	// ----- Engine -----
	engine := gin.New()
	// nil trusts no proxy: ClientIP is the socket peer
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger, deps.Metrics),
		middleware.SecurityHeaders(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
	)
	SetupRouter(engine, logger, handlers)

	return &Application{Engine: engine, Admin: adminService, Throttle: handlers.Throttle}, nil
}

type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger

	mu         sync.Mutex
	httpServer *http.Server
	pool       *pgxpool.Pool
	redis      redis.UniversalClient
	cancel     context.CancelFunc
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, logger: logger}
}

// Start connects the stores, wires the application and serves until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{URL: s.cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.mu.Lock()
	s.pool = pool
	s.mu.Unlock()

	dbWrapper := postgres.NewDB(pool)
	if err := dbWrapper.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	// ----- Redis (only when something needs it) -----
	if s.cfg.RateLimit.Backend == config.BackendRedis || s.cfg.SecurityStream != "" {
		client, err := db.NewRedis(ctx, db.RedisConfig{
			Addresses: []string{s.cfg.RedisAddr},
			Password:  s.cfg.RedisPass,
			PoolSize:  10,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		s.mu.Lock()
		s.redis = client
		s.mu.Unlock()
		s.logger.Info("connected to redis", zap.String("addr", s.cfg.RedisAddr))
	}

	// ----- Metrics & Security Event Logger -----
	m := metrics.New()
	hub := ws.NewHub(s.logger)
	go hub.Run(runCtx)
	sinks := []audit.Sink{audit.NewZapSink(s.logger), ws.NewEventSink(hub)}
	if s.cfg.SecurityStream != "" {
		sinks = append(sinks, audit.NewRedisStreamSink(s.redis, s.cfg.SecurityStream, 0))
	}
	auditLogger := audit.NewLogger(s.logger, m, sinks...)
	for _, w := range s.cfg.Warnings {
		auditLogger.Record(ctx, audit.EventConfigWarning, "system", map[string]string{"warning": w})
	}

	// ----- Rate Limiter -----
	var store ratelimit.Store
	switch s.cfg.RateLimit.Backend {
	case config.BackendRedis:
		store = ratelimit.NewRedisStore(s.redis, "jobboard:ratelimit:")
	default:
		store = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.New(store, ratelimit.WithLogger(s.logger), ratelimit.WithMetrics(m))
	go limiter.RunJanitor(runCtx, s.cfg.RateLimit.SweepInterval)

	// ----- Application -----
	application, err := Build(s.cfg, s.logger, Deps{
		Users:   postgres.NewPrincipalRepository(pool),
		Jobs:    postgres.NewJobRepository(pool),
		Limiter: limiter,
		Audit:   auditLogger,
		Metrics: m,
		Hub:     hub,
	})
	if err != nil {
		return err
	}
	go application.Throttle.Run(runCtx, time.Minute)

	// ----- Bootstrap Admin -----
	if err := application.Admin.EnsureAdmin(ctx, s.cfg.BootstrapAdmin.Email, s.cfg.BootstrapAdmin.Password); err != nil {
		// not fatal: an existing deployment already has admins
		s.logger.Error("failed to initialize bootstrap admin", zap.Error(err))
	}

	// ----- Start HTTP -----
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           application.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	s.logger.Info("server listening", zap.String("addr", s.cfg.HTTPAddr), zap.String("env", s.cfg.Env))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP, stops background sweepers and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}
