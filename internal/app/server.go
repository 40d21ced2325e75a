// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mohandz-service/internal/config"
	"mohandz-service/internal/db"
	"mohandz-service/internal/domain/auth"
	adminHandler "mohandz-service/internal/handlers/admin"
	authHandler "mohandz-service/internal/handlers/auth"
	clientHandler "mohandz-service/internal/handlers/client"
	filesHandler "mohandz-service/internal/handlers/files"
	requestHandler "mohandz-service/internal/handlers/request"
	wsHandler "mohandz-service/internal/handlers/websocket"
	"mohandz-service/internal/middleware"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/jwt"
	"mohandz-service/internal/pkg/metrics"
	"mohandz-service/internal/pkg/session"
	"mohandz-service/internal/pkg/storage"
	"mohandz-service/internal/pkg/validation"
	"mohandz-service/internal/repository/postgres"
	adminUsecase "mohandz-service/internal/service/admin"
	"mohandz-service/internal/service/email"
	"mohandz-service/internal/service/identity"
	profileUsecase "mohandz-service/internal/service/profile"
	projectUsecase "mohandz-service/internal/service/project"
	requestUsecase "mohandz-service/internal/service/request"
	"mohandz-service/internal/service/submission"
	"mohandz-service/internal/websocket"
	wsHandlers "mohandz-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	httpServer *http.Server
	pool       *pgxpool.Pool
	redis      *redis.Client
	stopHub    context.CancelFunc
}

func NewServer(logger *zap.Logger) *Server {
	cfg := config.Load()
	gin.SetMode(gin.ReleaseMode)
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

// Start wires every dependency and serves HTTP until Shutdown is called.
// It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	ctx := context.Background()
	logger := s.logger

	if err := validation.RegisterGinValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	// ----- PostgreSQL -----
	if s.cfg.RunMigrations {
		if err := db.RunMigrations(s.cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	logger.Info("postgres connected")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Address:  s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redis = redisClient
	logger.Info("redis connected", zap.String("addr", s.cfg.RedisAddr))

	// ----- Metrics -----
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewCollector(registry)

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	authRepo := postgres.NewAuthRepository(pool)
	accountRepo := postgres.NewAccountRepository(dbWrapper)
	profileRepo := postgres.NewProfileRepository(pool)
	requestRepo := postgres.NewRequestRepository(pool)
	contactRepo := postgres.NewContactRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient, authRepo, logger)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Email -----
	var mailer email.Mailer = email.LogMailer{Logger: logger}
	if s.cfg.SMTPHost != "" {
		mailer = email.NewEmailSender(
			s.cfg.SMTPHost,
			s.cfg.SMTPPort,
			s.cfg.SMTPUser,
			s.cfg.SMTPPass,
			s.cfg.SMTPFromName,
			s.cfg.SMTPSecure,
		)
	} else {
		logger.Warn("SMTP_HOST not set, outgoing email is logged only")
	}

	// ----- Attachments -----
	bucket, err := storage.NewOSBucket(s.cfg.UploadDir, s.cfg.BucketName, s.cfg.PublicFilesURL)
	if err != nil {
		return fmt.Errorf("failed to open upload bucket: %w", err)
	}

	// ----- Identity provider -----
	identitySvc := identity.NewService(identity.Deps{
		Identities: authRepo,
		Accounts:   accountRepo,
		Roles:      profileRepo,
		Sessions:   sessionManager,
		Limiter:    rateLimiter,
		Tokens:     jwtManager,
		Mailer:     mailer,
		Bus:        identity.NewRedisBus(redisClient, logger),
		Metrics:    rec,
		Logger:     logger,
	})

	if err := s.ensureAdmin(identitySvc); err != nil {
		logger.Error("failed to bootstrap admin", zap.Error(err))
	}

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(rec, logger)
	if err := hub.RegisterHandler(wsHandlers.NewSessionHandler(logger)); err != nil {
		return fmt.Errorf("failed to register websocket handler: %w", err)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go hub.Run(hubCtx)

	// ----- Services (Usecases) -----
	submissions := submission.NewService(submission.Deps{
		Requests:  requestRepo,
		Contacts:  contactRepo,
		Bucket:    bucket,
		Limiter:   rateLimiter,
		Announcer: hub,
		Metrics:   rec,
		Logger:    logger,
		Config: submission.Config{
			MaxFiles:     s.cfg.MaxUploadFiles,
			MaxFileBytes: s.cfg.MaxUploadBytes,
		},
	})
	profileService := profileUsecase.NewProfileService(profileRepo, identitySvc, logger)
	projectService := projectUsecase.NewProjectService(projectRepo, logger)
	requestService := requestUsecase.NewRequestService(requestRepo, contactRepo, logger)
	adminService := adminUsecase.NewAdminService(adminUsecase.Deps{
		Profiles:    profileRepo,
		Requests:    requestRepo,
		Projects:    projectRepo,
		Contacts:    contactRepo,
		Notifier:    identitySvc,
		Connections: hub,
		Logger:      logger,
	})

	// ----- Middlewares -----
	newClient := func(token string, meta auth.ClientMeta, lang i18n.Lang) middleware.TabClient {
		return identitySvc.NewClient(token, meta, lang)
	}
	sessionMiddleware := middleware.NewSessionMiddleware(newClient, profileRepo, s.cfg.SessionResolveTimeout, logger)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger, rec),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
		middleware.LanguageMiddleware(),
		sessionMiddleware.Session(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:    authHandler.NewAuthHandler(s.cfg.ResetRedirectURL(), logger),
		RequestHandler: requestHandler.NewRequestHandler(submissions, hub, logger),
		ClientHandler:  clientHandler.NewClientHandler(profileService, projectService, requestService, logger),
		AdminHandler:   adminHandler.NewAdminHandler(adminService, requestService, projectService, logger),
		FilesHandler:   filesHandler.NewFilesHandler(bucket, logger),
		WSHandler:      wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, logger),
		Guard:          middleware.NewGuard(rec),
		Metrics:        metrics.Handler(registry),
		Health:         s.health,
	}
	SetupRouter(s.engine, handlers)

	// ----- Start HTTP -----
	s.httpServer = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP, stops the hub and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.stopHub != nil {
		s.stopHub()
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

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok", "postgres": "ok", "redis": "ok"}
	code := http.StatusOK
	if err := s.pool.Ping(ctx); err != nil {
		status["postgres"] = "down"
		code = http.StatusServiceUnavailable
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		status["redis"] = "down"
		code = http.StatusServiceUnavailable
	}
	if code != http.StatusOK {
		status["status"] = "degraded"
	}
	c.JSON(code, status)
}

// ensureAdmin creates the bootstrap admin when none exists yet.
func (s *Server) ensureAdmin(identitySvc *identity.Service) error {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		s.logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := identitySvc.EnsureAdminExists(ctx, s.cfg.AdminEmail, s.cfg.AdminPassword, s.cfg.AdminName); err != nil {
		return fmt.Errorf("failed to ensure admin exists: %w", err)
	}
	return nil
}
