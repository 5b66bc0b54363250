package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/auth"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/config"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/database"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/handlers"
	middlewareCustom "github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/middleware"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/repositories"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/routes"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/services"
	pkghttp "github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/pkg/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before opening the pool
	if err := database.Migrate(cfg.Database.DSN(), logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	loginCodeRepo := repositories.NewLoginCodeRepository(db)
	auditLogRepo := repositories.NewAuditLogRepository(db)

	// Rate-limit window counters live in Redis when configured, otherwise
	// in process memory
	var windowStore services.WindowStore
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		windowStore = repositories.NewRedisWindowStore(redisClient)
		logger.Info("rate limit windows backed by redis", slog.String("addr", cfg.Redis.Addr))
	} else {
		windowStore = repositories.NewMemoryWindowStore()
		logger.Info("rate limit windows backed by process memory")
	}

	rateLimitService := services.NewRateLimitService(windowStore, services.RateLimitConfig{
		RequestCodeLimit: cfg.RateLimit.RequestCodeLimit,
		VerifyCodeLimit:  cfg.RateLimit.VerifyCodeLimit,
		Window:           cfg.RateLimit.Window,
	}, logger)

	// Timing delay for auth failure paths
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	// Initialize token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTokenExpiry)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	auditService := services.NewAuditService(auditLogRepo, logger)
	adminAuthService := services.NewAdminAuthService(
		cfg.Auth.AdminEmail,
		services.CodePolicy{
			TTL:         cfg.Auth.CodeTTL,
			MinLength:   cfg.Auth.CodeMinLength,
			MaxLength:   cfg.Auth.CodeMaxLength,
			MaxAttempts: cfg.Auth.MaxCodeAttempts,
		},
		loginCodeRepo,
		rateLimitService,
		emailService,
		tokenManager,
		auditService,
		timingDelay,
		logger,
	)

	// Initialize handlers
	cookieConfig := auth.CookieConfig{
		Secure:   cfg.Server.Env == "production",
		SameSite: "strict",
	}
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	adminAuthHandler := handlers.NewAdminAuthHandler(
		adminAuthService,
		int(cfg.Auth.SessionTokenExpiry.Seconds()),
		cookieConfig,
		ipConfig,
	)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, adminAuthHandler, tokenManager)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
