// Package main is the entrypoint for the MajorLOAD API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/majorload/majorload/internal/cache"
	"github.com/majorload/majorload/internal/config"
	"github.com/majorload/majorload/internal/entitlement"
	"github.com/majorload/majorload/internal/gate"
	"github.com/majorload/majorload/internal/handler"
	"github.com/majorload/majorload/internal/metrics"
	"github.com/majorload/majorload/internal/middleware"
	"github.com/majorload/majorload/internal/payment"
	"github.com/majorload/majorload/internal/repository"
	"github.com/majorload/majorload/internal/server"
	"github.com/majorload/majorload/internal/service"
	"github.com/majorload/majorload/internal/session"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize Redis (rate limiting)
	redisClient, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// In-process entitlement cache with background expiry sweep
	memCache := cache.NewMemory(cfg.CacheSweepInterval)

	// Payment provider client
	payments, err := payment.NewClient(cfg.PaymentAPIBaseURL, cfg.PaymentSecretKey)
	if err != nil {
		logger.Error("failed to initialize payment client", "error", err)
		repo.Close()
		os.Exit(1)
	}

	// Google sign-in is optional; credentials auth always works.
	google, err := session.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL(), cfg.SessionSecret)
	if err != nil {
		logger.Warn("google sign-in disabled", "error", err)
		google = nil
	}

	// Initialize services
	metricsRecorder := metrics.NewNoop()
	entitlements := entitlement.New(repo, memCache, cfg.PremiumCacheTTL, logger, metricsRecorder)
	loadService := service.NewLoadService(repo, metricsRecorder)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, redisClient)
	authHandler := handler.NewAuthHandler(repo, google, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction(), logger)
	loadHandler := handler.NewLoadHandler(loadService, logger)
	checkoutHandler := handler.NewCheckoutHandler(payments, cfg.BaseURL, cfg.PremiumPriceCents, logger)
	webhookHandler := handler.NewWebhookHandler(cfg.PaymentWebhookSecret, entitlements, payments, logger, metricsRecorder)

	// Setup router
	r := setupRouter(routerDeps{
		h:        h,
		health:   healthHandler,
		auth:     authHandler,
		loads:    loadHandler,
		checkout: checkoutHandler,
		webhook:  webhookHandler,
	}, entitlements, redisClient, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// LIFO: the entitlement cache sweeper stops first, connections last.
	srv.OnShutdown("database", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})
	srv.OnShutdown("entitlement cache", func(ctx context.Context) error {
		memCache.Close()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	h        *handler.Handler
	health   *handler.HealthHandler
	auth     *handler.AuthHandler
	loads    *handler.LoadHandler
	checkout *handler.CheckoutHandler
	webhook  *handler.WebhookHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	deps routerDeps,
	entitlements *entitlement.Service,
	redisClient *cache.Redis,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	securityCfg := middleware.SecurityConfig{
		IsDevelopment:  cfg.IsDevelopment(),
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
	}

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(securityCfg))
	r.Use(middleware.CORS(securityCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", deps.h.Hello)

	sessionCfg := middleware.SessionConfig{
		Logger:       logger,
		Secret:       cfg.SessionSecret,
		Entitlements: entitlements,
	}

	apiRateLimit := middleware.RateLimitConfig{
		Logger:  logger,
		Redis:   redisClient,
		Enabled: cfg.RateLimitAPIEnabled,
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	}
	webhookRateLimit := middleware.RateLimitConfig{
		Logger:  logger,
		Redis:   redisClient,
		Enabled: cfg.RateLimitWebhookEnabled,
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	}

	// Auth routes: session parsing for register/login responses, rate
	// limited against credential stuffing.
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(apiRateLimit))

		r.Post("/register", deps.auth.Register)
		r.Post("/login", deps.auth.Login)
		r.Post("/logout", deps.auth.Logout)
		r.Get("/google", deps.auth.GoogleStart)
		r.Get("/google/callback", deps.auth.GoogleCallback)
	})

	r.Route("/api", func(r chi.Router) {
		// Provider webhook: signature-authenticated, never session-gated.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitIP(webhookRateLimit))
			r.Post("/payments/webhook", deps.webhook.HandleEvent)
		})

		// Session-scoped API
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitIP(apiRateLimit))
			r.Use(middleware.Session(sessionCfg))

			r.Get("/session", deps.auth.Session)

			r.Route("/loads", func(r chi.Router) {
				r.Get("/", deps.loads.List)
				r.With(middleware.RequireAccess(sessionCfg, gate.ResourcePremium)).
					Get("/premium", deps.loads.ListPremium)
				r.With(middleware.RequireAccess(sessionCfg, gate.ResourceAuthenticated)).
					Post("/", deps.loads.Create)
			})

			r.With(middleware.RequireAccess(sessionCfg, gate.ResourceAuthenticated)).
				Post("/checkout", deps.checkout.Create)
		})
	})

	// 404 and 405 handlers
	r.NotFound(deps.h.NotFound)
	r.MethodNotAllowed(deps.h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
