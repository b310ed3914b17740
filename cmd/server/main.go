package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/zcredlabs/zscore/docs"
	"github.com/zcredlabs/zscore/internal/cache"
	"github.com/zcredlabs/zscore/internal/database"
	"github.com/zcredlabs/zscore/internal/encoding"
	"github.com/zcredlabs/zscore/internal/errors"
	"github.com/zcredlabs/zscore/internal/explain"
	"github.com/zcredlabs/zscore/internal/frontend"
	"github.com/zcredlabs/zscore/internal/leaderboard"
	"github.com/zcredlabs/zscore/internal/middleware"
	"github.com/zcredlabs/zscore/internal/model"
	"github.com/zcredlabs/zscore/internal/monitoring"
	"github.com/zcredlabs/zscore/internal/privacy"
	"github.com/zcredlabs/zscore/internal/ratelimit"
	"github.com/zcredlabs/zscore/internal/security"
)

const (
	serviceVersion = "1.0.0"

	// Retention window for request logs, per the published policy
	requestLogRetentionDays = 90

	// How often the trust leaderboards are recomputed
	leaderboardRebuildInterval = 15 * time.Minute
)

// @title zscore API
// @version 1.0
// @description Alternative-data trust scoring and credit risk prediction for thin-file loan applicants.
// @BasePath /
func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	modelDir := getEnvOrDefault("MODEL_DIR", "./models")
	jwtSecret := getEnvOrDefault("JWT_SECRET", "your-super-secret-jwt-key-change-in-production")
	port := getEnvOrDefault("PORT", "8080")
	weeklyQuota := getEnvOrDefaultInt("WEEKLY_QUOTA", database.DefaultWeeklyQuota)
	redisAddr := os.Getenv("REDIS_URL")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvOrDefaultInt("REDIS_DB", 0)
	syntheticSamples := getEnvOrDefaultInt("SYNTHETIC_SAMPLES", model.DefaultSyntheticSamples)
	trainSeed := getEnvOrDefaultInt64("TRAIN_SEED", model.DefaultSeed)

	// Initialize database, repository and services
	db, err := database.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	clientService := database.NewClientService(repo, jwtSecret, weeklyQuota)
	privacyService := privacy.NewService(repo)

	leaderboardService := leaderboard.NewService(db)
	defer leaderboardService.Close()

	// Initialize monitoring system
	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	// Train or restore the risk models before serving traffic
	modelConfig := model.DefaultConfig()
	modelConfig.SyntheticSamples = syntheticSamples
	modelConfig.Seed = trainSeed
	classifier := model.NewClassifier(modelConfig, appLogger)

	snap, err := classifier.LoadOrTrain(modelDir)
	if err != nil {
		slog.Error("Failed to initialize risk models", "error", err)
		os.Exit(1)
	}
	slog.Info("Risk models ready",
		"version", snap.Version,
		"training_samples", snap.TrainingSize,
		"synthetic", snap.Synthetic,
	)

	// Initialize caches and the optimized JSON encoder
	explCache := explain.NewCache(time.Hour, 1000)
	appCache := cache.NewCache(15 * time.Minute)
	optimizedEncoder := encoding.NewOptimizedJSONEncoder()

	// Initialize compression middleware
	compressionMiddleware := middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())

	// Redis-backed rate limiting with in-process fallback
	redisClient, err := ratelimit.NewRedisClient(redisAddr, redisPassword, redisDB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	defer redisClient.Close()

	rlConfig := ratelimit.DefaultConfig()
	rlConfig.ClientLimitPerWeek = weeklyQuota
	rateLimiter := ratelimit.NewRateLimiter(redisClient, rlConfig, appMetrics)
	defer rateLimiter.Close()

	// Security middleware setup
	securityConfig := security.DefaultSecurityConfig()
	securityMiddleware := security.NewSecurityMiddleware(securityConfig)
	securityMiddleware.SetClientService(clientService)

	srv := &server{
		db:          db,
		repo:        repo,
		clients:     clientService,
		privacy:     privacyService,
		classifier:  classifier,
		leaderboard: leaderboardService,
		explCache:   explCache,
		respCache:   appCache,
		metrics:     appMetrics,
		logger:      appLogger,
		encoder:     optimizedEncoder,
		compression: compressionMiddleware,
		modelDir:    modelDir,
		version:     serviceVersion,
	}

	// Publish rankings from whatever history survived the last run, then
	// keep them fresh on a schedule
	if _, err := leaderboardService.Rebuild(); err != nil {
		slog.Warn("Initial leaderboard rebuild failed", "error", err)
	}
	leaderboardService.StartAutoRebuild(leaderboardRebuildInterval)

	// Background maintenance: expired explanation eviction and
	// request log retention
	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if evicted := explCache.Refresh(); evicted > 0 {
					slog.Debug("Explanation cache refreshed", "evicted", evicted)
				}
			case <-backgroundCtx.Done():
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				purged, err := privacyService.CleanupExpiredLogs(requestLogRetentionDays)
				if err != nil {
					slog.Error("Request log retention cleanup failed", "error", err)
				} else if purged > 0 {
					slog.Info("Request log retention cleanup", "purged", purged)
				}
			case <-backgroundCtx.Done():
				return
			}
		}
	}()

	r, err := buildRouter(srv, rateLimiter, securityMiddleware, securityConfig)
	if err != nil {
		slog.Error("Failed to configure router", "error", err)
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting zscore API server",
			"port", port,
			"data_dir", dataDir,
			"model_dir", modelDir,
			"weekly_quota", weeklyQuota,
			"redis_enabled", redisClient.IsEnabled(),
		)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// buildRouter assembles the full middleware chain and route table. Kept
// separate from main so integration tests run against the same stack the
// binary serves.
func buildRouter(srv *server, rateLimiter *ratelimit.RateLimiter, securityMiddleware *security.SecurityMiddleware, securityConfig security.SecurityConfig) (*gin.Engine, error) {
	r := gin.New()

	if err := r.SetTrustedProxies(securityConfig.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	// Compression wraps everything else so even cached responses shrink
	r.Use(srv.compression.Handler())

	// Monitoring middleware first to capture all requests
	r.Use(monitoring.MonitoringMiddleware(srv.metrics, srv.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(srv.logger))

	// Error handling middleware
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	// Security middleware
	r.Use(security.SecurityHeadersMiddleware())
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.ValidateContentType)

	if securityConfig.EnableCORS {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  securityConfig.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
			ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
			MaxAge:        12 * time.Hour,
		}))
	}

	// Rate limiting: per-IP first, then the sqlite-backed weekly quota,
	// then the Redis-enforced variant of the same quota
	r.Use(rateLimiter.IPRateLimitMiddleware())
	r.Use(securityMiddleware.ClientQuota)
	r.Use(rateLimiter.ClientRateLimitMiddleware())

	// Response cache for the read-heavy stable endpoints
	r.Use(srv.respCache.Middleware(srv.metrics, "/api/v1/model", "/api/v1/privacy/policy"))

	// Embedded landing page with live service status
	page, err := frontend.NewPageHandler(func() frontend.Status {
		status := frontend.Status{
			Version:      srv.version,
			ModelTrained: srv.classifier.IsTrained(),
		}
		if snap := srv.classifier.Snapshot(); snap != nil {
			status.ModelVersion = snap.Version
		}
		return status
	})
	if err != nil {
		return nil, fmt.Errorf("landing page: %w", err)
	}
	r.GET("/", page)

	// Operational endpoints
	r.GET("/health", srv.handleHealth())
	r.GET("/metrics", srv.handleMetrics())
	r.GET("/cache/stats", srv.handleCacheStats())
	r.GET("/compression/stats", srv.handleCompressionStats())
	r.GET("/pools/database", srv.handleDatabasePoolStats())
	r.GET("/pools/json", srv.handleJSONPoolStats())

	// Client sessions and quota visibility
	r.POST("/auth/session", srv.handleCreateSession())
	r.GET("/client/stats", srv.handleClientStats())

	v1 := r.Group("/api/v1")
	{
		v1.POST("/trust-score", securityMiddleware.ValidateApplicantPayload, srv.handleTrustScore())
		v1.POST("/predict", securityMiddleware.ValidateApplicantPayload, srv.handlePredict())
		v1.POST("/explain", securityMiddleware.ValidateApplicantPayload, srv.handleExplain())
		v1.POST("/train", rateLimiter.EndpointRateLimitMiddleware("train", 5), srv.handleTrain())
		v1.GET("/model", srv.handleModelInfo())

		v1.POST("/applicants", securityMiddleware.ValidateApplicantPayload, srv.handleCreateApplicant())
		v1.GET("/applicants", srv.handleListApplicants())
		v1.GET("/applicants/:id", srv.handleGetApplicant())
		v1.PUT("/applicants/:id", securityMiddleware.ValidateApplicantPayload, srv.handleUpdateApplicant())
		v1.GET("/applicants/:id/trust-level", srv.handleTrustLevel())
		v1.GET("/applicants/:id/history", srv.handleTrustHistory())
		v1.GET("/applicants/:id/predictions", srv.handlePredictionHistory())
		v1.GET("/applicants/:id/rank", srv.handleApplicantRank())

		v1.GET("/leaderboard", srv.handleLeaderboard())

		v1.POST("/consent", srv.handleRecordConsent())
		v1.POST("/consent/withdraw", srv.handleWithdrawConsent())
		v1.GET("/consent/:id", srv.handleConsentSummary())
		v1.GET("/privacy/policy", srv.handlePrivacyPolicy())
		v1.POST("/privacy/delete/:id", srv.handleEraseApplicant())

		v1.GET("/ratelimit/status", rateLimiter.HandleRateLimitStatus())
	}

	admin := r.Group("/admin")
	{
		admin.GET("/ratelimits", rateLimiter.HandleAdminRateLimits())
		admin.POST("/ratelimits/reset/:clientID", rateLimiter.HandleAdminResetClient())
		admin.POST("/ratelimits/invalidate-ip/:ip", rateLimiter.HandleAdminInvalidateIP())
		admin.POST("/leaderboard/rebuild", srv.handleLeaderboardRebuild())
	}

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Performance profiling endpoints (development only)
	if os.Getenv("ENABLE_PROFILING") == "true" {
		slog.Info("Enabling performance profiling endpoints")
		r.GET("/debug/pprof/*filepath", gin.WrapF(pprof.Index))
		r.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
		r.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
		r.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
		r.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	}

	return r, nil
}

// Helper functions for environment variables with defaults

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		slog.Warn("Invalid integer environment value, using default", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvOrDefaultInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
		slog.Warn("Invalid integer environment value, using default", "key", key, "value", value)
	}
	return defaultValue
}
