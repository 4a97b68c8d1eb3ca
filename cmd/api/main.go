package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"attendhub/internal/auth"
	"attendhub/internal/config"
	"attendhub/internal/directory"
	"attendhub/internal/handler"
	"attendhub/internal/httpmiddleware"
	"attendhub/internal/idp"
	"attendhub/internal/queue"
	"attendhub/internal/records"
	"attendhub/internal/reports"
	"attendhub/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "production" || env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	idpClient := idp.New(cfg.IdPBaseURL, cfg.IdPAPIKey, cfg.IdPSkip)
	if err := idpClient.Health(context.Background()); err != nil {
		logger.Warn("identity provider not reachable", zap.Error(err))
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "directory:sync")
	}

	users := directory.NewRepository(db.Client)
	resolver := directory.NewResolver(users, q, logger)
	gate := directory.NewGate(resolver, logger)
	recs := records.NewRepository(db.Client)
	aggregator := reports.NewAggregator(recs, users)
	h := handler.New(gate, users, recs, aggregator, q, redisClient.Client, logger, cfg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())

	if cfg.RateLimitBackend == "redis" {
		r.Use(httpmiddleware.NewRedisWindowLimiter(redisClient.Client, cfg.RateLimitPerMin).GinMiddleware())
	} else {
		r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/token", h.MintToken)

	protected := r.Group("/v1", auth.SessionAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	protected.GET("/me", h.Me)
	protected.PUT("/me", h.UpdateMe)

	protected.GET("/users", h.ListUsers)
	protected.GET("/users/:id", h.GetUser)
	protected.PATCH("/users/:id/role", h.UpdateUserRole)
	protected.DELETE("/users/:id", h.DeactivateUser)

	protected.POST("/attendance", h.CreateRecord)
	protected.GET("/attendance", h.ListRecords)
	protected.GET("/attendance/:id", h.GetRecord)
	protected.PUT("/attendance/:id", h.UpdateRecord)
	protected.DELETE("/attendance/:id", h.DeleteRecord)

	protected.GET("/reports/trend", h.Trend)
	protected.GET("/reports/stats", h.Stats)
	protected.GET("/dashboard", h.Dashboard)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
