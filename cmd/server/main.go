package main

import (
	"context"   // Context for startup checks and shutdown
	"errors"    // Error inspection
	"net/http"  // HTTP server
	"os"        // Process signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Server timeouts

	"mock_trading/internal/api"     // HTTP handlers and router
	"mock_trading/internal/config"  // Configuration
	"mock_trading/internal/db"      // Database connection
	"mock_trading/internal/notify"  // Email notifications
	"mock_trading/internal/quotes"  // Price lookup and cache
	"mock_trading/internal/service" // Application services
	"mock_trading/internal/session" // Redis backed sessions
	"mock_trading/internal/store"   // Persistence
	"mock_trading/internal/utils"   // Redis JSON cache

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	log := newLogger(cfg)      // Setup logger

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err) // Refuse to start half configured
	}

	// Connect to the database and make sure the schema exists
	gdb, err := db.Open(cfg, log)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("failed to migrate DB: %v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	defer redisClient.Close()

	// Test Redis connection
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}

	// Wire the application
	st := store.NewGormStore(gdb)
	sessions := session.NewManager(redisClient, cfg.JWTSecret, cfg.SessionTTL)
	prices := quotes.NewCached(
		quotes.NewAlphaVantage(cfg.PriceAPIURL, cfg.PriceAPIKey, cfg.PriceAPITimeout, log),
		utils.NewJSONCache(redisClient, "price:"),
		cfg.QuoteCacheTTL,
		cfg.HistoryCacheTTL,
		log,
	)
	notifier := notify.New(cfg, log)
	auth := service.NewAuthService(st, sessions, notifier, cfg.StartingBalance, log)
	trading := service.NewTradingService(st, prices, notifier, log)

	// Optional cache warmer
	if cfg.PriceRefreshSchedule != "" {
		warmer := quotes.NewWarmer(prices, st, 5*time.Minute, log) // Bound on one full pass
		c, err := warmer.Start(cfg.PriceRefreshSchedule)
		if err != nil {
			log.Fatalf("invalid PRICE_REFRESH_SCHEDULE: %v", err)
		}
		defer c.Stop()
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		Auth:          auth,
		Trading:       trading,
		Sessions:      sessions,
		Users:         st,
		Log:           log,
		SessionTTL:    sessions.TTL(), // Cookie lifetime matches the Redis key
		SecureCookies: cfg.IsProd,
		CORSOrigins:   cfg.CORSOrigins,
	})
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		log.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort, // Listen address
		Handler:           r,                 // Gin router
		ReadHeaderTimeout: 10 * time.Second,  // Slow client protection
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithField("error", err.Error()).Error("Forced shutdown")
	}
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel // Fall back on unknown level names
	}
	log.SetLevel(level)
	return log
}
