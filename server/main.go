package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shipline/api/routes"
	"shipline/internal/bookings"
	"shipline/internal/inventory"
	"shipline/internal/notifications"
	"shipline/internal/shared/config"
	"shipline/internal/shared/database"
	"shipline/pkg/logger"
	"shipline/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Preload the Lua scripts behind atomic seat operations so the first
	// hold does not pay the load penalty.
	if db.Redis != nil {
		redisStore := inventory.NewRedisStore(db.GetRedis())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := redisStore.PreloadScripts(ctx); err != nil {
			appLogger.Error("Failed to preload Redis Lua scripts", slog.Any("error", err))
			// Scripts load lazily on first use, so keep going.
		} else {
			appLogger.Info("Redis Lua scripts preloaded for atomic seat operations")
		}
		cancel()
	}

	var producer *notifications.Producer
	if cfg.Kafka.Enabled {
		producer, err = notifications.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			appLogger.Error("Failed to initialize Kafka producer", slog.Any("error", err))
			appLogger.Info("Continuing without event publishing")
			producer = nil
		} else {
			defer producer.Close()
			appLogger.Info("Kafka producer initialized",
				slog.Any("brokers", cfg.Kafka.Brokers),
				slog.String("topic", cfg.Kafka.Topic),
			)
		}
	} else {
		appLogger.Info("Kafka disabled: booking events will not be published")
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled && db.Redis != nil {
		rlConfig := &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			BrowseRequests:  cfg.RateLimit.BrowseRequests,
			BookingRequests: cfg.RateLimit.BookingRequests,
			HealthRequests:  cfg.RateLimit.HealthRequests,
		}
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedis(), rlConfig)
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("booking_requests", cfg.RateLimit.BookingRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	appRouter := routes.NewRouter(cfg, db, producer)
	engine := setupEngine(cfg, rateLimiter)
	appRouter.SetupRoutes(engine)

	// Background sweepers: lapsed seat holds and overdue pending bookings.
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	holdSweeper := inventory.NewSweeper(appRouter.InventoryStore(), cfg.Booking.HoldSweepInterval)
	holdSweeper.Start(sweepCtx)
	defer holdSweeper.Stop()

	expirySweeper := bookings.NewExpirySweeper(appRouter.BookingService(), cfg.Booking.ExpirySweepInterval)
	expirySweeper.Start(sweepCtx)
	defer expirySweeper.Stop()

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("redis", db.Redis != nil),
			slog.Bool("kafka", producer != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupEngine(cfg *config.Config, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	return engine
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
