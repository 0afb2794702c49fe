package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/climbup/booking-platform/internal/api/router"
	"github.com/climbup/booking-platform/internal/booking"
	appconfig "github.com/climbup/booking-platform/internal/config"
	"github.com/climbup/booking-platform/internal/consultants"
	"github.com/climbup/booking-platform/internal/http/handlers"
	"github.com/climbup/booking-platform/internal/observability/metrics"
	"github.com/climbup/booking-platform/internal/payments"
	"github.com/climbup/booking-platform/internal/pricing"
	"github.com/climbup/booking-platform/internal/rules"
	"github.com/climbup/booking-platform/internal/scheduling"
	holdsworker "github.com/climbup/booking-platform/internal/worker/holds"
	"github.com/climbup/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Error("failed to connect to mongo", "error", err)
		os.Exit(1)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	mongoSource := rules.NewMongoSource(mongoClient.Database(cfg.MongoDatabase))
	if err := mongoSource.EnsureIndexes(ctx); err != nil {
		// Rule reads degrade to defaults, so index creation failing is not
		// fatal at boot.
		logger.Warn("failed to ensure rule indexes", "error", err)
	}
	ruleSource := rules.NewCachedSource(mongoSource, cfg.RuleCacheTTL)

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	consultantRepo := consultants.NewRepository(pool)
	matcher := consultants.NewMatcher(consultantRepo, ruleSource, logger)

	store := scheduling.NewStore(pool, cfg.HoldCreateMaxRetries, cfg.HoldCreateRetryDelay)
	sideIndex := scheduling.NewSideIndex(redisClient, logger)
	holdService := scheduling.NewHoldService(store, consultantRepo, ruleSource, sideIndex, bookingMetrics, logger).
		WithBaseDuration(cfg.HoldBaseDuration)

	pricingEngine := pricing.NewEngine(ruleSource, bookingMetrics, logger)
	bookingService := booking.NewService(holdService, consultantRepo, ruleSource, pricingEngine, matcher, logger)

	intentCache := payments.NewCache(redisClient, cfg.PaymentIntentTTL)
	paymentService := payments.NewService(intentCache, holdService, logger)

	sweeper := holdsworker.NewSweeper(store, sideIndex, bookingMetrics, logger).
		WithInterval(cfg.HoldSweepInterval).
		WithBatchSize(cfg.HoldSweepBatchSize)
	go sweeper.Run(ctx)

	r := router.New(&router.Config{
		Logger:             logger,
		BookingHandler:     handlers.NewBookingHandler(bookingService, holdService, intentCache, logger),
		ConsultantsHandler: handlers.NewConsultantsHandler(matcher, holdService, logger),
		PaymentsHandler:    handlers.NewPaymentsHandler(paymentService, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
