package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yumspot-api/config"
	"yumspot-api/handlers"
	"yumspot-api/middleware"
	"yumspot-api/notify"
	"yumspot-api/payment"
	"yumspot-api/routes"
	"yumspot-api/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.InitDB(cfg.DBPath); err != nil {
		logger.Error("failed to connect to database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	logger.Info("database connected and migrated", "path", cfg.DBPath)

	svc := &handlers.Services{Logger: logger}

	// Webhook redeliveries are deduplicated in Redis when available
	var events payment.EventStore = payment.DBEventStore{DB: config.DB}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		events = payment.NewRedisEventStore(rdb, payment.DefaultEventTTL)
	}

	var mailer notify.Mailer = notify.LogMailer{Logger: logger}
	if cfg.BrevoAPIKey != "" {
		mailer = notify.NewBrevoMailer(notify.DefaultBrevoURL, cfg.BrevoAPIKey, notify.Sender{
			Name:  cfg.MailSenderName,
			Email: cfg.MailSenderEmail,
		})
	} else {
		logger.Warn("BREVO_API_KEY not set, emails are only logged")
	}

	if cfg.StripeWebhookSecret != "" {
		svc.Webhook = &payment.WebhookHandler{
			Secret: cfg.StripeWebhookSecret,
			DB:     config.DB,
			Events: events,
			Mailer: mailer,
			Logger: logger,
		}
	} else {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, payment webhook disabled")
	}
	if cfg.StripeSecretKey != "" {
		svc.Gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripePublishableKey)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, payment sheet disabled")
	}

	if cfg.S3Bucket != "" {
		images, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3PublicBaseURL)
		if err != nil {
			logger.Error("failed to configure S3", "error", err)
			os.Exit(1)
		}
		svc.Images = images
	} else {
		logger.Warn("S3_BUCKET not set, image uploads disabled")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))

	// CORS middleware for frontend integration
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	if len(cfg.CORSOrigins) == 0 || cfg.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Yumspot API",
			"version": "1.0.0",
		})
	})

	// Register all routes
	routes.SetupRoutes(r, svc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server running", "addr", "http://localhost:"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
