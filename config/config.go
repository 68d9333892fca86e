package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"yumspot-api/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign tokens; Load replaces it when JWT_SECRET is set
var JWTSecret = []byte("yumspot_dev_secret_change_me")

// JWTTTL is the lifetime of issued access tokens
var JWTTTL = 24 * time.Hour

type Config struct {
	Port        string
	GinMode     string
	DBPath      string
	LogLevel    string
	CORSOrigins []string

	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string

	BrevoAPIKey     string
	MailSenderName  string
	MailSenderEmail string

	RedisURL string

	S3Bucket        string
	S3PublicBaseURL string
}

// Load reads the environment, after merging an optional .env file.
func Load() *Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		GinMode:              getEnv("GIN_MODE", "debug"),
		DBPath:               getEnv("DB_PATH", "yumspot.db"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "*")),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		BrevoAPIKey:          os.Getenv("BREVO_API_KEY"),
		MailSenderName:       getEnv("MAIL_SENDER_NAME", "Yumspot"),
		MailSenderEmail:      getEnv("MAIL_SENDER_EMAIL", "no-reply@yumspot.local"),
		RedisURL:             os.Getenv("REDIS_URL"),
		S3Bucket:             os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:      os.Getenv("S3_PUBLIC_BASE_URL"),
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		JWTSecret = []byte(secret)
	}
	if ttl, err := time.ParseDuration(os.Getenv("JWT_TTL")); err == nil && ttl > 0 {
		JWTTTL = ttl
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewLogger builds the process-wide JSON logger for the given level name.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// Open connects to the sqlite database at path and migrates every model.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	if path == ":memory:" {
		// every connection to :memory: is a separate database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Category{},
		&models.Menu{},
		&models.Food{},
		&models.Follow{},
		&models.UserLikeRestaurant{},
		&models.Review{},
		&models.UserLikeComment{},
		&models.Order{},
		&models.OrderDetails{},
		&models.Payment{},
		&models.Delivery{},
		&models.WebhookEvent{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// InitDB opens the database and installs it as the package-wide DB.
func InitDB(path string) error {
	db, err := Open(path)
	if err != nil {
		return err
	}
	DB = db
	return nil
}
