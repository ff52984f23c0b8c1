package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Paystack   PaystackConfig
	Settlement SettlementConfig
	Cloudinary CloudinaryConfig
	Firebase   FirebaseConfig
	SMTP       SMTPConfig
}

type ServerConfig struct {
	Port            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimit       int
	RateWindow      time.Duration
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// PaystackConfig holds the processor credentials. An empty SecretKey switches
// the server to the stub gateway.
type PaystackConfig struct {
	BaseURL               string
	SecretKey             string
	WebhookSecret         string
	PlatformRecipientCode string
	Currency              string
	Timeout               time.Duration
}

type SettlementConfig struct {
	CommissionRate        decimal.Decimal
	ReconcileInterval     time.Duration
	MaxCommissionAttempts int
	MaxWebhookAttempts    int
	StuckAfter            time.Duration
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func Load() *Config {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] .env: %v", err)
	}
	secret := getEnv("PAYSTACK_SECRET_KEY", "")
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8099"),
			Env:             getEnv("APP_ENV", "development"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimit:       getEnvInt("RATE_LIMIT", 100),
			RateWindow:      getEnvDuration("RATE_WINDOW", 60*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "mysql"),
			DSN:             getEnv("DB_DSN", "root:@tcp(localhost:3306)/brandlink?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			AccessExpiry: getEnvDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			Issuer:       getEnv("JWT_ISSUER", "brandlink"),
		},
		Paystack: PaystackConfig{
			BaseURL:               getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			SecretKey:             secret,
			WebhookSecret:         getEnv("PAYSTACK_WEBHOOK_SECRET", secret),
			PlatformRecipientCode: getEnv("PLATFORM_RECIPIENT_CODE", ""),
			Currency:              getEnv("PAYMENT_CURRENCY", "NGN"),
			Timeout:               getEnvDuration("PAYSTACK_TIMEOUT", 30*time.Second),
		},
		Settlement: SettlementConfig{
			CommissionRate:        getEnvDecimal("COMMISSION_RATE", decimal.RequireFromString("0.08")),
			ReconcileInterval:     getEnvDuration("RECONCILE_INTERVAL", 10*time.Minute),
			MaxCommissionAttempts: getEnvInt("MAX_COMMISSION_ATTEMPTS", 5),
			MaxWebhookAttempts:    getEnvInt("MAX_WEBHOOK_ATTEMPTS", 10),
			StuckAfter:            getEnvDuration("STUCK_PROCESSING_AFTER", 30*time.Minute),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnv("CLOUDINARY_STATEMENT_FOLDER", "statements"),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "payments@brandlink.io"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("[Config] invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[Config] invalid %s=%q, using %s", key, v, fallback)
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
		log.Printf("[Config] invalid %s=%q, using %s", key, v, fallback)
	}
	return fallback
}
