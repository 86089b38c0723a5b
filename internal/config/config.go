package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	LogLevel    string

	HTTPAddr string

	// PublicBaseURL is the externally reachable base URL of this service,
	// used to build webhook callback URLs handed to the upstream.
	PublicBaseURL string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Upstream UpstreamConfig
	Email    EmailConfig
}

// UpstreamConfig describes the external company-data provider endpoints.
type UpstreamConfig struct {
	RiskBaseURL    string
	RiskToken      string
	CompanyBaseURL string
	CompanyToken   string
	Timeout        time.Duration
}

type EmailConfig struct {
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string
	DefaultRecipient string
	QueueSize        int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:           getenv("APP_SERVICE", "riskproxy"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		LogLevel:          strings.ToLower(getenv("LOG_LEVEL", "info")),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		PublicBaseURL:     strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "riskproxy"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		Upstream: UpstreamConfig{
			RiskBaseURL:    strings.TrimRight(getenv("OPENAPI_BASE_URL_RISK", ""), "/"),
			RiskToken:      strings.TrimSpace(getenv("OPENAPI_TOKEN_RISK", "")),
			CompanyBaseURL: strings.TrimRight(getenv("OPENAPI_BASE_URL_COMPANY", ""), "/"),
			CompanyToken:   strings.TrimSpace(getenv("OPENAPI_TOKEN_COMPANY", "")),
			Timeout:        time.Duration(getenvInt("OPENAPI_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Email: EmailConfig{
			SMTPHost:         getenv("EMAIL_HOST", ""),
			SMTPPort:         getenvInt("EMAIL_PORT", 587),
			SMTPUsername:     getenv("EMAIL_HOST_USER", ""),
			SMTPPassword:     getenv("EMAIL_HOST_PASSWORD", ""),
			SMTPFrom:         getenv("DEFAULT_FROM_EMAIL", ""),
			DefaultRecipient: strings.TrimSpace(getenv("DEFAULT_NOTIFICATION_EMAIL", "")),
			QueueSize:        getenvInt("NOTIFICATION_QUEUE_SIZE", 256),
		},
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
