package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PresignExpiryHours bounds the lifetime of URLs handed to the AI
	// gateway and the dashboard. Objects are re-signed on every read.
	PresignExpiryHours int
}

// AIConfig holds credentials and tuning for the LLM vision gateway.
type AIConfig struct {
	APIKey            string
	Model             string
	MaxTokens         int
	RequestTimeoutSec int
}

// OracleConfig selects and configures the policy validation oracle.
// An empty Endpoint selects the deterministic in-process oracle.
type OracleConfig struct {
	Endpoint   string
	TimeoutSec int
}

// DashboardConfig holds the insurer dashboard access settings. The shared
// access code is a deployment placeholder, not a security boundary.
type DashboardConfig struct {
	AccessCode      string
	SessionTTLHours int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	AI        AIConfig
	Oracle    OracleConfig
	Dashboard DashboardConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:           getEnv("MINIO_ENDPOINT", ""),
			AccessKey:          getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:          getEnv("MINIO_SECRET_KEY", ""),
			Bucket:             getEnv("MINIO_BUCKET", "claim-files"),
			UseSSL:             getEnvBool("MINIO_USE_SSL", false),
			PresignExpiryHours: getEnvInt("MINIO_PRESIGN_EXPIRY_HOURS", 24),
		},
		AI: AIConfig{
			APIKey:            getEnv("AI_GATEWAY_API_KEY", ""),
			Model:             getEnv("AI_MODEL", ""),
			MaxTokens:         getEnvInt("AI_MAX_TOKENS", 4096),
			RequestTimeoutSec: getEnvInt("AI_REQUEST_TIMEOUT_SEC", 60),
		},
		Oracle: OracleConfig{
			Endpoint:   getEnv("POLICY_ORACLE_ENDPOINT", ""),
			TimeoutSec: getEnvInt("POLICY_ORACLE_TIMEOUT_SEC", 10),
		},
		Dashboard: DashboardConfig{
			AccessCode:      getEnv("DASHBOARD_ACCESS_CODE", ""),
			SessionTTLHours: getEnvInt("DASHBOARD_SESSION_TTL_HOURS", 12),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
