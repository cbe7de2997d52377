package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host             string
	Port             int
	AllowedOrigins   []string
	RateLimitEnabled bool
	RateLimitPerMin  int
}

// DatabaseConfig holds document store settings
type DatabaseConfig struct {
	Type     string // "postgres", "mongo" or "memory"
	URI      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MongoURI string
	MongoDB  string
}

// AuthConfig holds token settings
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// BlobConfig holds blob store settings
type BlobConfig struct {
	Backend         string // "gcs" or "memory"
	Bucket          string
	CredentialsFile string
	PublicBaseURL   string
}

// MediaConfig holds settings for authoring image/video content
type MediaConfig struct {
	AssetBaseURL      string
	ImageFetchTimeout time.Duration
	MaxImageBytes     int64
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Config holds the complete application configuration
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Blob     BlobConfig
	Media    MediaConfig
	Log      LogConfig
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			AllowedOrigins:  []string{"http://localhost:5173"},
			RateLimitPerMin: 40,
		},
		Database: DatabaseConfig{
			Type:    "postgres",
			Host:    "localhost",
			Port:    5432,
			Name:    "aurora",
			SSLMode: "disable",
			MongoDB: "aurora",
		},
		Auth: AuthConfig{
			TokenTTL: 72 * time.Hour,
		},
		Blob: BlobConfig{
			Backend: "memory",
		},
		Media: MediaConfig{
			AssetBaseURL:      "http://localhost:8080/static",
			ImageFetchTimeout: 10 * time.Second,
			MaxImageBytes:     10 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads .env (if any) and applies environment overrides to the defaults.
func Load() (*Config, error) {
	for _, location := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(location); err == nil {
			break
		}
	}

	cfg := Default()

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	if cfg.IsProduction() {
		cfg.Server.RateLimitEnabled = true
		cfg.Log.Format = "json"
	}

	cfg.Server.Host = getEnvOrDefault("HOST", cfg.Server.Host)
	cfg.Server.Port = getIntOrDefault("PORT", cfg.Server.Port)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		cfg.Server.RateLimitEnabled = v == "true"
	}
	cfg.Server.RateLimitPerMin = getIntOrDefault("RATE_LIMIT_PER_MINUTE", cfg.Server.RateLimitPerMin)

	db := &cfg.Database
	db.Type = strings.ToLower(getEnvOrDefault("DB_TYPE", db.Type))
	switch db.Type {
	case "postgres":
		if uri := os.Getenv("DATABASE_URL"); uri != "" {
			db.URI = uri
			break
		}
		db.Host = getEnvOrDefault("DB_HOST", db.Host)
		db.Port = getIntOrDefault("DB_PORT", db.Port)
		db.User = os.Getenv("DB_USER")
		db.Password = os.Getenv("DB_PASSWORD")
		db.Name = getEnvOrDefault("DB_NAME", db.Name)
		db.SSLMode = getEnvOrDefault("DB_SSLMODE", db.SSLMode)
		if db.User == "" {
			return nil, fmt.Errorf("DB_USER is required when DB_TYPE is postgres and DATABASE_URL is not set")
		}
		db.URI = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode,
		)
	case "mongo":
		db.MongoURI = os.Getenv("MONGO_URI")
		db.MongoDB = getEnvOrDefault("MONGO_DB", db.MongoDB)
		if db.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required when DB_TYPE is mongo")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", db.Type)
	}

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.Auth.JWTSecret == "" {
		if db.Type != "memory" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		cfg.Auth.JWTSecret = "development-only-secret"
	}
	ttl, err := getDurationOrDefault("TOKEN_TTL", cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	cfg.Auth.TokenTTL = ttl

	cfg.Blob.Backend = strings.ToLower(getEnvOrDefault("BLOB_BACKEND", cfg.Blob.Backend))
	cfg.Blob.Bucket = os.Getenv("GCS_BUCKET")
	cfg.Blob.CredentialsFile = os.Getenv("GCS_CREDENTIALS_FILE")
	cfg.Blob.PublicBaseURL = os.Getenv("BLOB_PUBLIC_BASE_URL")
	if cfg.Blob.Backend == "gcs" && cfg.Blob.Bucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET is required when BLOB_BACKEND is gcs")
	}

	cfg.Media.AssetBaseURL = strings.TrimRight(getEnvOrDefault("ASSET_BASE_URL", cfg.Media.AssetBaseURL), "/")
	timeout, err := getDurationOrDefault("IMAGE_FETCH_TIMEOUT", cfg.Media.ImageFetchTimeout)
	if err != nil {
		return nil, err
	}
	cfg.Media.ImageFetchTimeout = timeout

	cfg.Log.Level = getEnvOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvOrDefault("LOG_FORMAT", cfg.Log.Format)

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
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
