package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Vision       VisionConfig
	Media        MediaConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	SessionTTLHours  int
	BcryptCost       int
	BootstrapAdmin   bool
	AdminUsername    string
	AdminEmail       string
	AdminPassword    string
	SessionCacheTTLS int
}

// VisionConfig controls the damage detector.
type VisionConfig struct {
	DefaultConfidence       float64
	InferenceTimeoutSeconds int
}

// MediaConfig locates uploaded and annotated image storage.
type MediaConfig struct {
	UploadDir string
	OutputDir string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	confidence, err := strconv.ParseFloat(getEnv("VISION_DEFAULT_CONFIDENCE", "0.15"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid VISION_DEFAULT_CONFIDENCE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "road-damage-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SessionTTLHours:  getEnvAsInt("AUTH_SESSION_TTL_HOURS", 24),
			BcryptCost:       getEnvAsInt("AUTH_BCRYPT_COST", 12),
			BootstrapAdmin:   getEnvAsBool("AUTH_BOOTSTRAP_ADMIN", true),
			AdminUsername:    getEnv("AUTH_ADMIN_USERNAME", "admin"),
			AdminEmail:       getEnv("AUTH_ADMIN_EMAIL", "admin@roaddamage.local"),
			AdminPassword:    getEnv("AUTH_ADMIN_PASSWORD", "admin123"),
			SessionCacheTTLS: getEnvAsInt("AUTH_SESSION_CACHE_TTL_SECONDS", 300),
		},
		Vision: VisionConfig{
			DefaultConfidence:       confidence,
			InferenceTimeoutSeconds: getEnvAsInt("VISION_INFERENCE_TIMEOUT_SECONDS", 20),
		},
		Media: MediaConfig{
			UploadDir: getEnv("MEDIA_UPLOAD_DIR", "uploads"),
			OutputDir: getEnv("MEDIA_OUTPUT_DIR", "outputs"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@roaddamage.local"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns how long issued sessions remain valid.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// SessionCacheTTL bounds how long a verified session lives in the cache.
func (a AuthConfig) SessionCacheTTL() time.Duration {
	if a.SessionCacheTTLS <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.SessionCacheTTLS) * time.Second
}

// InferenceTimeout bounds a single detector invocation.
func (v VisionConfig) InferenceTimeout() time.Duration {
	if v.InferenceTimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(v.InferenceTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
