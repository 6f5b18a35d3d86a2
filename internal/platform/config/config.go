package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string `validate:"required,numeric"`

	CFAPIBaseURL  string        `validate:"required,url"`
	CFHTTPTimeout time.Duration `validate:"gt=0"`

	StoreDriver string `validate:"oneof=sqlite postgres"`
	SQLitePath  string `validate:"required_if=StoreDriver sqlite"`

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr          string
	RedisPassword      string
	RedisDB            int           `validate:"min=0"`
	SubmissionCacheTTL time.Duration `validate:"gte=0"`

	SavedQueryLimit       int    `validate:"min=1"`
	DefaultSelectorPolicy string `validate:"oneof=earliest most_recent"`
	LogLevel              string `validate:"oneof=debug info warn error"`

	OTLPEndpoint string `validate:"omitempty,url"`
}

var AppConfig *Config

// Load reads .env (if present) and the environment into AppConfig.
func Load() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// FromEnv builds a Config from the current environment and defaults.
func FromEnv() *Config {
	cfg := &Config{
		APIPort:               getEnv("API_PORT", "8080"),
		CFAPIBaseURL:          getEnv("CF_API_BASE_URL", "https://codeforces.com/api"),
		CFHTTPTimeout:         getEnvAsDuration("CF_HTTP_TIMEOUT", 20*time.Second),
		StoreDriver:           getEnv("STORE_DRIVER", "sqlite"),
		SQLitePath:            getEnv("SQLITE_PATH", "cf_finder.db"),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "user"),
		DBPassword:            getEnv("DB_PASSWORD", "password"),
		DBName:                getEnv("DB_NAME", "cf_finder"),
		DBSslMode:             getEnv("DB_SSLMODE", "disable"),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvAsInt("REDIS_DB", 0),
		SubmissionCacheTTL:    getEnvAsDuration("SUBMISSION_CACHE_TTL", 5*time.Minute),
		SavedQueryLimit:       getEnvAsInt("SAVED_QUERY_LIMIT", 10),
		DefaultSelectorPolicy: getEnv("DEFAULT_SELECTOR_POLICY", "most_recent"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		OTLPEndpoint:          getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode
	return cfg
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
