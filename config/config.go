package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// This function will Load the ENVIRONMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	// Runtime
	GO_ENV    string `env:"GO_ENV" env-default:"development"`
	PORT      int    `env:"PORT" env-default:"5000"`
	LOG_LEVEL string `env:"LOG_LEVEL"`
	// Database: DATABASE_URL wins over the individual parts
	DATABASE_URL string `env:"DATABASE_URL"`
	DB_USER_NAME string `env:"DB_USER_NAME" env-default:"postgres"`
	DB_PASSWORD  string `env:"DB_PASSWORD"`
	DB_NAME      string `env:"DB_NAME" env-default:"devcamper"`
	DB_HOST      string `env:"DB_HOST" env-default:"localhost"`
	DB_PORT      string `env:"DB_PORT" env-default:"5432"`
	DB_SSL_MODE  string `env:"DB_SSL_MODE" env-default:"disable"`
	// JWT Configuration
	JWT_SECRET        string        `env:"JWT_SECRET" env-required:"true"`
	JWT_ISSUER        string        `env:"JWT_ISSUER" env-default:"devcamper-api"`
	JWT_EXPIRE        time.Duration `env:"JWT_EXPIRE" env-default:"720h"`
	JWT_COOKIE_EXPIRE int           `env:"JWT_COOKIE_EXPIRE" env-default:"30"` // days
	// Redis Configuration
	REDIS_URL         string        `env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
	GEOCODE_CACHE_TTL time.Duration `env:"GEOCODE_CACHE_TTL" env-default:"168h"`
	// Uploads
	STORAGE_DRIVER   string `env:"STORAGE_DRIVER" env-default:"local"` // local or spaces
	FILE_UPLOAD_PATH string `env:"FILE_UPLOAD_PATH" env-default:"./public/uploads"`
	MAX_FILE_UPLOAD  int64  `env:"MAX_FILE_UPLOAD" env-default:"1000000"` // bytes
	// DigitalOcean Spaces Configuration
	DO_SPACES_ACCESS_KEY   string `env:"DO_SPACES_ACCESS_KEY"`
	DO_SPACES_SECRET_KEY   string `env:"DO_SPACES_SECRET_KEY"`
	DO_SPACES_BUCKET       string `env:"DO_SPACES_BUCKET"`
	DO_SPACES_REGION       string `env:"DO_SPACES_REGION"`
	DO_SPACES_ENDPOINT     string `env:"DO_SPACES_ENDPOINT"`
	DO_SPACES_CDN_ENDPOINT string `env:"DO_SPACES_CDN_ENDPOINT"`
	// Geocoder (MapQuest)
	GEOCODER_API_KEY  string `env:"GEOCODER_API_KEY"`
	GEOCODER_BASE_URL string `env:"GEOCODER_BASE_URL" env-default:"https://www.mapquestapi.com/geocoding/v1/address"`
	// Query builder
	MAX_PAGE_LIMIT int `env:"MAX_PAGE_LIMIT" env-default:"100"`
	// Security
	ROLE_GATE_ENABLED   bool   `env:"ROLE_GATE_ENABLED" env-default:"true"`
	ALLOWED_ORIGINS     string `env:"ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
	RATE_LIMIT_REQUESTS int    `env:"RATE_LIMIT_REQUESTS" env-default:"100"` // per minute, 0 disables
	// Jobs
	CRON_ENABLED bool `env:"CRON_ENABLED" env-default:"true"`
	// Seeding
	SEED_DATA_PATH string `env:"SEED_DATA_PATH" env-default:"./data"`
	ADMIN_EMAIL    string `env:"ADMIN_EMAIL"`
	ADMIN_PASSWORD string `env:"ADMIN_PASSWORD"`
}

func Get() (*EnvironmentVariable, error) {
	var envVariables EnvironmentVariable
	if err := cleanenv.ReadEnv(&envVariables); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if envVariables.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}
	if envVariables.MAX_PAGE_LIMIT < 1 {
		envVariables.MAX_PAGE_LIMIT = 100
	}
	if envVariables.MAX_FILE_UPLOAD < 1 {
		return nil, errors.New("MAX_FILE_UPLOAD must be positive")
	}

	return &envVariables, nil
}

// IsProduction reports whether the service runs in production mode
func (e *EnvironmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

// DSN returns the PostgreSQL connection string
func (e *EnvironmentVariable) DSN() string {
	if e.DATABASE_URL != "" {
		return e.DATABASE_URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		e.DB_HOST,
		e.DB_USER_NAME,
		e.DB_PASSWORD,
		e.DB_NAME,
		e.DB_PORT,
		e.DB_SSL_MODE,
	)
}
