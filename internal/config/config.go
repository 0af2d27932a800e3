package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Policy   PolicyConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// PolicyConfig holds the time-tracking policy knobs. All durations are
// evaluated when an operation runs; nothing here drives a background timer.
type PolicyConfig struct {
	// MaxAccuracyMeters caps acceptable GPS reading uncertainty system-wide.
	// 0 means each site's geofence radius is the cap.
	MaxAccuracyMeters float64
	// MaxShiftLength is the longest worked duration auto-approval accepts.
	MaxShiftLength time.Duration
	// ApprovalWindow bounds how long after session close auto-approval may
	// still be granted.
	ApprovalWindow time.Duration
	// ReplayInterval is how often the approval replay job runs.
	ReplayInterval time.Duration
}

func Load() (*Config, error) {
	// .env is optional; production injects real environment variables
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "fieldclock"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Policy configuration
	maxAccuracy, err := strconv.ParseFloat(getEnv("GEOFENCE_MAX_ACCURACY_METERS", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOFENCE_MAX_ACCURACY_METERS: %w", err)
	}

	maxShift, err := time.ParseDuration(getEnv("MAX_SHIFT_LENGTH", "16h"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_SHIFT_LENGTH: %w", err)
	}

	approvalWindow, err := time.ParseDuration(getEnv("APPROVAL_WINDOW", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid APPROVAL_WINDOW: %w", err)
	}

	replayInterval, err := time.ParseDuration(getEnv("APPROVAL_REPLAY_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid APPROVAL_REPLAY_INTERVAL: %w", err)
	}

	config.Policy = PolicyConfig{
		MaxAccuracyMeters: maxAccuracy,
		MaxShiftLength:    maxShift,
		ApprovalWindow:    approvalWindow,
		ReplayInterval:    replayInterval,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Policy.MaxShiftLength <= 0 {
		return fmt.Errorf("MAX_SHIFT_LENGTH must be positive")
	}
	if c.Policy.ApprovalWindow <= 0 {
		return fmt.Errorf("APPROVAL_WINDOW must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
