package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment
type Config struct {
	Port        string `validate:"required,numeric"`
	GinMode     string `validate:"omitempty,oneof=debug release test"`
	Environment string `validate:"required"`
	LogLevel    string `validate:"oneof=debug info warn error"`

	// DatabaseURL selects Postgres; otherwise SQLite at DataPath
	DatabaseURL string
	DataPath    string `validate:"required_without=DatabaseURL"`

	JWTSecret           string `validate:"required"`
	APIMasterSecret     string `validate:"required"`
	PickerSigningSecret string

	AdminUsername string `validate:"required"`
	AdminPassword string `validate:"required"`

	DefaultPickerTTL time.Duration `validate:"gt=0"`
}

var validate = validator.New()

// LoadEnvFiles loads the first .env found in the working directory or its parents
func LoadEnvFiles() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads the configuration from the environment and validates it
func Load() (*Config, error) {
	LoadEnvFiles()

	ttl := 7 * 24 * time.Hour
	if raw := os.Getenv("PICKER_DEFAULT_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PICKER_DEFAULT_TTL: %w", err)
		}
		ttl = d
	}

	cfg := &Config{
		Port:                getenv("PORT", "8000"),
		GinMode:             os.Getenv("GIN_MODE"),
		Environment:         getenv("ENVIRONMENT", "development"),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DataPath:            getenv("DATA_PATH", "shift_picker.db"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		APIMasterSecret:     os.Getenv("API_MASTER_SECRET"),
		PickerSigningSecret: os.Getenv("PICKER_SIGNING_SECRET"),
		AdminUsername:       getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:       getenv("ADMIN_PASSWORD", "admin123"),
		DefaultPickerTTL:    ttl,
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs the struct validation rules
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// IsProduction reports whether logs should be machine-readable
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
