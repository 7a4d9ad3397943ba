package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Metro    MetroConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// MetroConfig locates the metro_config XML document
type MetroConfig struct {
	FilePath string `validate:"required"`
}

type DatabaseConfig struct {
	Host      string `validate:"required"`
	Port      string `validate:"required,numeric"`
	User      string `validate:"required"`
	Password  string
	DBName    string `validate:"required"`
	SSLMode   string `validate:"oneof=disable require verify-ca verify-full"`
	BatchSize int    `validate:"gt=0"`
}

type LoggingConfig struct {
	Level    string `validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	FilePath string
}

var validate = validator.New()

// LoadEnv loads the given .env files (or .env in the working directory)
// if they exist. A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		Metro: MetroConfig{
			FilePath: getEnv("MNMETRO_CONFIG_FILE", "metro_config.xml"),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "5432"),
			User:      getEnv("DB_USER", "postgres"),
			Password:  getEnv("DB_PASSWORD", ""),
			DBName:    getEnv("DB_NAME", "mnmetro"),
			SSLMode:   getEnv("DB_SSLMODE", "disable"),
			BatchSize: getIntEnv("DB_BATCH_SIZE", 1000),
		},
		Logging: LoggingConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: getEnv("LOG_FILE", ""),
		},
	}

	if err := validate.Struct(cfg.Logging); err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the metro config settings
func (c *MetroConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid metro configuration: %w", err)
	}
	return nil
}

// Validate checks the database settings. Only needed by commands that
// talk to Postgres.
func (c *DatabaseConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
