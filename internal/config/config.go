package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config is the full application configuration surface, materialized once at
// startup from the environment (optionally seeded by a .env file).
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Inventory InventoryConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

type DatabaseConfig struct {
	URL string
}

// InventoryConfig holds domain defaults.
type InventoryConfig struct {
	// DefaultHomeLocation is the home_location new consultants are seeded
	// with. Existing consultants keep whatever theirs is set to.
	DefaultHomeLocation string
}

// Load reads environment variables (optionally from the provided file) and
// returns a validated Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		// Missing .env files are fine when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("SERVER_PORT", "8080"),
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Inventory: InventoryConfig{
			DefaultHomeLocation: getenvWithDefault("DEFAULT_HOME_LOCATION", "Casa"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL must be provided")
	}
	if c.Server.Port == "" {
		return errors.New("SERVER_PORT must not be empty")
	}
	if c.Inventory.DefaultHomeLocation == "" {
		return errors.New("DEFAULT_HOME_LOCATION must not be empty")
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
