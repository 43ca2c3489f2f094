package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadTestConfig reads integration-test database settings from TEST_DB_*
// environment variables. Any missing variable leaves the corresponding field
// zero so the tests can fall back to a default local DSN.
func LoadTestConfig() (*Config, error) {
	// The .env file is optional for tests; CI sets the variables directly.
	// Try both the repo root and the current directory.
	_ = godotenv.Load("./../../.env")
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Database.Host = os.Getenv("TEST_DB_HOST")
	cfg.Database.User = os.Getenv("TEST_DB_USER")
	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")
	cfg.Database.DBName = os.Getenv("TEST_DB_NAME")

	if portStr := os.Getenv("TEST_DB_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
		}
		cfg.Database.Port = port
	}

	return cfg, nil
}
