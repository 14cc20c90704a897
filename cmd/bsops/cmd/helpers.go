package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/barradesonido/bsops/internal/config"
	"github.com/barradesonido/bsops/internal/database/clickhouse"
	"github.com/barradesonido/bsops/internal/database/postgres"
	"github.com/barradesonido/bsops/internal/logging"
)

// getLogger builds the shared logger honoring BSOPS_LOG_LEVEL.
func getLogger() logging.Logger {
	level := os.Getenv("BSOPS_LOG_LEVEL")
	if level == "" {
		level = "error"
	}
	return logging.New(level)
}

// getDBClient creates a PostgreSQL client from configuration
func getDBClient() (*postgres.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pgConfig := postgres.ConfigFromEnv(cfg.Database.Postgres.UsernameEnv, cfg.Database.Postgres.PasswordEnv)
	pgConfig.Host = cfg.Database.Postgres.Host
	pgConfig.Port = cfg.Database.Postgres.Port
	pgConfig.Database = cfg.Database.Postgres.Database
	pgConfig.SSLMode = cfg.Database.Postgres.SSLMode

	if pgConfig.Username == "" {
		return nil, fmt.Errorf("PostgreSQL username not set. Set the %s environment variable", cfg.Database.Postgres.UsernameEnv)
	}

	return postgres.NewClient(pgConfig), nil
}

// connectDB creates and connects a PostgreSQL client in one step
func connectDB(ctx context.Context) (*postgres.Client, error) {
	client, err := getDBClient()
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return client, nil
}

// getCHClient creates a ClickHouse client from configuration
func getCHClient() (*clickhouse.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	chConfig := clickhouse.ConfigFromEnv(cfg.Database.ClickHouse.UsernameEnv, cfg.Database.ClickHouse.PasswordEnv)
	chConfig.Host = cfg.Database.ClickHouse.Host
	chConfig.Port = cfg.Database.ClickHouse.Port
	chConfig.Database = cfg.Database.ClickHouse.Database
	chConfig.Secure = cfg.Database.ClickHouse.Secure

	return clickhouse.NewClient(chConfig), nil
}

// confirm asks for interactive [y/N] confirmation
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var answer string
	fmt.Scanln(&answer)
	return answer == "y" || answer == "Y"
}
