package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".bsops"
	DefaultConfigFile = "config.yaml"
)

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache,omitempty"`
	Export     ExportConfig     `yaml:"export,omitempty"`
	Images     ImagesConfig     `yaml:"images,omitempty"`
	Storefront StorefrontConfig `yaml:"storefront,omitempty"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// PostgresConfig holds PostgreSQL settings
type PostgresConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
	SSLMode     string `yaml:"ssl_mode"`
}

// ClickHouseConfig holds ClickHouse settings for analytics
type ClickHouseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
	Secure      bool   `yaml:"secure"`
}

// CacheConfig holds Redis settings for the storefront response cache
type CacheConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
	TTLSeconds  int    `yaml:"ttl_seconds"`
}

// ExportConfig holds export settings
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// ImagesConfig holds image pipeline settings
type ImagesConfig struct {
	OriginalsDir string `yaml:"originals_dir"`
	ResizedDir   string `yaml:"resized_dir"`
}

// StorefrontConfig holds storefront API settings
type StorefrontConfig struct {
	Addr            string `yaml:"addr"`
	DefaultCategory string `yaml:"default_category"`
	DefaultLimit    int    `yaml:"default_limit"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:        "localhost",
				Port:        5432,
				Database:    "bsops",
				UsernameEnv: "POSTGRES_USER",
				PasswordEnv: "POSTGRES_PASSWORD",
				SSLMode:     "prefer",
			},
			ClickHouse: ClickHouseConfig{
				Host:        "localhost",
				Port:        9000,
				Database:    "bsops",
				UsernameEnv: "CLICKHOUSE_USERNAME",
				PasswordEnv: "CLICKHOUSE_PASSWORD",
				Secure:      false,
			},
		},
		Cache: CacheConfig{
			Addr:        "localhost:6379",
			PasswordEnv: "REDIS_PASSWORD",
			DB:          0,
			TTLSeconds:  300,
		},
		Export: ExportConfig{
			OutputDir: "./exports",
		},
		Images: ImagesConfig{
			OriginalsDir: "./images/originals",
			ResizedDir:   "./images/resized",
		},
		Storefront: StorefrontConfig{
			Addr:            ":8080",
			DefaultCategory: "Barras de sonido",
			DefaultLimit:    10,
		},
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// Load reads the configuration from the config file
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(configPath)
}

// LoadFrom reads the configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	return &config, nil
}

// Save writes the configuration to the config file
func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return SaveTo(config, configPath)
}

// SaveTo writes the configuration to a specific path
func SaveTo(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Init creates a new config file with defaults
func Init() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	return Save(DefaultConfig())
}

// Exists checks if the config file exists
func Exists() bool {
	configPath, err := GetConfigPath()
	if err != nil {
		return false
	}

	_, err = os.Stat(configPath)
	return err == nil
}

// applyDefaults fills in missing values with defaults
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Database.Postgres.Host == "" {
		config.Database.Postgres.Host = defaults.Database.Postgres.Host
	}
	if config.Database.Postgres.Port == 0 {
		config.Database.Postgres.Port = defaults.Database.Postgres.Port
	}
	if config.Database.Postgres.Database == "" {
		config.Database.Postgres.Database = defaults.Database.Postgres.Database
	}
	if config.Database.ClickHouse.Port == 0 {
		config.Database.ClickHouse.Port = defaults.Database.ClickHouse.Port
	}
	if config.Cache.Addr == "" {
		config.Cache.Addr = defaults.Cache.Addr
	}
	if config.Cache.TTLSeconds <= 0 {
		config.Cache.TTLSeconds = defaults.Cache.TTLSeconds
	}
	if config.Export.OutputDir == "" {
		config.Export.OutputDir = defaults.Export.OutputDir
	}
	if config.Images.OriginalsDir == "" {
		config.Images.OriginalsDir = defaults.Images.OriginalsDir
	}
	if config.Images.ResizedDir == "" {
		config.Images.ResizedDir = defaults.Images.ResizedDir
	}
	if config.Storefront.Addr == "" {
		config.Storefront.Addr = defaults.Storefront.Addr
	}
	if config.Storefront.DefaultCategory == "" {
		config.Storefront.DefaultCategory = defaults.Storefront.DefaultCategory
	}
	if config.Storefront.DefaultLimit <= 0 {
		config.Storefront.DefaultLimit = defaults.Storefront.DefaultLimit
	}
}

// Set updates a specific config value
func Set(key, value string) error {
	config, err := Load()
	if err != nil {
		return err
	}

	switch key {
	case "database.postgres.host":
		config.Database.Postgres.Host = value
	case "database.postgres.database":
		config.Database.Postgres.Database = value
	case "database.postgres.username_env":
		config.Database.Postgres.UsernameEnv = value
	case "database.postgres.password_env":
		config.Database.Postgres.PasswordEnv = value
	case "database.clickhouse.host":
		config.Database.ClickHouse.Host = value
	case "database.clickhouse.database":
		config.Database.ClickHouse.Database = value
	case "cache.addr":
		config.Cache.Addr = value
	case "cache.ttl_seconds":
		ttl, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache.ttl_seconds must be an integer: %w", err)
		}
		config.Cache.TTLSeconds = ttl
	case "export.output_dir":
		config.Export.OutputDir = value
	case "images.originals_dir":
		config.Images.OriginalsDir = value
	case "images.resized_dir":
		config.Images.ResizedDir = value
	case "storefront.addr":
		config.Storefront.Addr = value
	case "storefront.default_category":
		config.Storefront.DefaultCategory = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return Save(config)
}

// Get retrieves a specific config value
func Get(key string) (string, error) {
	config, err := Load()
	if err != nil {
		return "", err
	}

	switch key {
	case "database.postgres.host":
		return config.Database.Postgres.Host, nil
	case "database.postgres.database":
		return config.Database.Postgres.Database, nil
	case "database.postgres.username_env":
		return config.Database.Postgres.UsernameEnv, nil
	case "database.postgres.password_env":
		return config.Database.Postgres.PasswordEnv, nil
	case "database.clickhouse.host":
		return config.Database.ClickHouse.Host, nil
	case "database.clickhouse.database":
		return config.Database.ClickHouse.Database, nil
	case "cache.addr":
		return config.Cache.Addr, nil
	case "cache.ttl_seconds":
		return strconv.Itoa(config.Cache.TTLSeconds), nil
	case "export.output_dir":
		return config.Export.OutputDir, nil
	case "images.originals_dir":
		return config.Images.OriginalsDir, nil
	case "images.resized_dir":
		return config.Images.ResizedDir, nil
	case "storefront.addr":
		return config.Storefront.Addr, nil
	case "storefront.default_category":
		return config.Storefront.DefaultCategory, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}
