package config

import (
	"fmt"
	"net/url"
	"os"

	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

const (
	DefaultStepMs            = 100
	DefaultDwellMs           = 300
	DefaultCollectionPauseMs = 800
	DefaultCashierPauseMs    = 1000
	DefaultProcessingPauseMs = 1000
	DefaultCellSize          = 20
	DefaultCacheTTLSeconds   = 300
	DefaultGrpcPort          = 50051
)

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, helpers.NewConfigurationError("failed to read config file '%s': %v", configPath, err)
	}

	// 2. Unmarshal over the defaults so omitted keys keep them
	config := Default()
	if err := yaml.Unmarshal(data, config.MConfig); err != nil {
		return nil, helpers.NewConfigurationError("failed to parse config from YAML: %v", err)
	}

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Default returns a configuration usable against a local simulation API.
func Default() *Config {
	return &Config{MConfig: &models.MConfig{
		Name:     "shop-sim-viewer",
		Host:     "127.0.0.1",
		Port:     8000,
		LogLevel: "INFO",
		GrpcHost: "127.0.0.1",
		GrpcPort: DefaultGrpcPort,
		API: models.MAPIConfig{
			BaseURL:   "http://localhost:5000",
			UserAgent: "shop-sim-viewer/1.0",
		},
		Storage: models.MStorageConfig{
			DBType: "sqlite",
			DBPath: "shop_sim.db",
		},
		Animation: models.MAnimationConfig{
			StepMs:            DefaultStepMs,
			DwellMs:           DefaultDwellMs,
			CollectionPauseMs: DefaultCollectionPauseMs,
			CashierPauseMs:    DefaultCashierPauseMs,
			ProcessingPauseMs: DefaultProcessingPauseMs,
		},
		Catalog: models.MCatalogConfig{CacheTTLSeconds: DefaultCacheTTLSeconds},
		Viewer: models.MViewerConfig{
			CellSize:     DefaultCellSize,
			DefaultStart: models.MPosition{Row: 0, Col: 15},
		},
	}}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration
	if c.Name == "" {
		return helpers.NewConfigurationError("application name cannot be empty")
	}

	// Validate Server configuration
	if c.Host == "" {
		return helpers.NewConfigurationError("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return helpers.NewConfigurationError("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return helpers.NewConfigurationError("invalid grpc port number: %d", c.GrpcPort)
	}

	// Validate Storage configuration
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return helpers.NewConfigurationError("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return helpers.NewConfigurationError("connection string cannot be empty for postgres")
		}
	case "":
		return helpers.NewConfigurationError("database type cannot be empty")
	default:
		return helpers.NewConfigurationError("unsupported database type: %s", c.Storage.DBType)
	}

	// Validate API configuration
	if c.API.BaseURL == "" {
		return helpers.NewConfigurationError("api base_url cannot be empty")
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return helpers.NewConfigurationError("invalid api base_url: %q", c.API.BaseURL)
	}
	if c.API.Proxy != "" {
		if _, err := url.Parse(c.API.Proxy); err != nil {
			return helpers.NewConfigurationError("invalid api proxy: %v", err)
		}
	}
	if c.API.TimeoutSeconds < 0 {
		return helpers.NewConfigurationError("api timeout cannot be negative")
	}

	// Validate pacing
	a := c.Animation
	for name, v := range map[string]int{
		"step_ms":             a.StepMs,
		"dwell_ms":            a.DwellMs,
		"collection_pause_ms": a.CollectionPauseMs,
		"cashier_pause_ms":    a.CashierPauseMs,
		"processing_pause_ms": a.ProcessingPauseMs,
	} {
		if v < 0 {
			return helpers.NewConfigurationError("animation %s cannot be negative", name)
		}
	}

	if c.Catalog.CacheTTLSeconds < 0 {
		return helpers.NewConfigurationError("catalog cache ttl cannot be negative")
	}
	if c.Viewer.CellSize <= 0 {
		return helpers.NewConfigurationError("viewer cell size must be greater than 0")
	}
	if c.Viewer.DefaultStart.Row < 0 || c.Viewer.DefaultStart.Col < 0 {
		return helpers.NewConfigurationError("viewer default start cannot be negative")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
