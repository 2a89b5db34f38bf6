package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultReadTimeoutSeconds is the default read timeout in seconds
	DefaultReadTimeoutSeconds = 10
	// DefaultWriteTimeoutSeconds is the default write timeout in seconds
	DefaultWriteTimeoutSeconds = 30
	// DefaultShutdownTimeoutSeconds is the default shutdown timeout in seconds
	DefaultShutdownTimeoutSeconds = 30
)

type Config struct {
	Debug       bool             `yaml:"debug"` // Application debug mode (controls log level and format)
	Server      ServerConfig     `yaml:"server"`
	Storage     StorageConfig    `yaml:"storage"`
	Discovery   DiscoveryConfig  `yaml:"discovery"`
	LLM         LLMConfig        `yaml:"llm"`
	AuditMirror MirrorConfig     `yaml:"audit_mirror"`
	Connectors  ConnectorsConfig `yaml:"connectors"`
}

type ServerConfig struct {
	Address         string        `yaml:"address"`       // e.g., ":8085"
	ReadTimeout     time.Duration `yaml:"read_timeout"`  // Default: 10s
	WriteTimeout    time.Duration `yaml:"write_timeout"` // Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"` // Directory holding the JSON state buckets
}

type DiscoveryConfig struct {
	Timeout         time.Duration `yaml:"timeout"`            // Per-source fetch timeout (default: 8s)
	MaxItemsPerFeed int           `yaml:"max_items_per_feed"` // Default: 8
}

type LLMConfig struct {
	Enabled     bool          `yaml:"enabled"`
	URL         string        `yaml:"url"` // Collaborator base URL, e.g. "http://localhost:8000"
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
}

type MirrorConfig struct {
	Enabled     bool          `yaml:"enabled"`
	URL         string        `yaml:"url"` // Audit sink base URL
	Timeout     time.Duration `yaml:"timeout"`
	Source      string        `yaml:"source"`
	IngestToken string        `yaml:"ingest_token"`
}

type ConnectorsConfig struct {
	Timeout   time.Duration `yaml:"timeout"`    // Outbound publish timeout (default: 15s)
	DevtoTags []string      `yaml:"devto_tags"` // Default article tags for dev.to publishes
}

// Validate checks if the server configuration is valid and sets defaults.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		c.Address = ":8085" // Default port
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeoutSeconds * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeoutSeconds * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeoutSeconds * time.Second
	}
	return nil
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if c.LLM.Enabled && c.LLM.URL == "" {
		return errors.New("llm.url is required when llm.enabled is true")
	}
	if c.AuditMirror.Enabled && c.AuditMirror.URL == "" {
		return errors.New("audit_mirror.url is required when audit_mirror.enabled is true")
	}
	if c.Discovery.Timeout < 0 {
		return fmt.Errorf("discovery.timeout must not be negative, got %v", c.Discovery.Timeout)
	}
	return nil
}

// setDefaults sets default values for configuration fields
func setDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Discovery.Timeout == 0 {
		cfg.Discovery.Timeout = 8 * time.Second
	}
	if cfg.Discovery.MaxItemsPerFeed == 0 {
		cfg.Discovery.MaxItemsPerFeed = 8
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 600
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.AuditMirror.Timeout == 0 {
		cfg.AuditMirror.Timeout = 800 * time.Millisecond
	}
	if cfg.AuditMirror.Source == "" {
		cfg.AuditMirror.Source = "module.brand_studio"
	}
	if cfg.Connectors.Timeout == 0 {
		cfg.Connectors.Timeout = 15 * time.Second
	}
}

// overrideWithEnvVars overrides configuration with environment variables
func overrideWithEnvVars(cfg *Config) {
	if dataDir := os.Getenv("BRAND_STUDIO_DATA_DIR"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if llmURL := os.Getenv("BRAND_STUDIO_LLM_URL"); llmURL != "" {
		cfg.LLM.URL = llmURL
		cfg.LLM.Enabled = true
	}
	if mirrorURL := os.Getenv("BRAND_STUDIO_AUDIT_URL"); mirrorURL != "" {
		cfg.AuditMirror.URL = mirrorURL
		cfg.AuditMirror.Enabled = true
	}
	if token := os.Getenv("BRAND_STUDIO_AUDIT_TOKEN"); token != "" {
		cfg.AuditMirror.IngestToken = token
	}
	if appDebug := os.Getenv("APP_DEBUG"); appDebug != "" {
		cfg.Debug = parseBool(appDebug)
	}
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	setDefaults(&cfg)

	// Override with environment variables if present
	overrideWithEnvVars(&cfg)

	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("server config validation: %w", err)
	}

	// Override server config with environment variable if present
	if port := os.Getenv("BRAND_STUDIO_PORT"); port != "" {
		cfg.Server.Address = ":" + port
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// parseBool parses a string value as a boolean.
// Returns true for "true", "1", "yes" (case-insensitive), false otherwise.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
