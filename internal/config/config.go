// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/provider"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Defaults  DefaultsConfig            `yaml:"defaults"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Storage   StorageConfig             `yaml:"storage,omitempty"`
	Server    ServerConfig              `yaml:"server,omitempty"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Driver string `yaml:"driver"`         // sqlite, postgres or memory
	Path   string `yaml:"path,omitempty"` // sqlite database file
	DSN    string `yaml:"dsn,omitempty"`  // postgres connection string
}

// DefaultsConfig holds default debate settings.
type DefaultsConfig struct {
	Mode       string `yaml:"mode"`
	StanceMode string `yaml:"stance_mode"`
	MaxRounds  int    `yaml:"max_rounds"`
	Scoring    bool   `yaml:"scoring"`
	Moderator  string `yaml:"moderator"` // provider[/model] for consensus checks and summaries
	Evaluator  string `yaml:"evaluator"` // provider[/model] for response analysis
}

// ProviderConfig holds provider-specific settings.
type ProviderConfig struct {
	Command      string        `yaml:"command"`
	Args         []string      `yaml:"args,omitempty"`
	DefaultModel string        `yaml:"default_model,omitempty"`
	Models       []string      `yaml:"models,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	MaxRetries   int           `yaml:"max_retries,omitempty"`
	APIKeyEnv    string        `yaml:"api_key_env,omitempty"`
	Enabled      bool          `yaml:"enabled"`
}

// Default returns the default configuration.
func Default() *Config {
	providers := make(map[string]ProviderConfig)
	for name, cmd := range core.DefaultCommandForProvider {
		providers[name] = ProviderConfig{
			Command:      cmd,
			Args:         core.DefaultArgsForProvider[name],
			DefaultModel: core.DefaultModelForProvider[name],
			Models:       core.DefaultModelsForProvider[name],
			Timeout:      5 * time.Minute,
			MaxRetries:   2,
			Enabled:      true,
		}
	}

	// The API-backed Gemini provider reads its key from the environment.
	if g, ok := providers["gemini-api"]; ok {
		g.APIKeyEnv = "GEMINI_API_KEY"
		providers["gemini-api"] = g
	}

	// Adjust mock timeout
	if mock, ok := providers["mock"]; ok {
		mock.Timeout = 1 * time.Minute
		providers["mock"] = mock
	}

	return &Config{
		Defaults: DefaultsConfig{
			Mode:       string(core.ModeAutonomous),
			StanceMode: string(core.StanceFree),
			MaxRounds:  core.DefaultMaxRounds,
			Scoring:    true,
			Moderator:  "claude",
			Evaluator:  "claude",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
		},
		Server: ServerConfig{
			Port: 8184,
		},
		Providers: providers,
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Merge with defaults for any missing providers
	defaultCfg := Default()
	for name, defaultProvider := range defaultCfg.Providers {
		if _, exists := cfg.Providers[name]; !exists {
			cfg.Providers[name] = defaultProvider
		}
	}

	// Apply .env overrides if file exists
	if env, err := LoadEnv(".env"); err == nil {
		ApplyEnvOverrides(cfg, env)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetProvider returns the configuration for a provider.
func (c *Config) GetProvider(name string) (ProviderConfig, bool) {
	p, ok := c.Providers[name]
	return p, ok
}

// ToProviderConfig converts a ProviderConfig to provider.Config.
func (p ProviderConfig) ToProviderConfig(name string) provider.Config {
	cfg := provider.Config{
		Name:         name,
		Command:      p.Command,
		Args:         p.Args,
		DefaultModel: p.DefaultModel,
		Models:       p.Models,
		Timeout:      p.Timeout,
		MaxRetries:   p.MaxRetries,
	}
	if p.APIKeyEnv != "" {
		cfg.APIKey = os.Getenv(p.APIKeyEnv)
	}
	return cfg
}

// CreateProvider creates a provider instance from this configuration.
func (c *Config) CreateProvider(name string) (provider.Provider, error) {
	provCfg, ok := c.GetProvider(name)
	if !ok {
		return nil, fmt.Errorf("provider %s not found in config", name)
	}
	if !provCfg.Enabled {
		return nil, fmt.Errorf("provider %s is disabled", name)
	}
	return provider.New(provCfg.ToProviderConfig(name)), nil
}

// CreateRegistry creates a provider registry from this configuration.
func (c *Config) CreateRegistry() (*provider.Registry, error) {
	registry := provider.NewRegistry()

	for name, provCfg := range c.Providers {
		if !provCfg.Enabled {
			continue
		}
		registry.Register(provider.New(provCfg.ToProviderConfig(name)))
	}

	return registry, nil
}

// DataDir returns the application data directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parley"
	}
	return filepath.Join(home, ".parley")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// DefaultDBPath returns the default sqlite database path, honoring an
// explicit storage path from the config.
func (c *Config) DefaultDBPath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(DataDir(), "parley.db")
}

// PanelsDir returns the directory holding saved panel rosters.
func PanelsDir() string {
	return filepath.Join(DataDir(), "panels")
}

// GenerateExample generates an example configuration file.
func GenerateExample() string {
	example := `# parley configuration file
# Place this file at ~/.parley/config.yaml

defaults:
  mode: autonomous          # autonomous, supervised or participatory
  stance_mode: free         # free, adversarial or assigned
  max_rounds: 3             # Rounds before forced moderation
  scoring: true             # Track per-panelist argument scores
  moderator: claude         # Provider for consensus checks and summaries
  evaluator: claude         # Provider for response analysis

storage:
  driver: sqlite            # sqlite, postgres or memory
  path: ""                  # sqlite file (default ~/.parley/parley.db)
  dsn: ""                   # postgres connection string

server:
  port: 8184

providers:
  claude:
    command: claude
    args: ["--print"]
    default_model: ""       # e.g., "sonnet-4.5", "opus-4.5"
    models: ["opus-4.5", "sonnet-4.5", "haiku-4.5"]
    timeout: 5m
    max_retries: 2          # Retry failed commands (default: 2, total 3 attempts)
    enabled: true

  codex:
    command: codex
    args: []
    default_model: ""
    models: ["gpt-5.2-codex", "gpt-5.2"]
    timeout: 5m
    enabled: true

  gemini:
    command: gemini
    args: []
    default_model: ""
    models: ["gemini-3-pro-preview", "gemini-3-flash-preview"]
    timeout: 5m
    enabled: true

  gemini-api:
    command: ""             # API-backed, no CLI required
    default_model: gemini-3-flash-preview
    api_key_env: GEMINI_API_KEY
    timeout: 5m
    enabled: true
`
	return example
}
