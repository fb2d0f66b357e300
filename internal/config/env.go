package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file and returns a map of key-value pairs.
func LoadEnv(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

// ApplyEnvOverrides updates the configuration based on environment variables.
func ApplyEnvOverrides(cfg *Config, env map[string]string) {
	// Server
	if val, ok := env["SERVER_PORT"]; ok {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}

	// Storage
	if val, ok := env["STORAGE_DRIVER"]; ok {
		cfg.Storage.Driver = val
	}
	if val, ok := env["STORAGE_PATH"]; ok {
		cfg.Storage.Path = val
	}
	if val, ok := env["DATABASE_URL"]; ok {
		cfg.Storage.DSN = val
	}

	// Defaults
	if val, ok := env["DEFAULT_MODE"]; ok {
		cfg.Defaults.Mode = val
	}
	if val, ok := env["DEFAULT_STANCE_MODE"]; ok {
		cfg.Defaults.StanceMode = val
	}
	if val, ok := env["DEFAULT_MAX_ROUNDS"]; ok {
		if rounds, err := strconv.Atoi(val); err == nil {
			cfg.Defaults.MaxRounds = rounds
		}
	}
	if val, ok := env["DEFAULT_MODERATOR"]; ok {
		cfg.Defaults.Moderator = val
	}
	if val, ok := env["DEFAULT_EVALUATOR"]; ok {
		cfg.Defaults.Evaluator = val
	}

	// Provider enablement and timeouts
	for name, provider := range cfg.Providers {
		envKey := fmt.Sprintf("PROVIDER_%s_ENABLED", envKeyName(name))
		if val, ok := env[envKey]; ok {
			if boolVal, err := strconv.ParseBool(val); err == nil {
				provider.Enabled = boolVal
				cfg.Providers[name] = provider
			}
		}

		// Timeout
		if val, ok := env["PROVIDER_TIMEOUT"]; ok {
			if seconds, err := strconv.Atoi(val); err == nil {
				provider.Timeout = time.Duration(seconds) * time.Second
				cfg.Providers[name] = provider
			} else if duration, err := time.ParseDuration(val); err == nil {
				provider.Timeout = duration
				cfg.Providers[name] = provider
			}
		}
	}
}

// envKeyName normalizes a provider name into an env var fragment.
func envKeyName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
