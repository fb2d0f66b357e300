package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Defaults.Mode != "autonomous" {
		t.Errorf("wrong default mode: %s", cfg.Defaults.Mode)
	}
	if cfg.Defaults.StanceMode != "free" {
		t.Errorf("wrong default stance mode: %s", cfg.Defaults.StanceMode)
	}
	if cfg.Defaults.MaxRounds != 3 {
		t.Errorf("wrong default max rounds: %d", cfg.Defaults.MaxRounds)
	}
	if !cfg.Defaults.Scoring {
		t.Error("scoring should default to enabled")
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("wrong storage driver: %s", cfg.Storage.Driver)
	}
	if cfg.Server.Port != 8184 {
		t.Errorf("wrong server port: %d", cfg.Server.Port)
	}

	for _, name := range []string{"claude", "gemini", "codex", "gemini-api", "mock"} {
		if _, ok := cfg.Providers[name]; !ok {
			t.Errorf("missing provider: %s", name)
		}
	}
	claude := cfg.Providers["claude"]
	if claude.Command != "claude" || !claude.Enabled {
		t.Errorf("wrong claude config: %+v", claude)
	}
	if claude.Timeout != 5*time.Minute {
		t.Errorf("wrong claude timeout: %s", claude.Timeout)
	}
	if cfg.Providers["mock"].Timeout != 1*time.Minute {
		t.Errorf("wrong mock timeout: %s", cfg.Providers["mock"].Timeout)
	}
	if cfg.Providers["gemini-api"].APIKeyEnv != "GEMINI_API_KEY" {
		t.Error("gemini-api should read its key from the environment")
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "parley-config-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	cfg, err := LoadFrom(filepath.Join(dir, "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Server.Port != 8184 {
		t.Errorf("wrong port: %d", cfg.Server.Port)
	}
	if len(cfg.Providers) != 5 {
		t.Errorf("wrong provider count: %d", len(cfg.Providers))
	}
}

func TestLoadFromFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "parley-config-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	content := `defaults:
  mode: supervised
  max_rounds: 7
server:
  port: 9999
storage:
  driver: memory
providers:
  claude:
    command: claude
    timeout: 2m
    enabled: false
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Defaults.Mode != "supervised" {
		t.Errorf("wrong mode: %s", cfg.Defaults.Mode)
	}
	if cfg.Defaults.MaxRounds != 7 {
		t.Errorf("wrong max rounds: %d", cfg.Defaults.MaxRounds)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Defaults.StanceMode != "free" {
		t.Errorf("stance mode should keep its default: %s", cfg.Defaults.StanceMode)
	}
	if !cfg.Defaults.Scoring {
		t.Error("scoring should keep its default")
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("wrong port: %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("wrong driver: %s", cfg.Storage.Driver)
	}

	if cfg.Providers["claude"].Enabled {
		t.Error("claude should be disabled")
	}
	if cfg.Providers["claude"].Timeout != 2*time.Minute {
		t.Errorf("wrong claude timeout: %s", cfg.Providers["claude"].Timeout)
	}
	// Providers not mentioned in the file are merged in from defaults.
	if len(cfg.Providers) != 5 {
		t.Errorf("wrong provider count: %d", len(cfg.Providers))
	}
	if cfg.Providers["gemini"].Command != "gemini" {
		t.Error("default providers should be merged in")
	}
}

func TestLoadFromRejectsBadYAML(t *testing.T) {
	dir, err := os.MkdirTemp("", "parley-config-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{{not yaml"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestSaveToAndReload(t *testing.T) {
	dir, err := os.MkdirTemp("", "parley-config-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	cfg := Default()
	cfg.Server.Port = 9251
	cfg.Defaults.Moderator = "gemini"

	path := filepath.Join(dir, "nested", "deeper", "config.yaml")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Server.Port != 9251 {
		t.Errorf("port lost in roundtrip: %d", loaded.Server.Port)
	}
	if loaded.Defaults.Moderator != "gemini" {
		t.Errorf("moderator lost in roundtrip: %s", loaded.Defaults.Moderator)
	}
	if len(loaded.Providers) != 5 {
		t.Errorf("providers lost in roundtrip: %d", len(loaded.Providers))
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	ApplyEnvOverrides(cfg, map[string]string{
		"SERVER_PORT":                 "9000",
		"STORAGE_DRIVER":              "postgres",
		"DATABASE_URL":                "postgres://parley@localhost/parley",
		"DEFAULT_MODE":                "participatory",
		"DEFAULT_MAX_ROUNDS":          "6",
		"DEFAULT_EVALUATOR":           "gemini",
		"PROVIDER_GEMINI_API_ENABLED": "false",
		"PROVIDER_TIMEOUT":            "90",
	})

	if cfg.Server.Port != 9000 {
		t.Errorf("wrong port: %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("wrong driver: %s", cfg.Storage.Driver)
	}
	if cfg.Storage.DSN != "postgres://parley@localhost/parley" {
		t.Errorf("wrong dsn: %s", cfg.Storage.DSN)
	}
	if cfg.Defaults.Mode != "participatory" {
		t.Errorf("wrong mode: %s", cfg.Defaults.Mode)
	}
	if cfg.Defaults.MaxRounds != 6 {
		t.Errorf("wrong max rounds: %d", cfg.Defaults.MaxRounds)
	}
	if cfg.Defaults.Evaluator != "gemini" {
		t.Errorf("wrong evaluator: %s", cfg.Defaults.Evaluator)
	}
	if cfg.Providers["gemini-api"].Enabled {
		t.Error("gemini-api should be disabled")
	}
	if !cfg.Providers["claude"].Enabled {
		t.Error("claude enablement should be untouched")
	}
	// Bare numbers are seconds.
	if cfg.Providers["claude"].Timeout != 90*time.Second {
		t.Errorf("wrong timeout: %s", cfg.Providers["claude"].Timeout)
	}
}

func TestApplyEnvOverridesIgnoresBadValues(t *testing.T) {
	cfg := Default()
	ApplyEnvOverrides(cfg, map[string]string{
		"SERVER_PORT":        "not-a-port",
		"DEFAULT_MAX_ROUNDS": "many",
		"PROVIDER_TIMEOUT":   "2m",
	})

	if cfg.Server.Port != 8184 {
		t.Errorf("bad port should be ignored: %d", cfg.Server.Port)
	}
	if cfg.Defaults.MaxRounds != 3 {
		t.Errorf("bad round count should be ignored: %d", cfg.Defaults.MaxRounds)
	}
	// Duration strings work too.
	if cfg.Providers["claude"].Timeout != 2*time.Minute {
		t.Errorf("wrong timeout: %s", cfg.Providers["claude"].Timeout)
	}
}

func TestLoadEnv(t *testing.T) {
	dir, err := os.MkdirTemp("", "parley-config-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, ".env")
	content := "SERVER_PORT=9000\n# a comment\nSTORAGE_DRIVER=memory\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	env, err := LoadEnv(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if env["SERVER_PORT"] != "9000" {
		t.Errorf("wrong SERVER_PORT: %q", env["SERVER_PORT"])
	}
	if env["STORAGE_DRIVER"] != "memory" {
		t.Errorf("wrong STORAGE_DRIVER: %q", env["STORAGE_DRIVER"])
	}
}

func TestCreateRegistry(t *testing.T) {
	cfg := Default()
	codex := cfg.Providers["codex"]
	codex.Enabled = false
	cfg.Providers["codex"] = codex

	registry, err := cfg.CreateRegistry()
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}

	if _, err := registry.Get("mock"); err != nil {
		t.Errorf("mock should be registered: %v", err)
	}
	if _, err := registry.Get("claude"); err != nil {
		t.Errorf("claude should be registered: %v", err)
	}
	if _, err := registry.Get("codex"); err == nil {
		t.Error("disabled provider should not be registered")
	}
}

func TestCreateProvider(t *testing.T) {
	cfg := Default()

	p, err := cfg.CreateProvider("mock")
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	if p.Name() != "mock" {
		t.Errorf("wrong provider name: %s", p.Name())
	}

	if _, err := cfg.CreateProvider("nonexistent"); err == nil {
		t.Error("expected error for unknown provider")
	}

	claude := cfg.Providers["claude"]
	claude.Enabled = false
	cfg.Providers["claude"] = claude
	if _, err := cfg.CreateProvider("claude"); err == nil {
		t.Error("expected error for disabled provider")
	}
}

func TestDBAndPanelsPaths(t *testing.T) {
	cfg := Default()
	if !strings.HasSuffix(cfg.DefaultDBPath(), "parley.db") {
		t.Errorf("wrong db path: %s", cfg.DefaultDBPath())
	}

	cfg.Storage.Path = "/tmp/custom.db"
	if cfg.DefaultDBPath() != "/tmp/custom.db" {
		t.Errorf("explicit path should win: %s", cfg.DefaultDBPath())
	}

	if !strings.HasSuffix(PanelsDir(), "panels") {
		t.Errorf("wrong panels dir: %s", PanelsDir())
	}
}

func TestGenerateExampleParses(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(GenerateExample()), &cfg); err != nil {
		t.Fatalf("example config does not parse: %v", err)
	}
	if cfg.Defaults.Mode != "autonomous" {
		t.Errorf("wrong mode in example: %s", cfg.Defaults.Mode)
	}
	if cfg.Server.Port != 8184 {
		t.Errorf("wrong port in example: %d", cfg.Server.Port)
	}
	if _, ok := cfg.Providers["claude"]; !ok {
		t.Error("example should configure claude")
	}
	if cfg.Providers["claude"].Timeout != 5*time.Minute {
		t.Errorf("wrong timeout in example: %s", cfg.Providers["claude"].Timeout)
	}
}
