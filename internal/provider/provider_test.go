package provider

import (
	"context"
	"testing"
	"time"
)

// stubProvider is a minimal in-memory provider for registry and health
// tests.
type stubProvider struct {
	name      string
	available bool
	response  string
	err       error
	calls     int
}

func (s *stubProvider) Name() string        { return s.name }
func (s *stubProvider) DisplayName() string { return s.name }
func (s *stubProvider) Generate(ctx context.Context, req Request) (string, error) {
	s.calls++
	return s.response, s.err
}
func (s *stubProvider) Available() bool      { return s.available }
func (s *stubProvider) Models() []string     { return nil }
func (s *stubProvider) DefaultModel() string { return "" }

func TestRequestInput(t *testing.T) {
	req := Request{Prompt: "What is the topic?"}
	if got := req.Input(); got != "What is the topic?" {
		t.Errorf("wrong input: %q", got)
	}

	req.System = "You are PRO."
	if got := req.Input(); got != "You are PRO.\n\nWhat is the topic?" {
		t.Errorf("system block should lead: %q", got)
	}
}

func TestNewDispatch(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"claude", "*provider.ClaudeProvider"},
		{"gemini", "*provider.GeminiProvider"},
		{"codex", "*provider.CodexProvider"},
		{"openai", "*provider.CodexProvider"},
		{"gemini-api", "*provider.GeminiAPIProvider"},
		{"mock", "*provider.MockProvider"},
		{"some-new-tool", "*provider.GenericProvider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{Name: tt.name, Command: tt.name})
			var got string
			switch p.(type) {
			case *ClaudeProvider:
				got = "*provider.ClaudeProvider"
			case *GeminiProvider:
				got = "*provider.GeminiProvider"
			case *CodexProvider:
				got = "*provider.CodexProvider"
			case *GeminiAPIProvider:
				got = "*provider.GeminiAPIProvider"
			case *MockProvider:
				got = "*provider.MockProvider"
			case *GenericProvider:
				got = "*provider.GenericProvider"
			}
			if got != tt.want {
				t.Errorf("wrong provider type: got %s, want %s", got, tt.want)
			}
			if p.Name() != tt.name {
				t.Errorf("wrong name: %s", p.Name())
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	up := &stubProvider{name: "up", available: true}
	down := &stubProvider{name: "down", available: false}
	registry.Register(up)
	registry.Register(down)

	t.Run("Get", func(t *testing.T) {
		p, err := registry.Get("up")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if p != Provider(up) {
			t.Error("wrong provider returned")
		}
		if p.Name() != "up" {
			t.Errorf("wrong name: %s", p.Name())
		}
		if _, err := registry.Get("missing"); err == nil {
			t.Error("expected error for unknown provider")
		}
	})

	t.Run("Has", func(t *testing.T) {
		if !registry.Has("up") {
			t.Error("up should be registered")
		}
		if registry.Has("missing") {
			t.Error("missing should not be registered")
		}
	})

	t.Run("Names", func(t *testing.T) {
		names := registry.Names()
		if len(names) != 2 {
			t.Errorf("wrong name count: %d", len(names))
		}
	})

	t.Run("List", func(t *testing.T) {
		if got := len(registry.List()); got != 2 {
			t.Errorf("wrong list size: %d", got)
		}
	})

	t.Run("Available", func(t *testing.T) {
		available := registry.Available()
		if len(available) != 1 {
			t.Fatalf("wrong available count: %d", len(available))
		}
		if available[0].Name() != "up" {
			t.Errorf("wrong available provider: %s", available[0].Name())
		}
	})

	t.Run("RegisterReplaces", func(t *testing.T) {
		second := &stubProvider{name: "up", available: true}
		registry.Register(second)
		p, err := registry.Get("up")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if p != Provider(second) {
			t.Error("re-register should replace the provider")
		}
		if len(registry.Names()) != 2 {
			t.Error("re-register should not grow the registry")
		}
	})
}

func TestBaseProviderDefaults(t *testing.T) {
	base := NewBaseProvider(Config{Name: "tool"})

	if base.Name() != "tool" {
		t.Errorf("wrong name: %s", base.Name())
	}
	if base.DisplayName() != "tool" {
		t.Errorf("display name should default to name: %s", base.DisplayName())
	}
	if base.Timeout() != DefaultTimeout {
		t.Errorf("wrong default timeout: %s", base.Timeout())
	}

	custom := NewBaseProvider(Config{
		Name:         "tool",
		DisplayName:  "Tool CLI",
		DefaultModel: "tool-large",
		Models:       []string{"tool-large", "tool-small"},
		Timeout:      30 * time.Second,
	})
	if custom.DisplayName() != "Tool CLI" {
		t.Errorf("wrong display name: %s", custom.DisplayName())
	}
	if custom.DefaultModel() != "tool-large" {
		t.Errorf("wrong default model: %s", custom.DefaultModel())
	}
	if len(custom.Models()) != 2 {
		t.Errorf("wrong model count: %d", len(custom.Models()))
	}
	if custom.Timeout() != 30*time.Second {
		t.Errorf("wrong timeout: %s", custom.Timeout())
	}
}

func TestBaseProviderAvailable(t *testing.T) {
	missing := NewBaseProvider(Config{Name: "x", Command: "parley-no-such-binary"})
	if missing.Available() {
		t.Error("missing executable should not be available")
	}

	// sh is present on any Unix test host.
	present := NewBaseProvider(Config{Name: "x", Command: "sh"})
	if !present.Available() {
		t.Error("sh should be available")
	}
}

func TestGeminiAPIAvailability(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	noKey := NewGeminiAPIProvider(Config{Name: "gemini-api"})
	if noKey.Available() {
		t.Error("provider without key should be unavailable")
	}
	if _, err := noKey.Generate(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Error("expected auth error")
	} else if CategoryOf(err) != CategoryAuth {
		t.Errorf("wrong category: %s", CategoryOf(err))
	}

	withKey := NewGeminiAPIProvider(Config{Name: "gemini-api", APIKey: "key-123"})
	if !withKey.Available() {
		t.Error("provider with key should be available")
	}
	if withKey.DefaultModel() != "gemini-3-flash-preview" {
		t.Errorf("wrong default model: %s", withKey.DefaultModel())
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 10); got != "short" {
		t.Errorf("short text should be untouched: %q", got)
	}
	if got := truncateText("  padded  ", 10); got != "padded" {
		t.Errorf("whitespace should be trimmed: %q", got)
	}
	if got := truncateText("0123456789abcdef", 10); got != "0123456789..." {
		t.Errorf("wrong truncation: %q", got)
	}
}
