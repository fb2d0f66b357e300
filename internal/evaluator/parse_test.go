package evaluator

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"BareObject", `{"a": 1}`, `{"a": 1}`},
		{"Fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"FencedNoLanguage", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"SurroundingProse", "Analysis follows:\n{\"a\": {\"b\": 2}}\nCheers", `{"a": {"b": 2}}`},
		{"BracesInsideStrings", `{"text": "use {x} wisely"} tail`, `{"text": "use {x} wisely"}`},
		{"EscapedQuotes", `{"say": "\"quoted\" words"} extra`, `{"say": "\"quoted\" words"}`},
		{"NoObject", "no json here", "no json here"},
		{"Unterminated", `{"a": 1`, `{"a": 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSmartParse(t *testing.T) {
	type schema struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	}

	t.Run("StrictJSON", func(t *testing.T) {
		var s schema
		if err := smartParse(`{"name": "Ada", "confidence": 0.9}`, &s); err != nil {
			t.Fatalf("smartParse error: %v", err)
		}
		if s.Name != "Ada" || s.Confidence != 0.9 {
			t.Errorf("got %+v", s)
		}
	})

	t.Run("TrailingComma", func(t *testing.T) {
		var s schema
		if err := smartParse(`{"name": "Ada", "confidence": 0.9,}`, &s); err != nil {
			t.Fatalf("smartParse error: %v", err)
		}
		if s.Name != "Ada" {
			t.Errorf("got %+v", s)
		}
	})

	t.Run("UnquotedKeys", func(t *testing.T) {
		var s schema
		in := "{\n  name: Ada\n  confidence: 0.9\n}"
		if err := smartParse(in, &s); err != nil {
			t.Fatalf("smartParse error: %v", err)
		}
		if s.Name != "Ada" || s.Confidence != 0.9 {
			t.Errorf("got %+v", s)
		}
	})

	t.Run("Prose", func(t *testing.T) {
		var s schema
		if err := smartParse("I refuse to answer.", &s); err == nil {
			t.Error("expected error for prose input")
		}
	})
}
