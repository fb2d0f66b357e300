package provider

import (
	"testing"
)

func TestParseClaudeJSON(t *testing.T) {
	t.Run("MessageFormat", func(t *testing.T) {
		data := `{"type":"message","model":"sonnet-4.5","content":[{"type":"text","text":"Hello"},{"type":"text","text":" world"}],"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5},"session_id":"sess-1"}`
		resp, err := ParseClaudeJSON(data)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if resp.Content != "Hello world" {
			t.Errorf("wrong content: %q", resp.Content)
		}
		if resp.Model != "sonnet-4.5" {
			t.Errorf("wrong model: %q", resp.Model)
		}
		if resp.Metadata == nil {
			t.Fatal("metadata missing")
		}
		if resp.Metadata.InputTokens != 10 || resp.Metadata.OutputTokens != 5 || resp.Metadata.TotalTokens != 15 {
			t.Errorf("wrong token counts: %+v", resp.Metadata)
		}
		if resp.Metadata.StopReason != "end_turn" {
			t.Errorf("wrong stop reason: %q", resp.Metadata.StopReason)
		}
		if resp.Metadata.SessionID != "sess-1" {
			t.Errorf("wrong session: %q", resp.Metadata.SessionID)
		}
	})

	t.Run("ResultFormat", func(t *testing.T) {
		resp, err := ParseClaudeJSON(`{"type":"result","result":"Done."}`)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if resp.Content != "Done." {
			t.Errorf("wrong content: %q", resp.Content)
		}
	})

	t.Run("PlainTextFallback", func(t *testing.T) {
		resp, err := ParseClaudeJSON("Just a plain answer.")
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if resp.Content != "Just a plain answer." {
			t.Errorf("wrong content: %q", resp.Content)
		}
	})
}

func TestParseGeminiJSON(t *testing.T) {
	t.Run("ResponseFormat", func(t *testing.T) {
		resp, err := ParseGeminiJSON(`{"response":"Hi there"}`)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if resp.Content != "Hi there" {
			t.Errorf("wrong content: %q", resp.Content)
		}
	})

	t.Run("CandidatesFormat", func(t *testing.T) {
		data := `{"candidates":[{"content":{"parts":[{"text":"Part one"},{"text":" and two"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":7,"candidatesTokenCount":3,"totalTokenCount":10}}`
		resp, err := ParseGeminiJSON(data)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if resp.Content != "Part one and two" {
			t.Errorf("wrong content: %q", resp.Content)
		}
		if resp.Metadata == nil {
			t.Fatal("metadata missing")
		}
		if resp.Metadata.StopReason != "STOP" {
			t.Errorf("wrong stop reason: %q", resp.Metadata.StopReason)
		}
		if resp.Metadata.InputTokens != 7 || resp.Metadata.OutputTokens != 3 || resp.Metadata.TotalTokens != 10 {
			t.Errorf("wrong token counts: %+v", resp.Metadata)
		}
	})

	t.Run("PlainTextFallback", func(t *testing.T) {
		resp, err := ParseGeminiJSON("not json at all")
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if resp.Content != "not json at all" {
			t.Errorf("wrong content: %q", resp.Content)
		}
	})
}

func TestParseCodexJSON(t *testing.T) {
	t.Run("EventLines", func(t *testing.T) {
		data := `{"type":"message","message":{"role":"assistant","content":"First. "}}
some stray log line
{"type":"message","message":{"content":"Second."},"usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6},"stop_reason":"stop","session_id":"abc"}`
		resp, err := ParseCodexJSON(data)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if resp.Content != "First. Second." {
			t.Errorf("wrong content: %q", resp.Content)
		}
		if resp.Metadata == nil {
			t.Fatal("metadata missing")
		}
		if resp.Metadata.TotalTokens != 6 {
			t.Errorf("wrong total tokens: %d", resp.Metadata.TotalTokens)
		}
		if resp.Metadata.StopReason != "stop" {
			t.Errorf("wrong stop reason: %q", resp.Metadata.StopReason)
		}
		if resp.Metadata.SessionID != "abc" {
			t.Errorf("wrong session: %q", resp.Metadata.SessionID)
		}
	})

	t.Run("TextEvents", func(t *testing.T) {
		data := `{"type":"output","text":"Streaming"}
{"type":"output","text":" answer"}`
		resp, err := ParseCodexJSON(data)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if resp.Content != "Streaming answer" {
			t.Errorf("wrong content: %q", resp.Content)
		}
	})

	t.Run("PlainTextFallback", func(t *testing.T) {
		resp, err := ParseCodexJSON("plain output")
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if resp.Content != "plain output" {
			t.Errorf("wrong content: %q", resp.Content)
		}
	})

	t.Run("EventsWithoutContentFallBack", func(t *testing.T) {
		data := `{"type":"ping"}`
		resp, err := ParseCodexJSON(data)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if resp.Content != data {
			t.Errorf("content-free events should fall back to raw text: %q", resp.Content)
		}
	})
}
