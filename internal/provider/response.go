package provider

import (
	"encoding/json"
	"strings"
)

// Response represents a parsed CLI response with metadata.
type Response struct {
	Content  string        `json:"content"`
	Model    string        `json:"model,omitempty"`
	Provider string        `json:"provider,omitempty"`
	Metadata *ResponseMeta `json:"metadata,omitempty"`
	Raw      string        `json:"-"`
}

// ResponseMeta contains additional response metadata.
type ResponseMeta struct {
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	TotalTokens  int    `json:"total_tokens,omitempty"`
	StopReason   string `json:"stop_reason,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

// claudeJSONResponse represents Claude CLI JSON output.
type claudeJSONResponse struct {
	Type    string `json:"type"`
	Model   string `json:"model,omitempty"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
	Usage      *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
	Result    string `json:"result,omitempty"` // for simpler responses
	SessionID string `json:"session_id,omitempty"`
}

// ParseClaudeJSON parses Claude CLI JSON output.
func ParseClaudeJSON(data string) (*Response, error) {
	var raw claudeJSONResponse
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		// Not JSON, return as plain text response.
		return &Response{Content: data, Raw: data}, nil
	}

	resp := &Response{
		Model: raw.Model,
		Raw:   data,
	}

	if len(raw.Content) > 0 {
		for _, c := range raw.Content {
			if c.Type == "text" {
				resp.Content += c.Text
			}
		}
	} else if raw.Result != "" {
		resp.Content = raw.Result
	}

	if raw.Usage != nil {
		resp.Metadata = &ResponseMeta{
			InputTokens:  raw.Usage.InputTokens,
			OutputTokens: raw.Usage.OutputTokens,
			TotalTokens:  raw.Usage.InputTokens + raw.Usage.OutputTokens,
			StopReason:   raw.StopReason,
			SessionID:    raw.SessionID,
		}
	}

	return resp, nil
}

// geminiJSONResponse represents Gemini CLI JSON output.
type geminiJSONResponse struct {
	Response   string `json:"response,omitempty"` // Gemini CLI format
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates,omitempty"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
	Text string `json:"text,omitempty"` // for simpler responses
}

// ParseGeminiJSON parses Gemini CLI JSON output.
func ParseGeminiJSON(data string) (*Response, error) {
	var raw geminiJSONResponse
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return &Response{Content: data, Raw: data}, nil
	}

	resp := &Response{Raw: data}

	if raw.Response != "" {
		resp.Content = raw.Response
	} else if raw.Text != "" {
		resp.Content = raw.Text
	} else if len(raw.Candidates) > 0 && len(raw.Candidates[0].Content.Parts) > 0 {
		for _, part := range raw.Candidates[0].Content.Parts {
			resp.Content += part.Text
		}
		resp.Metadata = &ResponseMeta{
			StopReason: raw.Candidates[0].FinishReason,
		}
	}

	if raw.UsageMetadata != nil {
		if resp.Metadata == nil {
			resp.Metadata = &ResponseMeta{}
		}
		resp.Metadata.InputTokens = raw.UsageMetadata.PromptTokenCount
		resp.Metadata.OutputTokens = raw.UsageMetadata.CandidatesTokenCount
		resp.Metadata.TotalTokens = raw.UsageMetadata.TotalTokenCount
	}

	return resp, nil
}

// codexJSONEvent represents a streaming event from Codex CLI --json output.
type codexJSONEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Message   *struct {
		Role    string `json:"role,omitempty"`
		Content string `json:"content,omitempty"`
	} `json:"message,omitempty"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
	Text       string `json:"text,omitempty"`
}

// ParseCodexJSON parses Codex CLI JSON-lines output.
func ParseCodexJSON(data string) (*Response, error) {
	resp := &Response{Raw: data}

	var foundEvents bool
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var event codexJSONEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}
		foundEvents = true

		if event.Message != nil && event.Message.Content != "" {
			resp.Content += event.Message.Content
		}
		if event.Text != "" {
			resp.Content += event.Text
		}

		if event.Usage != nil {
			if resp.Metadata == nil {
				resp.Metadata = &ResponseMeta{}
			}
			resp.Metadata.InputTokens = event.Usage.PromptTokens
			resp.Metadata.OutputTokens = event.Usage.CompletionTokens
			resp.Metadata.TotalTokens = event.Usage.TotalTokens
		}
		if event.StopReason != "" {
			if resp.Metadata == nil {
				resp.Metadata = &ResponseMeta{}
			}
			resp.Metadata.StopReason = event.StopReason
		}
		if event.SessionID != "" {
			if resp.Metadata == nil {
				resp.Metadata = &ResponseMeta{}
			}
			resp.Metadata.SessionID = event.SessionID
		}
	}

	if foundEvents && resp.Content != "" {
		return resp, nil
	}

	// Fallback: not JSON lines, return as plain text.
	return &Response{Content: data, Raw: data}, nil
}
