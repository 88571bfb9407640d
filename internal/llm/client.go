// Package llm provides a provider-agnostic chat-completions client with
// tool calling. Model identifiers are provider-prefixed
// ("openai/gpt-...", "anthropic/claude-..."); the client resolves the
// prefix to a base URL and API-key environment variable and speaks the
// OpenAI-compatible wire format to all of them.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

// provider maps a model-id prefix to its endpoint and credential source.
type provider struct {
	baseURL   string
	apiKeyEnv string
}

var providers = map[string]provider{
	"openai":     {baseURL: "https://api.openai.com/v1", apiKeyEnv: "OPENAI_API_KEY"},
	"anthropic":  {baseURL: "https://api.anthropic.com/v1", apiKeyEnv: "ANTHROPIC_API_KEY"},
	"openrouter": {baseURL: "https://openrouter.ai/api/v1", apiKeyEnv: "OPENROUTER_API_KEY"},
	"ollama":     {baseURL: "http://localhost:11434/v1", apiKeyEnv: ""},
}

// SanitizeToolName replaces dots with a reserved two-character sequence.
// Several providers reject tool names outside ^[a-zA-Z0-9_-]+$, and the
// external-service catalogue uses dotted server.action names.
func SanitizeToolName(name string) string {
	return strings.ReplaceAll(name, ".", "__")
}

// RestoreToolName reverses SanitizeToolName.
func RestoreToolName(sanitized string) string {
	return strings.ReplaceAll(sanitized, "__", ".")
}

// Message is one entry in a chat-completions conversation. Tool-call
// arguments travel as JSON strings, per the wire format.
type Message struct {
	Role       string            `json:"role"`
	Content    string            `json:"content,omitempty"`
	ToolCalls  []ToolCallPayload `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
}

// ToolCallPayload is a tool call as it appears in an assistant message.
type ToolCallPayload struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the (sanitized) tool name and its arguments as a
// JSON string.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ParsedToolCall is a tool call after parsing: restored name, decoded
// arguments.
type ParsedToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// AgentResponse is the structured result of one completion call.
type AgentResponse struct {
	Text      *string
	ToolCalls []ParsedToolCall
}

// ConvertToolDefinitions renders scenario tool definitions into the
// function-calling format, sanitizing names for the wire.
func ConvertToolDefinitions(tools []scenario.ToolDefinition) []map[string]any {
	converted := make([]map[string]any, 0, len(tools))
	for _, td := range tools {
		props := map[string]any{}
		var required []string
		for _, p := range td.Parameters {
			props[p.Name] = map[string]any{"type": p.Type, "description": p.Description}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		if required == nil {
			required = []string{}
		}
		converted = append(converted, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        SanitizeToolName(td.Name),
				"description": td.Description,
				"parameters": map[string]any{
					"type":       "object",
					"properties": props,
					"required":   required,
				},
			},
		})
	}
	return converted
}

// Client wraps the completion endpoint for one model. Each Complete call is
// self-contained — the client holds no conversation state.
type Client struct {
	model       string // bare model id, prefix stripped
	baseURL     string
	apiKey      string
	tools       []map[string]any
	modelParams map[string]any
	httpClient  *http.Client
}

// Config for a Client.
type Config struct {
	Model       string // provider-prefixed, e.g. "openai/gpt-5.2"
	Tools       []scenario.ToolDefinition
	ModelParams map[string]any
	Timeout     time.Duration
	BaseURL     string // override for tests; normally resolved from the prefix
	APIKey      string // override; normally read from the provider's env var
}

// NewClient resolves the provider prefix and builds a client.
func NewClient(cfg Config) (*Client, error) {
	prefix, bare, found := strings.Cut(cfg.Model, "/")
	if !found {
		return nil, fmt.Errorf("model %q is not provider-prefixed (want e.g. \"openai/...\")", cfg.Model)
	}
	p, ok := providers[prefix]
	if !ok {
		return nil, fmt.Errorf("unknown model provider %q", prefix)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = p.baseURL
	}
	apiKey := cfg.APIKey
	if apiKey == "" && p.apiKeyEnv != "" {
		apiKey = os.Getenv(p.apiKeyEnv)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		model:       bare,
		baseURL:     baseURL,
		apiKey:      apiKey,
		tools:       ConvertToolDefinitions(cfg.Tools),
		modelParams: cfg.ModelParams,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

type completionChoice struct {
	Message struct {
		Content   *string           `json:"content"`
		ToolCalls []ToolCallPayload `json:"tool_calls"`
	} `json:"message"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
}

// Complete sends messages (plus the fixed tool list and model params) and
// parses the first choice. A malformed tool-arguments string is logged with
// the raw payload and propagated — it signals a provider or sanitization
// problem, and swallowing it would hide the bug.
func (c *Client) Complete(ctx context.Context, messages []Message) (*AgentResponse, error) {
	body := map[string]any{
		"model":    c.model,
		"messages": messages,
	}
	if len(c.tools) > 0 {
		body["tools"] = c.tools
	}
	for k, v := range c.modelParams {
		body[k] = v
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion failed: status %d: %s", resp.StatusCode, truncate(string(data), 500))
	}

	var parsed completionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("completion response has no choices")
	}

	choice := parsed.Choices[0]
	out := &AgentResponse{Text: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			log.Error().
				Str("tool_call_id", tc.ID).
				Str("tool_name", tc.Function.Name).
				Str("raw_arguments", tc.Function.Arguments).
				Err(err).
				Msg("malformed tool call arguments")
			return nil, fmt.Errorf("parse arguments for tool %q: %w", tc.Function.Name, err)
		}
		out.ToolCalls = append(out.ToolCalls, ParsedToolCall{
			ID:        tc.ID,
			Name:      RestoreToolName(tc.Function.Name),
			Arguments: args,
		})
	}

	log.Debug().
		Bool("has_tool_calls", len(out.ToolCalls) > 0).
		Int("tool_count", len(out.ToolCalls)).
		Msg("model call complete")

	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
