package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"resty.dev/v3"
)

// Message is one chat message in the OpenAI chat format.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// InvokeSpec describes one chat-completion invocation.
type InvokeSpec struct {
	BaseURL     string
	APIKey      string
	Model       string
	Messages    []Message
	Temperature *float64
	// Parameters carries additional OpenAI-compatible body fields. The
	// reserved keys (model, messages, stream) are overwritten by the
	// client.
	Parameters map[string]any
	Timeout    time.Duration
}

// Usage is the token spend reported by the upstream API. Fields are nil
// when the upstream omitted them.
type Usage struct {
	PromptTokens     *int64 `json:"prompt_tokens,omitempty"`
	CompletionTokens *int64 `json:"completion_tokens,omitempty"`
	TotalTokens      *int64 `json:"total_tokens,omitempty"`
}

// Invocation is the outcome of one synchronous invocation.
type Invocation struct {
	ID           string
	Payload      map[string]any
	ResponseText string
	Usage        *Usage
	LatencyMS    int64
}

// APIError reports a non-2xx response from the upstream provider.
type APIError struct {
	StatusCode int
	Payload    any
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("llm: upstream returned status %d", e.StatusCode)
}

// Client invokes OpenAI-compatible chat-completion endpoints. It is safe
// for concurrent use.
type Client struct {
	http *resty.Client
}

// NewClient creates a client with a shared connection pool.
func NewClient() *Client {
	return &Client{http: resty.New()}
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// Invoke POSTs a chat-completion request and returns the parsed payload
// along with extracted usage, response text, and measured latency.
func (c *Client) Invoke(ctx context.Context, spec InvokeSpec) (*Invocation, error) {
	body := buildRequestBody(spec)
	url := NormalizeBaseURL(spec.BaseURL) + "/chat/completions"

	start := time.Now()
	res, err := c.http.R().
		SetContext(ctx).
		SetTimeout(spec.Timeout).
		SetAuthToken(spec.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("llm: request failed: %w", err)
	}
	latency := time.Since(start).Milliseconds()

	if res.StatusCode() >= 400 {
		return nil, &APIError{StatusCode: res.StatusCode(), Payload: decodeErrorPayload(res.Bytes())}
	}

	var payload map[string]any
	if err := json.Unmarshal(res.Bytes(), &payload); err != nil {
		return nil, fmt.Errorf("llm: response is not valid JSON: %w", err)
	}

	return &Invocation{
		ID:           uuid.NewString(),
		Payload:      payload,
		ResponseText: extractResponseText(payload),
		Usage:        extractUsage(payload["usage"]),
		LatencyMS:    latency,
	}, nil
}

// buildRequestBody merges the caller's extra parameters with the reserved
// fields the client controls.
func buildRequestBody(spec InvokeSpec) map[string]any {
	body := make(map[string]any, len(spec.Parameters)+3)
	for key, value := range spec.Parameters {
		body[key] = value
	}
	if spec.Temperature != nil {
		if _, ok := body["temperature"]; !ok {
			body["temperature"] = *spec.Temperature
		}
	}
	body["model"] = spec.Model
	body["messages"] = spec.Messages
	delete(body, "stream")
	return body
}

func decodeErrorPayload(raw []byte) any {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return map[string]any{"message": string(raw)}
	}
	return payload
}

// extractResponseText concatenates the generated content across choices,
// accepting both chat (message.content) and completion (text) shapes.
func extractResponseText(payload map[string]any) string {
	choices, ok := payload["choices"].([]any)
	if !ok {
		return ""
	}
	var builder strings.Builder
	for _, item := range choices {
		choice, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if message, ok := choice["message"].(map[string]any); ok {
			if content, ok := message["content"].(string); ok {
				builder.WriteString(content)
				continue
			}
		}
		if text, ok := choice["text"].(string); ok {
			builder.WriteString(text)
		}
	}
	return builder.String()
}

// extractUsage parses an upstream usage block. Missing counters stay nil;
// a missing total is backfilled from the prompt and completion counts.
func extractUsage(raw any) *Usage {
	usageMap, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	usage := &Usage{
		PromptTokens:     usageInt(usageMap["prompt_tokens"]),
		CompletionTokens: usageInt(usageMap["completion_tokens"]),
		TotalTokens:      usageInt(usageMap["total_tokens"]),
	}
	if usage.TotalTokens == nil && (usage.PromptTokens != nil || usage.CompletionTokens != nil) {
		total := int64(0)
		if usage.PromptTokens != nil {
			total += *usage.PromptTokens
		}
		if usage.CompletionTokens != nil {
			total += *usage.CompletionTokens
		}
		usage.TotalTokens = &total
	}
	return usage
}

func usageInt(value any) *int64 {
	switch v := value.(type) {
	case float64:
		n := int64(v)
		return &n
	case int64:
		return &v
	case int:
		n := int64(v)
		return &n
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return &n
		}
	}
	return nil
}
