package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// StreamEvent is one re-chunked SSE event ready to forward downstream.
// Data is a compact JSON payload, or "[DONE]" for the terminator.
type StreamEvent struct {
	Data string
	Done bool
}

// StreamSummary is what a completed stream adds up to, for usage
// persistence.
type StreamSummary struct {
	ResponseText string
	Usage        *Usage
	LatencyMS    int64
}

// StreamInvoke POSTs a streaming chat-completion request and forwards the
// upstream SSE events through emit. Every content delta is split into
// per-character sub-events so the frontend can render character by
// character. Usage reporting is forced on via stream_options and captured
// from the final frame.
func (c *Client) StreamInvoke(ctx context.Context, spec InvokeSpec, emit func(StreamEvent) error) (*StreamSummary, error) {
	body := buildRequestBody(spec)
	body["stream"] = true
	if opts, ok := body["stream_options"].(map[string]any); ok {
		if _, set := opts["include_usage"]; !set {
			opts["include_usage"] = true
		}
	} else {
		body["stream_options"] = map[string]any{"include_usage": true}
	}

	url := NormalizeBaseURL(spec.BaseURL) + "/chat/completions"
	start := time.Now()

	res, err := c.http.R().
		SetContext(ctx).
		SetTimeout(spec.Timeout).
		SetAuthToken(spec.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetDoNotParseResponse(true).
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("llm: stream request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode() >= 400 {
		raw, _ := io.ReadAll(res.Body)
		return nil, &APIError{StatusCode: res.StatusCode(), Payload: decodeErrorPayload(raw)}
	}

	summary := &StreamSummary{}
	var generated strings.Builder

	flush := func(eventLines []string) error {
		for _, data := range c.processEvent(eventLines, summary, &generated) {
			event := StreamEvent{Data: data, Done: data == "[DONE]"}
			if err := emit(event); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var eventLines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if err := flush(eventLines); err != nil {
				return nil, err
			}
			eventLines = eventLines[:0]
			continue
		}
		eventLines = append(eventLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("llm: reading stream: %w", err)
	}
	if len(eventLines) > 0 {
		if err := flush(eventLines); err != nil {
			return nil, err
		}
	}

	summary.ResponseText = generated.String()
	summary.LatencyMS = time.Since(start).Milliseconds()
	return summary, nil
}

// processEvent turns one raw SSE event into zero or more outgoing data
// payloads, splitting content into per-character sub-events and recording
// usage and generated text along the way.
func (c *Client) processEvent(lines []string, summary *StreamSummary, generated *strings.Builder) []string {
	if len(lines) == 0 {
		return nil
	}
	var segments []string
	for _, line := range lines {
		if strings.HasPrefix(line, ":") {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			segments = append(segments, strings.TrimLeft(rest, " "))
		}
	}
	if len(segments) == 0 {
		return nil
	}
	data := strings.TrimSpace(strings.Join(segments, "\n"))
	if data == "" {
		return nil
	}
	if data == "[DONE]" {
		return []string{"[DONE]"}
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		// Unparseable frames are dropped rather than forwarded broken.
		return nil
	}

	if usage := extractUsage(payload["usage"]); usage != nil {
		summary.Usage = usage
	}

	base := make(map[string]any, len(payload))
	for key, value := range payload {
		if key != "choices" && key != "usage" {
			base[key] = value
		}
	}

	var events []map[string]any
	if choices, ok := payload["choices"].([]any); ok {
		for _, item := range choices {
			choice, ok := item.(map[string]any)
			if !ok {
				continue
			}
			for _, piece := range splitChoice(choice, generated) {
				event := make(map[string]any, len(base)+1)
				for key, value := range base {
					event[key] = value
				}
				event["choices"] = []any{piece}
				events = append(events, event)
			}
		}
	}

	if len(events) == 0 {
		return []string{compactJSON(payload)}
	}
	if usagePayload, ok := payload["usage"].(map[string]any); ok {
		events[len(events)-1]["usage"] = usagePayload
	}

	out := make([]string, 0, len(events))
	for _, event := range events {
		out = append(out, compactJSON(event))
	}
	return out
}

// splitChoice breaks one choice into per-character sub-chunks. Chat deltas,
// full messages, and legacy text completions are all handled; choices with
// no string content pass through as a single piece.
func splitChoice(choice map[string]any, generated *strings.Builder) []map[string]any {
	common := make(map[string]any, len(choice))
	for key, value := range choice {
		if key != "delta" && key != "message" && key != "text" {
			common[key] = value
		}
	}

	explode := func(container string, obj map[string]any) []map[string]any {
		content, _ := obj["content"].(string)
		if content == "" {
			piece := copyMap(common)
			piece[container] = copyMap(obj)
			return []map[string]any{piece}
		}
		generated.WriteString(content)
		extra := make(map[string]any, len(obj))
		for key, value := range obj {
			if key != "content" {
				extra[key] = value
			}
		}
		var pieces []map[string]any
		for _, symbol := range content {
			inner := copyMap(extra)
			inner["content"] = string(symbol)
			piece := copyMap(common)
			piece[container] = inner
			pieces = append(pieces, piece)
		}
		return pieces
	}

	if delta, ok := choice["delta"].(map[string]any); ok {
		return explode("delta", delta)
	}
	if message, ok := choice["message"].(map[string]any); ok {
		return explode("message", message)
	}
	if text, ok := choice["text"].(string); ok && text != "" {
		generated.WriteString(text)
		var pieces []map[string]any
		for _, symbol := range text {
			piece := copyMap(common)
			piece["text"] = string(symbol)
			pieces = append(pieces, piece)
		}
		return pieces
	}

	return []map[string]any{copyMap(choice)}
}

func copyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

func compactJSON(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
