package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvoke_Success(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var gotBody map[string]any
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"choices": [{"message": {"role": "assistant", "content": "hello"}}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 3}
		}`))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	temp := 0.2
	spec := InvokeSpec{
		BaseURL:     server.URL + "/",
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
		Messages:    []Message{{Role: "user", Content: "hi"}},
		Temperature: &temp,
		Parameters:  map[string]any{"max_tokens": 64, "stream": true},
	}

	// --- Act ---
	invocation, err := client.Invoke(context.Background(), spec)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "hello", invocation.ResponseText)
	require.NotNil(t, invocation.Usage)
	require.Equal(t, int64(9), *invocation.Usage.PromptTokens)
	// Missing total is backfilled from the parts.
	require.Equal(t, int64(12), *invocation.Usage.TotalTokens)
	require.GreaterOrEqual(t, invocation.LatencyMS, int64(0))
	require.NotEmpty(t, invocation.ID)

	require.Equal(t, "Bearer sk-test", gotAuth)
	require.Equal(t, "gpt-4o-mini", gotBody["model"])
	require.Equal(t, 0.2, gotBody["temperature"])
	require.Equal(t, 64.0, gotBody["max_tokens"])
	_, hasStream := gotBody["stream"]
	require.False(t, hasStream, "the stream flag is reserved and must be stripped")
}

func TestInvoke_TemperatureDoesNotOverrideExplicitParameter(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	temp := 0.9
	spec := InvokeSpec{
		BaseURL:     server.URL,
		Model:       "m",
		Messages:    []Message{{Role: "user", Content: "hi"}},
		Temperature: &temp,
		Parameters:  map[string]any{"temperature": 0.1},
	}

	// --- Act ---
	_, err := client.Invoke(context.Background(), spec)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 0.1, gotBody["temperature"])
}

func TestInvoke_UpstreamErrorKeepsStatusAndPayload(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	// --- Act ---
	_, err := client.Invoke(context.Background(), InvokeSpec{
		BaseURL:  server.URL,
		Model:    "m",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})

	// --- Assert ---
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	payload, ok := apiErr.Payload.(map[string]any)
	require.True(t, ok)
	require.Contains(t, payload, "error")
}

func TestInvoke_LegacyTextCompletionShape(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"text": "plain "}, {"text": "completion"}]}`))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	// --- Act ---
	invocation, err := client.Invoke(context.Background(), InvokeSpec{
		BaseURL:  server.URL,
		Model:    "m",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "plain completion", invocation.ResponseText)
	require.Nil(t, invocation.Usage)
}
