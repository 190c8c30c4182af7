package httpapi

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func createTestProvider(t *testing.T, f *fixture, body map[string]any) map[string]any {
	t.Helper()
	rec := f.request(t, http.MethodPost, "/api/v1/llms", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJSON[map[string]any](t, rec)
}

func providerPath(provider map[string]any) string {
	return "/api/v1/llms/" + strconv.FormatInt(int64(provider["id"].(float64)), 10)
}

func TestListCommonProviders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/llms/common", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	presets := decodeJSON[[]map[string]any](t, rec)
	require.NotEmpty(t, presets)
	require.Equal(t, "openai", presets[0]["key"])
}

func TestCreateProvider_KnownKeyGetsDefaults(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)

	// --- Act ---
	provider := createTestProvider(t, f, map[string]any{
		"provider_key": "OpenAI",
		"api_key":      "sk-abcdefgh12",
	})

	// --- Assert ---
	require.Equal(t, "openai", provider["provider_key"])
	require.Equal(t, "OpenAI", provider["provider_name"])
	require.Equal(t, "https://api.openai.com/v1", provider["base_url"])
	require.Equal(t, false, provider["is_custom"])
	require.Equal(t, "sk-a*******12", provider["masked_api_key"], "the raw key must never be echoed")
}

func TestCreateProvider_CustomRequiresBaseURL(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/llms", map[string]any{
		"provider_name": "In-house",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProvider_DuplicateRejected(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	createTestProvider(t, f, map[string]any{"provider_key": "openai"})

	// --- Act ---
	rec := f.request(t, http.MethodPost, "/api/v1/llms", map[string]any{"provider_key": "openai"})

	// --- Assert ---
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProviderCRUD(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	provider := createTestProvider(t, f, map[string]any{"provider_key": "deepseek", "api_key": "sk-one"})
	path := providerPath(provider)

	// --- Act / Assert ---
	rec := f.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPatch, path, map[string]any{"provider_name": "DeepSeek EU"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeJSON[map[string]any](t, rec)
	require.Equal(t, "DeepSeek EU", updated["provider_name"])

	// An empty api_key patch must not wipe the stored key.
	rec = f.request(t, http.MethodPatch, path, map[string]any{"api_key": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, decodeJSON[map[string]any](t, rec)["masked_api_key"])

	rec = f.request(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProvider_NotFoundAndBadID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/llms/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/v1/llms/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelManagement(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	provider := createTestProvider(t, f, map[string]any{"provider_key": "openai"})
	path := providerPath(provider)

	// --- Act ---
	rec := f.request(t, http.MethodPost, path+"/models", map[string]any{
		"name":              "gpt-4o-mini",
		"concurrency_limit": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	model := decodeJSON[map[string]any](t, rec)
	modelPath := path + "/models/" + strconv.FormatInt(int64(model["id"].(float64)), 10)

	rec = f.request(t, http.MethodPatch, modelPath, map[string]any{"quota": 500})
	require.Equal(t, http.StatusOK, rec.Code)

	// --- Assert ---
	rec = f.request(t, http.MethodGet, path, nil)
	fetched := decodeJSON[map[string]any](t, rec)
	models := fetched["models"].([]any)
	require.Len(t, models, 1)
	require.Equal(t, 500.0, models[0].(map[string]any)["quota"])

	// Deleting the last model archives the provider card.
	rec = f.request(t, http.MethodDelete, modelPath, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, "archived providers stay fetchable by id")
	require.Equal(t, true, decodeJSON[map[string]any](t, rec)["is_archived"])
	require.Empty(t, f.store.ListProviders("", 50, 0))
}

func TestCreateModel_MissingNameRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	provider := createTestProvider(t, f, map[string]any{"provider_key": "openai"})

	rec := f.request(t, http.MethodPost, providerPath(provider)+"/models", map[string]any{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
