package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/promptworks/internal/analysis"
	"github.com/vk/promptworks/internal/store"
)

func registerSummaryModule(t *testing.T, f *fixture, handler analysis.Handler) {
	t.Helper()
	if handler == nil {
		handler = analysis.HandlerFunc(func(ds *analysis.Dataset, params map[string]any, actx *analysis.Context) (*analysis.Result, error) {
			return &analysis.Result{
				Table:           analysis.NewDataset(),
				Insights:        []string{"fine"},
				ProtocolVersion: "v1",
			}, nil
		})
	}
	require.NoError(t, f.registry.Register(&analysis.Definition{
		ModuleID:        "summary",
		Name:            "Summary",
		RequiredColumns: []string{"latency_ms"},
		Parameters: []analysis.ParameterSpec{
			{Key: "threshold", Type: analysis.ParameterTypeNumber},
		},
	}, handler))
}

func TestListAnalysisModules(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	registerSummaryModule(t, f, nil)

	// --- Act ---
	rec := f.request(t, http.MethodGet, "/api/v1/analysis/modules", nil)

	// --- Assert ---
	require.Equal(t, http.StatusOK, rec.Code)
	defs := decodeJSON[[]map[string]any](t, rec)
	require.Len(t, defs, 1)
	require.Equal(t, "summary", defs[0]["module_id"])
}

func TestExecuteAnalysisModule_Success(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	registerSummaryModule(t, f, nil)
	run := f.store.CreateTestRun("experiment", store.RunStatusFinished)

	// --- Act ---
	rec := f.request(t, http.MethodPost, "/api/v1/analysis/modules/execute", map[string]any{
		"module_id": "summary",
		"task_id":   strconv.FormatInt(run.ID, 10),
	})

	// --- Assert ---
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeJSON[map[string]any](t, rec)
	require.Equal(t, "summary", payload["module_id"])
	require.Equal(t, []any{"fine"}, payload["insights"])
}

func TestExecuteAnalysisModule_StatusMapping(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	failing := analysis.HandlerFunc(func(ds *analysis.Dataset, params map[string]any, actx *analysis.Context) (*analysis.Result, error) {
		return nil, errors.New("boom")
	})
	registerSummaryModule(t, f, failing)
	require.NoError(t, f.registry.Register(&analysis.Definition{
		ModuleID:        "needs_column",
		RequiredColumns: []string{"no_such_column"},
	}, failing))
	run := f.store.CreateTestRun("experiment", store.RunStatusFinished)
	taskID := strconv.FormatInt(run.ID, 10)

	testCases := []struct {
		name     string
		body     map[string]any
		expected int
	}{
		{
			name:     "unknown module is 404",
			body:     map[string]any{"module_id": "ghost", "task_id": taskID},
			expected: http.StatusNotFound,
		},
		{
			name:     "missing task is 404",
			body:     map[string]any{"module_id": "summary", "task_id": "99999"},
			expected: http.StatusNotFound,
		},
		{
			name:     "bad parameter is 422",
			body:     map[string]any{"module_id": "summary", "task_id": taskID, "parameters": map[string]any{"threshold": "abc"}},
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "missing required column is 400",
			body:     map[string]any{"module_id": "needs_column", "task_id": taskID},
			expected: http.StatusBadRequest,
		},
		{
			name:     "unparseable task id is 400",
			body:     map[string]any{"module_id": "summary", "task_id": "not-a-number"},
			expected: http.StatusBadRequest,
		},
		{
			name:     "handler error is 500",
			body:     map[string]any{"module_id": "summary", "task_id": taskID},
			expected: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := f.request(t, http.MethodPost, "/api/v1/analysis/modules/execute", tc.body)

			require.Equal(t, tc.expected, rec.Code)
			body := decodeJSON[map[string]any](t, rec)
			require.Contains(t, body, "detail")
		})
	}
}
