// Package runner ties analysis execution to stored test runs: it resolves
// a request's task id into a dataset, builds the invocation context, hands
// the work to the execution service, and serializes results for transport.
package runner

import (
	"fmt"
	"strconv"

	"github.com/vk/promptworks/internal/analysis"
	"github.com/vk/promptworks/internal/store"
)

// TaskNotFoundError reports a task id that resolved to no stored test run.
type TaskNotFoundError struct {
	TaskID int64
}

// Error implements the error interface for TaskNotFoundError.
func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("test run %d does not exist", e.TaskID)
}

// DataLoadError reports a request whose analysis data could not be loaded,
// for example an unparseable task id.
type DataLoadError struct {
	Reason string
}

// Error implements the error interface for DataLoadError.
func (e *DataLoadError) Error() string {
	return e.Reason
}

// datasetColumns is the column order of datasets built from stored results.
var datasetColumns = []string{
	"result_id",
	"test_run_id",
	"run_index",
	"unit_id",
	"unit_name",
	"latency_ms",
	"tokens_used",
	"created_at",
}

// Runner executes analysis modules against stored test runs.
type Runner struct {
	store   *store.Store
	service *analysis.ExecutionService
}

// New creates a runner over the store and execution service.
func New(st *store.Store, service *analysis.ExecutionService) *Runner {
	return &Runner{store: st, service: service}
}

// ExecuteForTestRun resolves the request's task id, loads the run's results
// into a dataset, and executes the requested module synchronously. Errors
// keep their type so the transport layer can map them: UnknownModuleError,
// TaskNotFoundError, ParameterValidationError, RequirementValidationError,
// and DataLoadError each surface distinctly; handler errors pass through.
func (r *Runner) ExecuteForTestRun(req *analysis.ExecutionRequest, userID int64) (*analysis.Result, error) {
	taskID, err := parseTaskID(req.TaskID)
	if err != nil {
		return nil, err
	}
	run, err := r.store.GetTestRun(taskID)
	if err != nil {
		return nil, &TaskNotFoundError{TaskID: taskID}
	}
	ds := r.buildDataset(taskID)

	actx := &analysis.Context{
		TaskID: strconv.FormatInt(taskID, 10),
		UserID: userID,
		Metadata: map[string]any{
			"test_run_id": taskID,
			"module_id":   req.ModuleID,
			"row_count":   ds.Len(),
			"status":      string(run.Status),
		},
	}
	return r.service.ExecuteNow(ds, actx, req)
}

func parseTaskID(raw string) (int64, error) {
	taskID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &DataLoadError{Reason: fmt.Sprintf("task id %q is not a valid integer", raw)}
	}
	return taskID, nil
}

func (r *Runner) buildDataset(taskID int64) *analysis.Dataset {
	ds := analysis.NewDataset(datasetColumns...)
	for _, record := range r.store.ListResults(taskID) {
		ds.Append(analysis.Row{
			"result_id":   record.ID,
			"test_run_id": record.TestRunID,
			"run_index":   record.RunIndex,
			"unit_id":     record.UnitID,
			"unit_name":   record.UnitName,
			"latency_ms":  record.LatencyMS,
			"tokens_used": record.TokensUsed,
			"created_at":  record.CreatedAt,
		})
	}
	return ds
}

// ResultPayload is the transport-level serialization of an analysis result.
type ResultPayload struct {
	ModuleID        string                `json:"module_id"`
	Data            []map[string]any      `json:"data"`
	ColumnsMeta     []analysis.ColumnMeta `json:"columns_meta"`
	Insights        []string              `json:"insights"`
	LLMUsage        map[string]any        `json:"llm_usage,omitempty"`
	ProtocolVersion string                `json:"protocol_version"`
	Extra           map[string]any        `json:"extra,omitempty"`
}

// SerializeResult flattens a result's table into plain records for
// transport.
func SerializeResult(moduleID string, result *analysis.Result) *ResultPayload {
	records := make([]map[string]any, 0, result.Table.Len())
	for _, row := range result.Table.Rows() {
		record := make(map[string]any, len(row))
		for key, value := range row {
			record[key] = value
		}
		records = append(records, record)
	}
	return &ResultPayload{
		ModuleID:        moduleID,
		Data:            records,
		ColumnsMeta:     result.ColumnsMeta,
		Insights:        result.Insights,
		LLMUsage:        result.LLMUsage,
		ProtocolVersion: result.ProtocolVersion,
		Extra:           result.Extra,
	}
}
