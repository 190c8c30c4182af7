package analysis

import "regexp"

// moduleIDPattern constrains module ids to a stable, URL-safe alphabet.
var moduleIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParameterType describes how a raw parameter value is coerced and which
// form control the frontend renders for it.
type ParameterType string

const (
	ParameterTypeText   ParameterType = "text"
	ParameterTypeNumber ParameterType = "number"
	ParameterTypeSelect ParameterType = "select"
	ParameterTypeRegex  ParameterType = "regex"
)

// ParameterSpec describes a single user-supplied parameter a module accepts.
// Keys are unique within a definition's parameter list.
type ParameterSpec struct {
	Key          string        `json:"key"`
	Label        string        `json:"label"`
	Type         ParameterType `json:"type"`
	Required     bool          `json:"required"`
	Default      any           `json:"default,omitempty"`
	Options      []any         `json:"options,omitempty"`
	HelpText     string        `json:"help_text,omitempty"`
	RegexPattern string        `json:"regex_pattern,omitempty"`
}

// ColumnMeta carries the display metadata for one column of a result table.
type ColumnMeta struct {
	Name         string         `json:"name"`
	Label        string         `json:"label"`
	Description  string         `json:"description,omitempty"`
	Visualizable []string       `json:"visualizable"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Definition is the registration-time description of an analysis module.
// It is treated as immutable once registered; Replace installs a new
// Definition instead of mutating the stored one.
type Definition struct {
	ModuleID        string          `json:"module_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Parameters      []ParameterSpec `json:"parameters"`
	RequiredColumns []string        `json:"required_columns"`
	Tags            []string        `json:"tags"`
	ProtocolVersion string          `json:"protocol_version"`
	AllowLLM        bool            `json:"allow_llm"`
}

// ExecutionRequest is the caller-supplied description of one module run.
type ExecutionRequest struct {
	ModuleID   string         `json:"module_id"`
	TaskID     string         `json:"task_id"`
	Parameters map[string]any `json:"parameters"`
}
