package analysis

// Result is the output of one handler invocation. A fresh Result is
// produced per call; handlers never share mutable state through it.
type Result struct {
	// Table holds the result rows. Never nil; an empty dataset signals
	// "no data".
	Table *Dataset

	// ColumnsMeta describes how to display each table column, in table
	// column order.
	ColumnsMeta []ColumnMeta

	// Insights are short natural-language findings, in presentation order.
	Insights []string

	// LLMUsage reports token spend when the handler called the injected
	// LLM client; nil otherwise.
	LLMUsage map[string]any

	// ProtocolVersion echoes the definition's protocol version so callers
	// can dispatch on result shape.
	ProtocolVersion string

	// Extra is an open-ended, string-keyed payload for module-specific
	// output (chart configs, link maps, structured insight details).
	// Consumers must treat unknown keys as forward-compatible extensions.
	Extra map[string]any
}

// Handler is the executable logic bound to a module definition. Execute is
// called with the dataset, the validated parameter map, and the invocation
// context; it owns none of them beyond the call.
type Handler interface {
	Execute(ds *Dataset, params map[string]any, actx *Context) (*Result, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ds *Dataset, params map[string]any, actx *Context) (*Result, error)

// Execute implements Handler.
func (f HandlerFunc) Execute(ds *Dataset, params map[string]any, actx *Context) (*Result, error) {
	return f(ds, params, actx)
}
