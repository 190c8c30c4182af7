package analysis

import "log/slog"

// LLMClient is the capability a handler may use to call the platform's LLM.
// The concrete implementation lives outside this package; handlers that set
// AllowLLM on their definition receive whatever client the caller injected.
type LLMClient interface {
	Complete(prompt string) (string, error)
}

// Context carries the per-invocation collaborators and metadata for one
// handler call. It is ephemeral: built by the caller, passed through the
// execution service, and discarded when the call returns.
type Context struct {
	TaskID   string
	UserID   int64 // 0 when the invocation is not tied to a user
	Metadata map[string]any

	// Optional injected collaborators. Handlers must tolerate either
	// being nil.
	LLM    LLMClient
	Logger *slog.Logger
}

// Log returns the context's logger, or the default logger when none was
// injected, so handlers can log unconditionally.
func (c *Context) Log() *slog.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
