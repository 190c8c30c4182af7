// Package analysis provides the pluggable analysis-module subsystem.
//
// A module is a named unit of analysis logic identified by a stable string
// id. The Registry maps module ids to (Definition, Handler) pairs and is
// responsible for parameter validation and dataset requirement checks. The
// ExecutionService orchestrates a single invocation: it resolves the module,
// validates the request against the definition, and calls the handler either
// on the caller's goroutine or on a bounded worker pool.
//
// During application startup, the registry is populated with the built-in
// modules; tests and administrative callers may register, replace, or remove
// modules at runtime through the same lock-guarded API.
package analysis
