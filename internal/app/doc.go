// Package app contains the core application logic. It wires together the
// analysis registry, execution service, store, LLM client, and HTTP server,
// and owns the process lifecycle, decoupled from any specific entrypoint.
package app
