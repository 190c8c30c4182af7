package analysis

import (
	"fmt"
	"log/slog"
	"sync"
)

// Module is the interface a package implements to contribute analysis
// modules to a registry at startup.
type Module interface {
	Register(r *Registry)
}

// RegisteredModule pairs a definition with the handler that implements it.
type RegisteredModule struct {
	Definition *Definition
	Handler    Handler
}

// Registry is a concurrency-safe catalog of analysis modules for a single
// application instance. All reads and writes go through the registry's
// lock; handler execution happens outside it.
type Registry struct {
	mu      sync.Mutex
	modules map[string]*RegisteredModule
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*RegisteredModule)}
}

// Register adds a module. It fails when the module id is already present or
// the definition is malformed.
func (r *Registry) Register(def *Definition, handler Handler) error {
	if err := checkDefinition(def, handler); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[def.ModuleID]; exists {
		return &RegistryError{ModuleID: def.ModuleID, Reason: "already registered"}
	}
	r.insertLocked(def, handler)
	slog.Debug("Registered analysis module.", "moduleID", def.ModuleID)
	return nil
}

// Replace installs a module unconditionally, upserting over any prior
// registration with the same id. Built-ins use Replace so that re-running
// startup registration (hot reload, tests) never trips the duplicate check.
func (r *Registry) Replace(def *Definition, handler Handler) error {
	if err := checkDefinition(def, handler); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertLocked(def, handler)
	slog.Debug("Replaced analysis module.", "moduleID", def.ModuleID)
	return nil
}

// Unregister removes a module if present. Removing an absent id is not an
// error.
func (r *Registry) Unregister(moduleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[moduleID]; !exists {
		return
	}
	delete(r.modules, moduleID)
	for i, id := range r.order {
		if id == moduleID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the registered module for the id.
func (r *Registry) Get(moduleID string) (*RegisteredModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	registered, ok := r.modules[moduleID]
	if !ok {
		return nil, &UnknownModuleError{ModuleID: moduleID}
	}
	return registered, nil
}

// ListDefinitions returns the registered definitions in registration order.
func (r *Registry) ListDefinitions() []*Definition {
	r.mu.Lock()
	defer r.mu.Unlock()
	defs := make([]*Definition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.modules[id].Definition)
	}
	return defs
}

// EnsureRequirements checks that every column the definition requires
// exists in the dataset. On failure the error names all missing columns.
func (r *Registry) EnsureRequirements(def *Definition, ds *Dataset) error {
	if len(def.RequiredColumns) == 0 {
		return nil
	}
	var missing []string
	for _, column := range def.RequiredColumns {
		if !ds.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return &RequirementValidationError{Missing: missing}
	}
	return nil
}

// insertLocked stores the pair and maintains registration order. The caller
// holds the lock.
func (r *Registry) insertLocked(def *Definition, handler Handler) {
	if _, exists := r.modules[def.ModuleID]; !exists {
		r.order = append(r.order, def.ModuleID)
	}
	r.modules[def.ModuleID] = &RegisteredModule{Definition: def, Handler: handler}
}

// checkDefinition validates the invariants a definition must hold before it
// may be stored.
func checkDefinition(def *Definition, handler Handler) error {
	if def == nil || handler == nil {
		return &RegistryError{Reason: "definition and handler are both required"}
	}
	if !moduleIDPattern.MatchString(def.ModuleID) {
		return &RegistryError{ModuleID: def.ModuleID, Reason: "module id must match [A-Za-z0-9_-]+"}
	}
	seen := make(map[string]struct{}, len(def.Parameters))
	for _, spec := range def.Parameters {
		if _, dup := seen[spec.Key]; dup {
			return &RegistryError{
				ModuleID: def.ModuleID,
				Reason:   fmt.Sprintf("duplicate parameter key %q", spec.Key),
			}
		}
		seen[spec.Key] = struct{}{}
	}
	return nil
}
