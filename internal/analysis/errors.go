package analysis

import "fmt"

// RegistryError reports a registration conflict, such as registering a
// module id that is already present.
type RegistryError struct {
	ModuleID string
	Reason   string
}

// Error implements the error interface for RegistryError.
func (e *RegistryError) Error() string {
	return fmt.Sprintf("module %q: %s", e.ModuleID, e.Reason)
}

// UnknownModuleError reports a lookup of a module id that was never
// registered.
type UnknownModuleError struct {
	ModuleID string
}

// Error implements the error interface for UnknownModuleError.
func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("module %q is not registered", e.ModuleID)
}

// ParameterValidationError reports a request parameter that failed coercion
// against the module's declared parameter specs.
type ParameterValidationError struct {
	Key    string
	Reason string
}

// Error implements the error interface for ParameterValidationError.
func (e *ParameterValidationError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Key, e.Reason)
}

// RequirementValidationError reports dataset columns that a module requires
// but the supplied dataset does not carry. Missing lists every absent
// column, not just the first one found.
type RequirementValidationError struct {
	Missing []string
}

// Error implements the error interface for RequirementValidationError.
func (e *RequirementValidationError) Error() string {
	formatted := ""
	for i, column := range e.Missing {
		if i > 0 {
			formatted += ", "
		}
		formatted += column
	}
	return fmt.Sprintf("dataset is missing required columns: %s", formatted)
}
