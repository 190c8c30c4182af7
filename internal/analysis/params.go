package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateParameters coerces a raw parameter map against the definition's
// declared specs and returns the validated map.
//
// Declared keys are processed in spec order: a missing (or nil) value fails
// for a required spec without a default, falls back to the default when one
// exists, and is otherwise simply absent from the output. Keys present in
// the raw map but not declared by any spec pass through unchanged so that
// newer callers can feed older modules without being rejected.
func ValidateParameters(def *Definition, raw map[string]any) (map[string]any, error) {
	validated := make(map[string]any, len(def.Parameters)+len(raw))

	for i := range def.Parameters {
		spec := &def.Parameters[i]
		value, ok := raw[spec.Key]
		if !ok || value == nil {
			if spec.Required && spec.Default == nil {
				return nil, &ParameterValidationError{Key: spec.Key, Reason: "missing required parameter"}
			}
			if spec.Default != nil {
				validated[spec.Key] = spec.Default
			}
			continue
		}
		coerced, err := coerceParameter(spec, value)
		if err != nil {
			return nil, err
		}
		validated[spec.Key] = coerced
	}

	for key, value := range raw {
		if _, ok := validated[key]; !ok {
			validated[key] = value
		}
	}

	return validated, nil
}

// coerceParameter applies the per-type coercion rules to a present value.
func coerceParameter(spec *ParameterSpec, value any) (any, error) {
	switch spec.Type {
	case ParameterTypeNumber:
		switch v := value.(type) {
		case int, int32, int64, float32, float64:
			return v, nil
		case string:
			trimmed := strings.TrimSpace(v)
			if trimmed != "" {
				parsed, err := strconv.ParseFloat(trimmed, 64)
				if err == nil {
					return parsed, nil
				}
			}
			return nil, &ParameterValidationError{Key: spec.Key, Reason: "expected a number"}
		default:
			return nil, &ParameterValidationError{Key: spec.Key, Reason: "expected a number"}
		}
	case ParameterTypeRegex:
		if _, ok := value.(string); !ok {
			return nil, &ParameterValidationError{Key: spec.Key, Reason: "expected a regular expression string"}
		}
		return value, nil
	case ParameterTypeSelect:
		if len(spec.Options) > 0 {
			for _, option := range spec.Options {
				if option == value {
					return value, nil
				}
			}
			return nil, &ParameterValidationError{
				Key:    spec.Key,
				Reason: fmt.Sprintf("value must be one of %v", spec.Options),
			}
		}
		return value, nil
	case ParameterTypeText:
		if _, ok := value.(string); !ok {
			return nil, &ParameterValidationError{Key: spec.Key, Reason: "expected a string"}
		}
		return value, nil
	default:
		return value, nil
	}
}
