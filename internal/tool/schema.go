package tool

import (
	"fmt"
	"math"
	"sort"
)

// Validate checks args against the schema and reports every violation in one
// pass, so a caller can fix all of them without round-tripping.
// Returns nil when args are acceptable, otherwise a *SchemaError.
func (s Schema) Validate(args map[string]any) error {
	var violations []Violation

	for _, name := range s.ParamNames() {
		param := s.Params[name]
		value, present := args[name]
		if !present {
			if param.Required {
				violations = append(violations, Violation{
					Field:  name,
					Reason: "required field is missing",
				})
			}
			continue
		}
		if reason := checkKind(param, value); reason != "" {
			violations = append(violations, Violation{Field: name, Reason: reason})
		}
	}

	var unknown []string
	for name := range args {
		if _, declared := s.Params[name]; !declared {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		violations = append(violations, Violation{Field: name, Reason: "unknown field"})
	}

	if len(violations) > 0 {
		return &SchemaError{Violations: violations}
	}
	return nil
}

func checkKind(param Param, value any) string {
	switch param.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("expected string, got %T", value)
		}
	case KindInteger:
		if !isIntegral(value) {
			return fmt.Sprintf("expected integer, got %T", value)
		}
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("expected boolean, got %T", value)
		}
	case KindEnum:
		str, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected one of %v, got %T", param.Enum, value)
		}
		for _, allowed := range param.Enum {
			if str == allowed {
				return ""
			}
		}
		return fmt.Sprintf("value %q not in %v", str, param.Enum)
	case KindStringList:
		switch list := value.(type) {
		case []string:
		case []any:
			for i, item := range list {
				if _, ok := item.(string); !ok {
					return fmt.Sprintf("expected list of strings, element %d is %T", i, item)
				}
			}
		default:
			return fmt.Sprintf("expected list of strings, got %T", value)
		}
	default:
		return fmt.Sprintf("unsupported parameter kind %q", param.Kind)
	}
	return ""
}

// isIntegral accepts native integer types and JSON-decoded float64 values
// that carry no fractional part.
func isIntegral(value any) bool {
	switch n := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == math.Trunc(n)
	default:
		return false
	}
}
