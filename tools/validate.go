package tools

import (
	"fmt"
	"net/netip"
	"sort"

	"github.com/wardenhq/warden/schema"
)

// Validator checks a candidate action against the registry before it is
// allowed to execute. One pass collects every failure so the dispatch loop
// can feed a complete corrective message back to the model.
type Validator struct {
	registry *Registry
}

// NewValidator creates a validator bound to a registry.
func NewValidator(registry *Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate returns nil on success or a *schema.ValidationErrors listing
// every problem found. It never panics on malformed input and is
// idempotent: validating the same action twice yields the same result.
func (v *Validator) Validate(action *schema.Action) error {
	if action == nil {
		return &schema.ValidationErrors{Errors: []error{fmt.Errorf("no action to validate")}}
	}

	tool, err := v.registry.Lookup(action.Tool)
	if err != nil {
		// Nothing else is checkable against an unknown tool.
		return &schema.ValidationErrors{Tool: action.Tool, Errors: []error{err}}
	}

	var errs []error
	errs = append(errs, action.Issues...)

	spec := tool.Schema()
	if spec == nil {
		if len(errs) == 0 {
			return nil
		}
		return &schema.ValidationErrors{Tool: action.Tool, Errors: errs}
	}

	if missing := missingRequired(spec, action.Params); len(missing) > 0 {
		errs = append(errs, &schema.MissingParameterError{Tool: action.Tool, Params: missing})
	}

	// Deterministic order keeps repeated validation of the same action
	// byte-identical.
	names := make([]string, 0, len(action.Params))
	for name := range action.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := action.Params[name]
		prop, ok := spec.Properties[name].(map[string]interface{})
		if !ok {
			continue
		}
		if err := checkType(action.Tool, name, prop, value); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := checkValue(action.Tool, name, prop, value); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &schema.ValidationErrors{Tool: action.Tool, Errors: errs}
}

func missingRequired(spec *ToolSchema, params map[string]interface{}) []string {
	var missing []string
	for _, name := range spec.Required {
		if _, present := params[name]; !present {
			missing = append(missing, name)
		}
	}
	return missing
}

func checkType(tool, param string, prop map[string]interface{}, value interface{}) error {
	expected, _ := prop["type"].(string)
	if expected == "" {
		return nil
	}

	switch expected {
	case "string":
		if _, ok := value.(string); !ok {
			return mismatch(tool, param, expected, value)
		}
	case "integer":
		switch n := value.(type) {
		case int:
		case int64:
		case float64:
			// JSON numbers decode as float64; only integral values pass.
			if n != float64(int64(n)) {
				return mismatch(tool, param, expected, value)
			}
		default:
			return mismatch(tool, param, expected, value)
		}
	case "number":
		switch value.(type) {
		case int, int64, float64:
		default:
			return mismatch(tool, param, expected, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return mismatch(tool, param, expected, value)
		}
	}
	return nil
}

func checkValue(tool, param string, prop map[string]interface{}, value interface{}) error {
	format, _ := prop["format"].(string)
	if format == "ip" {
		s, _ := value.(string)
		if _, err := netip.ParseAddr(s); err != nil {
			return &schema.InvalidValueError{
				Tool:   tool,
				Param:  param,
				Reason: fmt.Sprintf("%q is not a valid IPv4/IPv6 address", s),
			}
		}
	}

	if expected, _ := prop["type"].(string); expected == "integer" {
		if n, ok := asInt(value); ok && n < 0 {
			return &schema.InvalidValueError{
				Tool:   tool,
				Param:  param,
				Reason: fmt.Sprintf("must not be negative, got %d", n),
			}
		}
	}
	return nil
}

func mismatch(tool, param, expected string, value interface{}) error {
	return &schema.TypeMismatchError{
		Tool:     tool,
		Param:    param,
		Expected: expected,
		Actual:   typeName(value),
	}
}

func typeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func asInt(value interface{}) (int64, bool) {
	switch n := value.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
