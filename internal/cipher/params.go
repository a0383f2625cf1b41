package cipher

import (
	"fmt"
	"strconv"
	"strings"
)

// stringParam reads a string parameter. Parameters decoded from JSON or YAML
// arrive as interface{} values, so non-string scalars are formatted.
func stringParam(params map[string]interface{}, name string) (string, bool) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return "", false
	}
	switch v := raw.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

// intParam reads an integer parameter, accepting the numeric shapes produced
// by encoding/json (float64) and yaml.v3 (int) as well as strings.
func intParam(params map[string]interface{}, name string, def int) (int, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("parameter %s must be an integer, got %v", name, v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %w", name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("parameter %s has unsupported type %T", name, raw)
	}
}

// boolParam reads a boolean parameter.
func boolParam(params map[string]interface{}, name string) (bool, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return false, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("parameter %s: %w", name, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("parameter %s has unsupported type %T", name, raw)
	}
}

// keyParam returns the required cipher key parameter.
func keyParam(params map[string]interface{}) (string, error) {
	key, ok := stringParam(params, "key")
	if !ok || key == "" {
		return "", fmt.Errorf("missing required parameter: key")
	}
	return key, nil
}
