package variant

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AppTypeFields lists the document keys that may carry a step or record
// application type, in resolution order. Older recordings only carry the
// second key; this list is the single compatibility shim for that history.
var AppTypeFields = []string{"appType", "applicationType"}

// ResolveAppType returns the first non-empty application type found under
// AppTypeFields, lower-cased.
func ResolveAppType(fields map[string]any) (string, bool) {
	for _, key := range AppTypeFields {
		if value := fieldString(fields, key); value != "" {
			return strings.ToLower(value), true
		}
	}
	return "", false
}

func fieldString(fields map[string]any, key string) string {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatFloat(v, 'f', 0, 64)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func fieldInt(fields map[string]any, key string) (int64, error) {
	raw := fieldString(fields, key)
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, raw)
	}
	return int64(f), nil
}

func fieldFloat(fields map[string]any, key string) (float64, error) {
	raw := fieldString(fields, key)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, raw)
	}
	return f, nil
}
