// Package value converts loosely typed configuration values. TOML decodes
// integers as int64 and tables as map[string]any; environment overrides
// arrive as strings. Every config store reads through these helpers so a
// key behaves the same whichever source set it.
package value

import (
	"strconv"
	"time"
)

// String returns v as a string. Numbers and booleans are formatted.
func String(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Duration:
		return t.String()
	}
	return ""
}

// Int returns v as an int.
func Int(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	}
	return 0
}

// Bool returns v as a bool.
func Bool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	}
	return false
}

// Float returns v as a float64.
func Float(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	}
	return 0
}

// Duration returns v as a duration. Integers are seconds.
func Duration(v any) time.Duration {
	switch t := v.(type) {
	case time.Duration:
		return t
	case string:
		d, err := time.ParseDuration(t)
		if err != nil {
			return 0
		}
		return d
	case int:
		return time.Duration(t) * time.Second
	case int64:
		return time.Duration(t) * time.Second
	}
	return 0
}

// Flatten converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func Flatten(m map[string]any, prefix string) map[string]any {
	out := make(map[string]any)
	for key, v := range m {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := v.(map[string]any); ok {
			for k, nv := range Flatten(nested, full) {
				out[k] = nv
			}
			continue
		}
		out[full] = v
	}
	return out
}

// Nest is the inverse of Flatten: "a.b" becomes {"a": {"b": ...}}. A key
// that is both a leaf and a table prefix keeps the table.
func Nest(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, v := range flat {
		parts := splitKey(key)
		node := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[p] = child
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		if _, isTable := node[leaf].(map[string]any); isTable {
			continue
		}
		node[leaf] = v
	}
	return out
}

func splitKey(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	return append(parts, key[start:])
}
