// Package extract recovers structured records from untrusted generative
// model output. Models asked for strict JSON routinely wrap it in prose,
// return scalars where arrays were requested, or embed numbers in
// commentary. Every helper here is total: invalid input degrades to a
// documented default instead of an error, so ledger code never branches on
// parse failures beyond the single Object ok flag.
//
// The brace-span heuristic in Object is intentionally isolated behind this
// package so it can be swapped for constrained decoding or a
// schema-validating parser without touching ledger logic.
package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Object extracts the outermost {...} span from raw and unmarshals it into
// a generic map. The span runs from the first '{' to the last '}', matching
// the common failure mode of JSON sandwiched between prose. Returns false
// when no span exists or the span is not valid JSON.
func Object(raw string) (map[string]any, bool) {
	t := strings.TrimSpace(raw)
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(t[start:end+1]), &out); err != nil {
		return nil, false
	}
	return out, true
}

// StringList normalizes a value that should have been an array of strings.
// Accepted shapes: a list of strings, a list of single-key objects (the
// first string value of each is taken), a bare string, or a bare number.
// Anything else yields an empty list. max > 0 caps the result length.
// Never returns nil.
func StringList(v any, max int) []string {
	out := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]any:
				if s, ok := firstStringValue(it); ok {
					out = append(out, s)
				}
			default:
				out = append(out, scalarString(it))
			}
		}
	case string:
		out = append(out, val)
	case float64:
		out = append(out, scalarString(val))
	case bool:
		out = append(out, scalarString(val))
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// firstStringValue returns the first string value of m in sorted key order,
// keeping the single-key-object normalization deterministic.
func firstStringValue(m map[string]any) (string, bool) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			return s, true
		}
	}
	return "", false
}

// scalarString renders a scalar as a string, formatting integral floats
// without a trailing ".0" fraction (JSON numbers decode as float64).
func scalarString(v any) string {
	if f, ok := v.(float64); ok {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// Priority normalizes a priority value that may arrive as a number or as a
// string with a number embedded in text ("3 (high)"). The first digit run
// is taken; def is returned when no digits are found or the value falls
// outside [min, max].
func Priority(v any, def, min, max int) int {
	p := def
	switch val := v.(type) {
	case float64:
		p = int(val)
	case string:
		if n, ok := firstDigits(val); ok {
			p = n
		}
	}
	if p < min || p > max {
		return def
	}
	return p
}

// firstDigits scans s for the first contiguous digit run.
func firstDigits(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			n, err := strconv.Atoi(s[start:i])
			return n, err == nil
		}
	}
	if start == -1 {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:])
	return n, err == nil
}

// Float coerces v to a float64, accepting numbers and numeric strings.
// Returns def on anything else.
func Float(v any, def float64) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return def
}

// String renders v as a string; nil becomes "".
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return scalarString(val)
	}
}

// Truncate limits s to n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
