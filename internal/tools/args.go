package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/mitchellh/mapstructure"
)

// Args is the argument mapping of one invocation. Values are JSON-compatible:
// numbers usually arrive as float64.
type Args map[string]interface{}

// Has reports whether name was supplied with a non-null value.
func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// String returns the value of name as a string, or "".
func (a Args) String(name string) string {
	v, ok := a[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return formatScalar(v)
}

// Int returns the value of name as an int.
func (a Args) Int(name string) (int, bool) {
	return toInt(a[name])
}

// IntOr returns the value of name as an int, or def when absent.
func (a Args) IntOr(name string, def int) int {
	if n, ok := a.Int(name); ok {
		return n
	}
	return def
}

// Float returns the value of name as a float64.
func (a Args) Float(name string) (float64, bool) {
	switch n := a[name].(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	if i, ok := toInt(a[name]); ok {
		return float64(i), true
	}
	return 0, false
}

// Bool returns the value of name as a bool.
func (a Args) Bool(name string) (bool, bool) {
	b, ok := a[name].(bool)
	return b, ok
}

// Ref returns an entity reference as its path form. Integers, including
// digit strings with surrounding blanks, are rendered canonically;
// identifiers are trimmed.
func (a Args) Ref(name string) string {
	if s, ok := a[name].(string); ok {
		s = strings.TrimSpace(s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
		return s
	}
	if n, ok := toInt(a[name]); ok {
		return strconv.Itoa(n)
	}
	return a.String(name)
}

// Object returns the value of name as a JSON object, or nil.
func (a Args) Object(name string) map[string]interface{} {
	m, _ := a[name].(map[string]interface{})
	return m
}

// Strings returns an array of scalars as strings.
func (a Args) Strings(name string) []string {
	items, _ := a[name].([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		} else {
			out = append(out, formatScalar(item))
		}
	}
	return out
}

// Pick copies the named arguments that were supplied, skipping absent and
// null ones. Integral numbers are normalized to int64 so they encode
// without an exponent.
func (a Args) Pick(names ...string) map[string]interface{} {
	out := make(map[string]interface{})
	for _, name := range names {
		if a.Has(name) {
			out[name] = normalize(a[name])
		}
	}
	return out
}

// Decode decodes the arguments into out using json tags.
func (a Args) Decode(out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return errortypes.InternalError(err, "failed to build argument decoder")
	}
	if err := dec.Decode(map[string]interface{}(a)); err != nil {
		return errortypes.ValidationError(err, fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

// toInt converts an integral JSON value to int.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

// formatScalar renders a JSON scalar without float noise.
func formatScalar(v interface{}) string {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	}
	return fmt.Sprint(v)
}

// normalize rewrites integral float64 values, recursively, as int64.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return int64(t)
		}
		return t
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}
