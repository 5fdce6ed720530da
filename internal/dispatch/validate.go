package dispatch

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/tools"
)

// Validate checks args against the declared parameters of d: unknown
// top-level names, required presence, types and enums. Fields of object
// parameters beyond the declared ones are allowed.
func Validate(d tools.Descriptor, args map[string]interface{}) error {
	for name := range args {
		if _, ok := d.Param(name); !ok {
			return errortypes.ValidationError(nil, fmt.Sprintf("unknown parameter %q", name)).
				WithField("parameter", name)
		}
	}
	return validateParams(d.Params, args, "")
}

func validateParams(params []tools.Param, values map[string]interface{}, prefix string) error {
	for _, p := range params {
		path := prefix + p.Name
		v, present := values[p.Name]
		if !present || v == nil {
			if p.Required {
				return errortypes.ValidationError(nil, fmt.Sprintf("missing required parameter %q", path)).
					WithField("parameter", path)
			}
			continue
		}
		if err := validateValue(p, v, path); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(p tools.Param, v interface{}, path string) error {
	fail := func(format string, a ...interface{}) error {
		return errortypes.ValidationError(nil, fmt.Sprintf("parameter %q ", path)+fmt.Sprintf(format, a...)).
			WithField("parameter", path)
	}

	switch p.Type {
	case tools.TypeString:
		s, ok := v.(string)
		if !ok {
			return fail("must be a string, got %s", jsonType(v))
		}
		if len(p.Enum) > 0 && !contains(p.Enum, s) {
			return fail("must be one of %s, got %q", strings.Join(p.Enum, ", "), s)
		}
	case tools.TypeInteger:
		if !isInteger(v) {
			return fail("must be an integer, got %s", jsonType(v))
		}
	case tools.TypeNumber:
		if !isNumber(v) {
			return fail("must be a number, got %s", jsonType(v))
		}
	case tools.TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fail("must be a boolean, got %s", jsonType(v))
		}
	case tools.TypeRef:
		if s, ok := v.(string); ok {
			if strings.TrimSpace(s) == "" {
				return fail("must not be empty")
			}
			return nil
		}
		if !isInteger(v) {
			return fail("must be an id or identifier, got %s", jsonType(v))
		}
	case tools.TypeObject:
		m, ok := v.(map[string]interface{})
		if !ok {
			return fail("must be an object, got %s", jsonType(v))
		}
		return validateParams(p.Properties, m, path+".")
	case tools.TypeArray:
		items, ok := v.([]interface{})
		if !ok {
			return fail("must be an array, got %s", jsonType(v))
		}
		if p.Items == nil {
			return nil
		}
		for i, item := range items {
			if item == nil {
				return fail("must not contain null elements")
			}
			if err := validateValue(*p.Items, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func isInteger(v interface{}) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == math.Trunc(n) && !math.IsInf(n, 0)
	case json.Number:
		_, err := n.Int64()
		return err == nil
	case string:
		_, err := strconv.Atoi(strings.TrimSpace(n))
		return err == nil
	}
	return false
}

func isNumber(v interface{}) bool {
	switch n := v.(type) {
	case int, int32, int64, float64:
		return true
	case json.Number:
		_, err := n.Float64()
		return err == nil
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return err == nil
	}
	return false
}

func jsonType(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int32, int64, json.Number:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
