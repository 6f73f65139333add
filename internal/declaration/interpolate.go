package declaration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cameronsjo/argonaut/pkg/workflow"
)

// varPattern matches ${name} and ${dotted.path} placeholders.
var varPattern = regexp.MustCompile(`\$\{(\w+(?:\.\w+)*)\}`)

// Interpolate replaces ${var} placeholders with values from the variables map.
// A dotted placeholder such as ${db.host} walks nested maps. Returns an error
// listing every variable that is missing.
func Interpolate(template string, variables map[string]any) (string, error) {
	var missingVars []string

	result := varPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := varPattern.FindStringSubmatch(match)[1]

		value, ok := lookup(variables, key)
		if !ok {
			missingVars = append(missingVars, key)
			return match
		}

		return toString(value)
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing variables: ${%s}", strings.Join(missingVars, "}, ${"))
	}

	return result, nil
}

// References returns the distinct placeholder names used in template, in order
// of first appearance.
func References(template string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, m := range varPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			refs = append(refs, m[1])
		}
	}
	return refs
}

// lookup resolves a dotted key against nested maps.
func lookup(variables map[string]any, key string) (any, bool) {
	if v, ok := variables[key]; ok {
		return v, true
	}

	var current any = variables
	for _, part := range strings.Split(key, ".") {
		switch m := current.(type) {
		case map[string]any:
			next, ok := m[part]
			if !ok {
				return nil, false
			}
			current = next
		case *workflow.Map:
			next, ok := m.Get(part)
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

// toString converts any value to its string representation.
func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%v", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// InterpolateValue applies interpolation to every string inside a generic
// value, returning a new value.
func InterpolateValue(value any, variables map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return Interpolate(v, variables)
	case *workflow.Map:
		out := workflow.NewMap()
		for _, item := range v.Items() {
			interpolated, err := InterpolateValue(item.Value, variables)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", item.Key, err)
			}
			out.Set(item.Key, interpolated)
		}
		return out, nil
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, item := range v {
			interpolated, err := InterpolateValue(item, variables)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			result[k] = interpolated
		}
		return result, nil
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			interpolated, err := InterpolateValue(item, variables)
			if err != nil {
				return nil, err
			}
			result[i] = interpolated
		}
		return result, nil
	default:
		return value, nil
	}
}
