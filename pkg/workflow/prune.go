package workflow

import "reflect"

// Prune returns a copy of v with empty values removed.
//
// Mappings and sequences are pruned recursively; an entry or element is dropped
// when its pruned value is nil, an empty string, an empty sequence or an empty
// mapping. false and 0 are kept. Scalars are returned unchanged and the input is
// never modified. Plain map[string]any inputs come back as *Map with sorted keys.
func Prune(v any) any {
	switch val := v.(type) {
	case *Map:
		out := NewMap()
		val.Iterate(func(key string, value any) {
			pruned := Prune(value)
			if !IsEmpty(pruned) {
				out.Set(key, pruned)
			}
		})
		return out
	case map[string]any:
		return Prune(fromPlainMap(val))
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			pruned := Prune(item)
			if !IsEmpty(pruned) {
				out = append(out, pruned)
			}
		}
		return out
	case []string:
		out := make([]any, 0, len(val))
		for _, s := range val {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return v
	}
}

// IsEmpty reports whether v counts as empty for pruning: nil, "", or a
// zero-length sequence or mapping.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case *Map:
		return val.Len() == 0
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return rv.Len() == 0
	default:
		return false
	}
}
