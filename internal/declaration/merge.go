package declaration

// DeepMerge recursively merges overlay into base and returns a new map.
// Nested maps merge key by key; any other overlay value, lists included,
// replaces the base value. Neither input is modified.
func DeepMerge(base, overlay map[string]any) map[string]any {
	result := copyMap(base)

	for key, overlayValue := range overlay {
		baseValue, exists := result[key]
		if !exists {
			result[key] = deepCopy(overlayValue)
			continue
		}

		baseMap, baseIsMap := baseValue.(map[string]any)
		overlayMap, overlayIsMap := overlayValue.(map[string]any)
		if baseIsMap && overlayIsMap {
			result[key] = DeepMerge(baseMap, overlayMap)
			continue
		}

		result[key] = deepCopy(overlayValue)
	}

	return result
}

// MergeAll folds layers left to right with DeepMerge. Later layers win.
func MergeAll(layers ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, layer := range layers {
		result = DeepMerge(result, layer)
	}
	return result
}

// copyMap creates a shallow copy of a map.
func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

// deepCopy creates a deep copy of any value.
func deepCopy(value any) any {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = deepCopy(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = deepCopy(val)
		}
		return result
	case []string:
		result := make([]string, len(v))
		copy(result, v)
		return result
	default:
		// Primitive types are immutable, return as-is
		return value
	}
}
