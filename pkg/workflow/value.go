package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Map is a string-keyed mapping that remembers insertion order.
//
// Generic values in this package are any of: nil, bool, an integer or float,
// string, []any, or *Map.
type Map struct {
	items []MapItem
}

// MapItem is one key/value entry of a Map.
type MapItem struct {
	Key   string
	Value any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{}
}

// NewMapWithItems returns a Map holding items in the given order. Later duplicates
// replace earlier values in place.
func NewMapWithItems(items ...MapItem) *Map {
	m := &Map{}
	for _, item := range items {
		m.Set(item.Key, item.Value)
	}
	return m
}

// Set replaces the value of an existing key in place or appends a new key.
func (m *Map) Set(key string, value any) {
	for i := range m.items {
		if m.items[i].Key == key {
			m.items[i].Value = value
			return
		}
	}
	m.items = append(m.items, MapItem{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	for _, item := range m.items {
		if item.Key == key {
			return item.Value, true
		}
	}
	return nil, false
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	for i, item := range m.items {
		if item.Key == key {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.items))
	for i, item := range m.items {
		keys[i] = item.Key
	}
	return keys
}

// Items returns a copy of the entries in insertion order.
func (m *Map) Items() []MapItem {
	if m == nil {
		return nil
	}
	return append([]MapItem(nil), m.items...)
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// Iterate calls fn for every entry in insertion order.
func (m *Map) Iterate(fn func(key string, value any)) {
	if m == nil {
		return
	}
	for _, item := range m.items {
		fn(item.Key, item.Value)
	}
}

// Lookup follows a path of keys through nested Maps.
func (m *Map) Lookup(path ...string) (any, bool) {
	var current any = m
	for _, key := range path {
		next, ok := current.(*Map)
		if !ok {
			return nil, false
		}
		if current, ok = next.Get(key); !ok {
			return nil, false
		}
	}
	return current, true
}

// MarshalYAML encodes the Map as a mapping node, keeping key order.
func (m *Map) MarshalYAML() (any, error) {
	return toNode(m, "", false)
}

// UnmarshalYAML decodes a mapping node, keeping key order.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	v, err := fromNode(node)
	if err != nil {
		return err
	}
	decoded, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("cannot decode %s into a mapping", node.ShortTag())
	}
	m.items = decoded.items
	return nil
}

// MarshalJSON encodes the Map as a JSON object, keeping key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, m, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fromNode converts a decoded YAML node into a generic value.
func fromNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromNode(node.Content[0])
	case yaml.AliasNode:
		return fromNode(node.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			value, err := fromNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(node.Content[i].Value, value)
		}
		return m, nil
	case yaml.SequenceNode:
		seq := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			value, err := fromNode(child)
			if err != nil {
				return nil, err
			}
			seq = append(seq, value)
		}
		return seq, nil
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode scalar at line %d: %w", node.Line, err)
		}
		return v, nil
	default:
		return nil, nil
	}
}

// toNode converts a generic value into a YAML node. When flow is set every
// collection is rendered inline.
func toNode(v any, path string, flow bool) (*yaml.Node, error) {
	var style yaml.Style
	if flow {
		style = yaml.FlowStyle
	}

	switch val := v.(type) {
	case *Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Style: style}
		for _, item := range val.Items() {
			child, err := toNode(item.Value, joinPath(path, item.Key), flow)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: item.Key},
				child,
			)
		}
		return node, nil
	case map[string]any:
		return toNode(fromPlainMap(val), path, flow)
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: style}
		for i, item := range val {
			child, err := toNode(item, indexPath(path, i), flow)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case []string:
		seq := make([]any, len(val))
		for i, s := range val {
			seq[i] = s
		}
		return toNode(seq, path, flow)
	}

	if v == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	if isComposite(v) {
		generic, err := normalize(v, path)
		if err != nil {
			return nil, err
		}
		return toNode(generic, path, flow)
	}
	if !isScalar(v) {
		return nil, &EncodingError{Path: path, Msg: fmt.Sprintf("cannot represent value of type %T", v)}
	}
	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, &EncodingError{Path: path, Msg: err.Error()}
	}
	return node, nil
}

// isScalar reports whether v is a scalar of the generic value model.
func isScalar(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// isComposite reports whether v is a Go collection or struct outside the generic
// value model, such as map[string]string.
func isComposite(v any) bool {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		return true
	default:
		return false
	}
}

// normalize converts a Go value into the generic value model through its YAML
// representation.
func normalize(v any, path string) (generic any, err error) {
	// yaml.v3 panics outright on some unsupported kinds.
	defer func() {
		if r := recover(); r != nil {
			generic, err = nil, &EncodingError{Path: path, Msg: fmt.Sprint(r)}
		}
	}()

	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, &EncodingError{Path: path, Msg: err.Error()}
	}
	return fromNode(&node)
}

// fromPlainMap converts a Go map into a Map with sorted keys.
func fromPlainMap(in map[string]any) *Map {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := NewMap()
	for _, k := range keys {
		m.Set(k, in[k])
	}
	return m
}

// SortKeys returns a copy of v with every mapping's keys sorted.
func SortKeys(v any) any {
	switch val := v.(type) {
	case *Map:
		items := val.Items()
		sort.SliceStable(items, func(i, j int) bool { return items[i].Key < items[j].Key })
		m := NewMap()
		for _, item := range items {
			m.Set(item.Key, SortKeys(item.Value))
		}
		return m
	case map[string]any:
		return SortKeys(fromPlainMap(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = SortKeys(item)
		}
		return out
	default:
		return v
	}
}

func writeJSON(buf *bytes.Buffer, v any, path string) error {
	switch val := v.(type) {
	case *Map:
		buf.WriteByte('{')
		for i, item := range val.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(item.Key)
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, item.Value, joinPath(path, item.Key)); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case map[string]any:
		return writeJSON(buf, fromPlainMap(val), path)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item, indexPath(path, i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case []string:
		data, _ := json.Marshal(val)
		buf.Write(data)
		return nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return &EncodingError{Path: path, Msg: "non-finite number"}
		}
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return &EncodingError{Path: path, Msg: "non-finite number"}
		}
	}

	if !isScalar(v) {
		return &EncodingError{Path: path, Msg: fmt.Sprintf("cannot represent value of type %T", v)}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return &EncodingError{Path: path, Msg: err.Error()}
	}
	buf.Write(data)
	return nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
