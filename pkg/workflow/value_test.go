package workflow

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMap_SetKeepsInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("zeta", 1)
	m.Set("alpha", 2)
	m.Set("mid", 3)
	m.Set("zeta", 4)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())
	v, ok := m.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestMap_Delete(t *testing.T) {
	m := NewMapWithItems(MapItem{"a", 1}, MapItem{"b", 2}, MapItem{"c", 3})

	assert.True(t, m.Delete("b"))
	assert.False(t, m.Delete("missing"))
	assert.Equal(t, []string{"a", "c"}, m.Keys())
}

func TestMap_Lookup(t *testing.T) {
	m := NewMapWithItems(
		MapItem{"spec", NewMapWithItems(MapItem{"entrypoint", "main"})},
	)

	v, ok := m.Lookup("spec", "entrypoint")
	require.True(t, ok)
	assert.Equal(t, "main", v)

	_, ok = m.Lookup("spec", "entrypoint", "deeper")
	assert.False(t, ok)
	_, ok = m.Lookup("status")
	assert.False(t, ok)
}

func TestMap_NilReceiver(t *testing.T) {
	var m *Map
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Keys())
	_, ok := m.Get("x")
	assert.False(t, ok)
}

func TestMap_YAMLRoundTripKeepsOrder(t *testing.T) {
	input := "kind: Workflow\napiVersion: v1\nmetadata:\n  zeta: 1\n  alpha: true\n"

	var m Map
	require.NoError(t, yaml.Unmarshal([]byte(input), &m))
	assert.Equal(t, []string{"kind", "apiVersion", "metadata"}, m.Keys())

	meta, ok := m.Get("metadata")
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha"}, meta.(*Map).Keys())

	out, err := yaml.Marshal(&m)
	require.NoError(t, err)
	assert.Equal(t, "kind: Workflow\napiVersion: v1\nmetadata:\n    zeta: 1\n    alpha: true\n", string(out))
}

func TestMap_UnmarshalRejectsSequence(t *testing.T) {
	var m Map
	err := yaml.Unmarshal([]byte("- a\n- b\n"), &m)
	assert.Error(t, err)
}

func TestMap_MarshalJSONKeepsOrder(t *testing.T) {
	m := NewMapWithItems(
		MapItem{"b", 1},
		MapItem{"a", []any{"x", nil, true}},
	)

	data, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":["x",null,true]}`, string(data))
}

func TestEncodeJSON_NonFinite(t *testing.T) {
	m := NewMapWithItems(MapItem{"ratio", math.Inf(1)})

	_, err := EncodeJSON(m, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEncoding))

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "ratio", encErr.Path)
}

func TestEncodeYAML_TypedCollections(t *testing.T) {
	m := NewMapWithItems(
		MapItem{"labels", map[string]string{"team": "data", "app": "etl"}},
		MapItem{"args", []string{"build"}},
	)

	out, err := EncodeYAML(m)
	require.NoError(t, err)
	assert.Equal(t, "labels:\n  app: etl\n  team: data\nargs:\n  - build\n", out)
}

func TestEncodeYAML_Unrepresentable(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"complex", complex(1, 2)},
		{"channel", make(chan int)},
		{"function", func() {}},
		{"nested complex", []any{NewMapWithItems(MapItem{"c", complex64(3)})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeYAML(NewMapWithItems(MapItem{"value", tt.value}))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrEncoding), "got %v", err)
		})
	}
}

func TestEncodeYAML_SortKeys(t *testing.T) {
	m := NewMapWithItems(
		MapItem{"b", NewMapWithItems(MapItem{"z", 1}, MapItem{"y", 2})},
		MapItem{"a", 0},
	)

	out, err := EncodeYAML(m, WithSortKeys(true))
	require.NoError(t, err)
	assert.Equal(t, "a: 0\nb:\n  y: 2\n  z: 1\n", out)

	// The input keeps its order.
	assert.Equal(t, []string{"b", "a"}, m.Keys())
}

func TestEncodeYAML_ExplicitStartAndIndent(t *testing.T) {
	m := NewMapWithItems(MapItem{"a", NewMapWithItems(MapItem{"b", "c"})})

	out, err := EncodeYAML(m, WithExplicitStart(true), WithIndent(4))
	require.NoError(t, err)
	assert.Equal(t, "---\na:\n    b: c\n", out)
}

func TestEncodeYAML_EncoderPassThrough(t *testing.T) {
	m := NewMapWithItems(MapItem{"a", NewMapWithItems(MapItem{"b", "c"})})

	called := false
	out, err := EncodeYAML(m, WithEncoder(func(enc *yaml.Encoder) {
		called = true
		enc.SetIndent(3)
	}))
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "a:\n   b: c\n", out)
}

func TestDecodeYAML(t *testing.T) {
	v, err := DecodeYAML([]byte("count: 3\nenabled: false\nitems: [a, b]\n"))
	require.NoError(t, err)

	m, ok := v.(*Map)
	require.True(t, ok)
	count, _ := m.Get("count")
	enabled, _ := m.Get("enabled")
	items, _ := m.Get("items")
	assert.Equal(t, 3, count)
	assert.Equal(t, false, enabled)
	assert.Equal(t, []any{"a", "b"}, items)
}

func TestDecodeYAML_Invalid(t *testing.T) {
	_, err := DecodeYAML([]byte("a: [unclosed"))
	assert.Error(t, err)
}
