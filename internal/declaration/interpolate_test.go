package declaration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/argonaut/pkg/workflow"
)

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		variables map[string]any
		want      string
		wantErr   bool
	}{
		{
			name:      "simple variable replacement",
			template:  "Hello, ${name}!",
			variables: map[string]any{"name": "World"},
			want:      "Hello, World!",
		},
		{
			name:     "multiple variables in one string",
			template: "image: ${registry}/${image}:${tag}",
			variables: map[string]any{
				"registry": "ghcr.io",
				"image":    "etl",
				"tag":      "latest",
			},
			want: "image: ghcr.io/etl:latest",
		},
		{
			name:      "missing variable returns error",
			template:  "Hello, ${name}! Welcome to ${place}.",
			variables: map[string]any{"name": "World"},
			wantErr:   true,
		},
		{
			name:      "no variables returns unchanged",
			template:  "No variables here",
			variables: map[string]any{},
			want:      "No variables here",
		},
		{
			name:      "integer variable",
			template:  "port: ${port}",
			variables: map[string]any{"port": 8080},
			want:      "port: 8080",
		},
		{
			name:      "boolean variable",
			template:  "enabled: ${enabled}",
			variables: map[string]any{"enabled": true},
			want:      "enabled: true",
		},
		{
			name:     "dotted path",
			template: "host: ${db.primary.host}",
			variables: map[string]any{
				"db": map[string]any{"primary": map[string]any{"host": "pg.internal"}},
			},
			want: "host: pg.internal",
		},
		{
			name:      "flat key containing dots wins",
			template:  "${app.version}",
			variables: map[string]any{"app.version": "1.2.3", "app": map[string]any{"version": "0.0.1"}},
			want:      "1.2.3",
		},
		{
			name:      "dotted path through scalar is missing",
			template:  "${db.host}",
			variables: map[string]any{"db": "postgres"},
			wantErr:   true,
		},
		{
			name:      "argo expressions are left alone",
			template:  "{{inputs.parameters.message}} ${name}",
			variables: map[string]any{"name": "x"},
			want:      "{{inputs.parameters.message}} x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpolate(tt.template, tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpolate_ListsAllMissing(t *testing.T) {
	_, err := Interpolate("${a} ${b.c}", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "${a}, ${b.c}")
}

func TestReferences(t *testing.T) {
	refs := References("${image}:${tag} ${image} ${db.host}")
	assert.Equal(t, []string{"image", "tag", "db.host"}, refs)
}

func TestInterpolateValue(t *testing.T) {
	vars := map[string]any{"team": "data", "env": "prod"}

	input := workflow.NewMapWithItems(
		workflow.MapItem{Key: "labels", Value: workflow.NewMapWithItems(
			workflow.MapItem{Key: "team", Value: "${team}"},
			workflow.MapItem{Key: "tier", Value: 1},
		)},
		workflow.MapItem{Key: "tags", Value: []any{"${env}", "static"}},
		workflow.MapItem{Key: "plain", Value: map[string]any{"env": "${env}"}},
	)

	got, err := InterpolateValue(input, vars)
	require.NoError(t, err)

	out := got.(*workflow.Map)
	assert.Equal(t, []string{"labels", "tags", "plain"}, out.Keys())
	team, _ := out.Lookup("labels", "team")
	assert.Equal(t, "data", team)
	tier, _ := out.Lookup("labels", "tier")
	assert.Equal(t, 1, tier)
	tags, _ := out.Get("tags")
	assert.Equal(t, []any{"prod", "static"}, tags)
	plain, _ := out.Get("plain")
	assert.Equal(t, map[string]any{"env": "prod"}, plain)

	// The input is untouched.
	original, _ := input.Lookup("labels", "team")
	assert.Equal(t, "${team}", original)
}

func TestInterpolateValue_MissingNamesKey(t *testing.T) {
	input := workflow.NewMapWithItems(workflow.MapItem{Key: "owner", Value: "${who}"})

	_, err := InterpolateValue(input, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `key "owner"`)
}
