package workflow

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/argonaut/pkg/argo"
)

// countingProducer records how often it was invoked.
type countingProducer struct {
	calls int
	tmpl  *argo.Template
	aux   []argo.Template
	err   error
}

func (p *countingProducer) ProduceTemplate() (*argo.Template, []argo.Template, error) {
	p.calls++
	return p.tmpl, p.aux, p.err
}

func mustBuild(t *testing.T, b *Builder) *Declaration {
	t.Helper()
	decl, err := b.Build()
	require.NoError(t, err)
	return decl
}

func TestCollect_DeclarationOrder(t *testing.T) {
	decl := mustBuild(t, NewBuilder("Pipeline").
		Template("zeta", echo("zeta")).
		Member("notes", "not a template").
		Template("alpha", echo("alpha")).
		Member("retries", 3).
		Template("mid", echo("mid")))

	templates, err := Collect(decl)
	require.NoError(t, err)

	names := make([]string, len(templates))
	for i, tmpl := range templates {
		names[i] = tmpl.Name
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestCollect_InvokesEachProducerOnce(t *testing.T) {
	a := &countingProducer{tmpl: &argo.Template{Name: "a", Container: &argo.Container{Image: "x"}}}
	b := &countingProducer{tmpl: &argo.Template{Name: "b", Container: &argo.Container{Image: "y"}}}
	decl := mustBuild(t, NewBuilder("Pipeline").Template("a", a).Template("b", b))

	_, err := Collect(decl)
	require.NoError(t, err)

	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestCollect_NoProducers(t *testing.T) {
	decl := mustBuild(t, NewBuilder("Pipeline").Member("note", "x"))

	templates, err := Collect(decl)
	require.NoError(t, err)
	assert.NotNil(t, templates)
	assert.Empty(t, templates)
}

func TestCollect_AbsentTemplateContributesAuxiliaries(t *testing.T) {
	p := &countingProducer{aux: []argo.Template{{Name: "helper", Container: &argo.Container{Image: "x"}}}}
	decl := mustBuild(t, NewBuilder("Pipeline").
		Template("first", echo("first")).
		Template("hidden", p))

	templates, err := Collect(decl)
	require.NoError(t, err)

	require.Len(t, templates, 2)
	assert.Equal(t, "first", templates[0].Name)
	assert.Equal(t, "helper", templates[1].Name)
}

func TestCollect_OwnTemplateBeforeAuxiliaries(t *testing.T) {
	decl := mustBuild(t, NewBuilder("Pipeline").
		Template("main", Steps("main", StepGroup{{Name: "s", Inline: echo("leaf")}})).
		Template("other", echo("other")))

	templates, err := Collect(decl)
	require.NoError(t, err)

	require.Len(t, templates, 3)
	assert.Equal(t, "main", templates[0].Name)
	assert.Equal(t, "leaf", templates[1].Name)
	assert.Equal(t, "other", templates[2].Name)
}

func TestCollect_DropsIdenticalDuplicates(t *testing.T) {
	decl := mustBuild(t, NewBuilder("Pipeline").
		Template("leaf", echo("leaf")).
		Template("main", Steps("main", StepGroup{{Name: "s", Inline: echo("leaf")}})))

	templates, err := Collect(decl)
	require.NoError(t, err)

	require.Len(t, templates, 2)
	assert.Equal(t, "leaf", templates[0].Name)
	assert.Equal(t, "main", templates[1].Name)
}

func TestCollect_ConflictingDuplicates(t *testing.T) {
	decl := mustBuild(t, NewBuilder("Pipeline").
		Template("one", echo("same")).
		Template("two", Container("same", argo.Container{Image: "busybox"})))

	_, err := Collect(decl)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaViolation))
	assert.Contains(t, err.Error(), `"two"`)
}

func TestCollect_UnnamedTemplate(t *testing.T) {
	decl := mustBuild(t, NewBuilder("Pipeline").
		Template("ok", echo("ok")).
		Template("bad", Static(argo.Template{Container: &argo.Container{Image: "x"}})))

	_, err := Collect(decl)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "spec.templates[1].name", schemaErr.Path)
}

func TestCollect_ProducerFailureAbortsAll(t *testing.T) {
	boom := errors.New("registry unreachable")
	later := &countingProducer{tmpl: &argo.Template{Name: "later"}}
	decl := mustBuild(t, NewBuilder("Pipeline").
		Template("first", echo("first")).
		Template("broken", &countingProducer{err: boom}).
		Template("later", later))

	templates, err := Collect(decl)
	require.Error(t, err)
	assert.Nil(t, templates)
	assert.True(t, errors.Is(err, ErrProducerInvocation))
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 0, later.calls)

	var prodErr *ProducerError
	require.ErrorAs(t, err, &prodErr)
	assert.Equal(t, "broken", prodErr.Member)
}

func TestCollect_PanickingProducer(t *testing.T) {
	decl := mustBuild(t, NewBuilder("Pipeline").
		Template("first", echo("first")).
		Template("broken", ProducerFunc(func() (*argo.Template, []argo.Template, error) {
			var steps []argo.Template
			return &steps[0], nil, nil
		})))

	var templates []argo.Template
	var err error
	require.NotPanics(t, func() { templates, err = Collect(decl) })
	assert.Nil(t, templates)
	assert.True(t, errors.Is(err, ErrProducerInvocation))

	var prodErr *ProducerError
	require.ErrorAs(t, err, &prodErr)
	assert.Equal(t, "broken", prodErr.Member)
}

func TestCollect_LogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	decl := mustBuild(t, NewBuilder("Pipeline").
		Template("a", echo("a")).
		Member("plain", 1))

	_, err := collect(decl, logger)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "collected member")
	assert.Contains(t, buf.String(), "skipping member without template")
}
