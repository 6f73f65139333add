package workflow

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/argonaut/pkg/argo"
)

var etlDefines atomic.Int32

type etlPipeline struct{}

func (etlPipeline) Define(b *Builder) {
	etlDefines.Add(1)
	b.Entrypoint("extract").Template("extract", echo("extract"))
}

var flakyDefines atomic.Int32

// flakyPipeline fails on its first declaration only.
type flakyPipeline struct{}

func (flakyPipeline) Define(b *Builder) {
	if flakyDefines.Add(1) == 1 {
		b.Template("broken", ProducerFunc(func() (*argo.Template, []argo.Template, error) {
			return nil, nil, errors.New("transient")
		}))
		return
	}
	b.Entrypoint("ok").Template("ok", echo("ok"))
}

type invalidPipeline struct{}

func (invalidPipeline) Define(b *Builder) { b.Member("", nil) }

func TestRegistry_CompilesOncePerType(t *testing.T) {
	etlDefines.Store(0)
	r := NewRegistry()

	first, err := r.Compile(etlPipeline{})
	require.NoError(t, err)
	second, err := r.Compile(&etlPipeline{})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), etlDefines.Load())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_PointerFirstSharesEntry(t *testing.T) {
	etlDefines.Store(0)
	r := NewRegistry()

	var wg sync.WaitGroup
	results := make([]*Manifest, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var def Definition = etlPipeline{}
			if i%2 == 0 {
				def = &etlPipeline{}
			}
			m, err := r.Compile(def)
			assert.NoError(t, err)
			results[i] = m
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), etlDefines.Load())
	assert.Equal(t, 1, r.Len())
	for _, m := range results {
		assert.Same(t, results[0], m)
	}
}

func TestRegistry_ConcurrentFirstUse(t *testing.T) {
	etlDefines.Store(0)
	r := NewRegistry()

	const workers = 32
	results := make([]*Manifest, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := r.Compile(etlPipeline{})
			assert.NoError(t, err)
			results[i] = m
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), etlDefines.Load())
	for _, m := range results {
		assert.Same(t, results[0], m)
	}
}

func TestRegistry_ErrorsAreNotCached(t *testing.T) {
	flakyDefines.Store(0)
	r := NewRegistry()

	_, err := r.Compile(flakyPipeline{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProducerInvocation))
	assert.Equal(t, 0, r.Len())

	m, err := r.Compile(flakyPipeline{})
	require.NoError(t, err)
	assert.Equal(t, "flaky-pipeline", m.Name())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_DeclarationError(t *testing.T) {
	r := NewRegistry()

	_, err := r.Compile(invalidPipeline{})
	assert.True(t, errors.Is(err, ErrInvalidDeclaration))

	_, err = r.Compile(nil)
	assert.True(t, errors.Is(err, ErrInvalidDeclaration))
}

func TestRegistry_TypesAreIndependent(t *testing.T) {
	r := NewRegistry()

	etl, err := r.Compile(etlPipeline{})
	require.NoError(t, err)
	nightly, err := r.Compile(nightlyBuild{})
	require.NoError(t, err)

	assert.Equal(t, "etl-pipeline", etl.Name())
	assert.Equal(t, "nightly-build", nightly.Name())
	assert.Equal(t, 2, r.Len())
}

func TestCompile_DefaultRegistry(t *testing.T) {
	first, err := Compile(nightlyBuild{})
	require.NoError(t, err)
	second, err := Compile(nightlyBuild{})
	require.NoError(t, err)

	assert.Same(t, first, second)
}
