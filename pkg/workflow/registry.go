package workflow

import (
	"log/slog"
	"reflect"
	"sync"
)

// Registry caches one assembled manifest per Definition type. A type and
// pointers to it share one entry.
//
// The first successful assembly for a type is published and returned to every
// later caller; concurrent first calls for the same type assemble once. A failed
// assembly is not cached, so a later call tries again.
type Registry struct {
	mu      sync.Mutex
	entries map[reflect.Type]*registryEntry
	opts    []AssembleOption
}

type registryEntry struct {
	mu       sync.Mutex
	manifest *Manifest
}

// NewRegistry returns an empty registry that assembles with opts.
func NewRegistry(opts ...AssembleOption) *Registry {
	return &Registry{
		entries: make(map[reflect.Type]*registryEntry),
		opts:    opts,
	}
}

var defaultRegistry = NewRegistry()

// Compile returns the manifest for def's type from the process-wide registry.
func Compile(def Definition) (*Manifest, error) {
	return defaultRegistry.Compile(def)
}

// Compile returns the cached manifest for def's type, declaring and assembling
// it on first use.
func (r *Registry) Compile(def Definition) (*Manifest, error) {
	if def == nil {
		return nil, invalidf("nil definition")
	}
	entry, opts := r.entry(definitionType(def))

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.manifest != nil {
		return entry.manifest, nil
	}

	decl, err := Declare(def)
	if err != nil {
		return nil, err
	}
	manifest, err := Assemble(decl, opts...)
	if err != nil {
		return nil, err
	}
	entry.manifest = manifest
	return manifest, nil
}

// Len returns the number of types with a published manifest.
func (r *Registry) Len() int {
	r.mu.Lock()
	entries := make([]*registryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	n := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.manifest != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

func (r *Registry) entry(t reflect.Type) (*registryEntry, []AssembleOption) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[t]
	if !ok {
		e = &registryEntry{}
		r.entries[t] = e
	}
	return e, r.opts
}

// SetDefaultLogger sets the logger the process-wide registry assembles with.
// It affects manifests compiled afterwards.
func SetDefaultLogger(logger *slog.Logger) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.opts = []AssembleOption{WithLogger(logger)}
}
