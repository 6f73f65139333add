package workflow

import (
	"reflect"

	"github.com/cameronsjo/argonaut/pkg/argo"
)

// Declaration is a named set of members plus an entrypoint, the source of a
// workflow manifest. It is immutable once built.
type Declaration struct {
	typeName   string
	entrypoint string
	metadata   *Map
	members    []Member
	spec       specExtras
}

// specExtras are optional spec fields beyond entrypoint and templates.
type specExtras struct {
	arguments          *argo.Arguments
	serviceAccountName string
	onExit             string
}

// Member is a named value attached to a declaration. It produces a template
// when Value implements TemplateProducer; any other value is carried along and
// ignored by collection.
type Member struct {
	Name  string
	Value any
}

// Producer returns the member's TemplateProducer, if it has one.
func (m Member) Producer() (TemplateProducer, bool) {
	p, ok := m.Value.(TemplateProducer)
	return p, ok && !isNilProducer(p)
}

// isNilProducer reports whether p is nil, including a nil func, pointer or map
// wrapped in the interface.
func isNilProducer(p TemplateProducer) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// TypeName returns the declared type name the resource name derives from.
func (d *Declaration) TypeName() string { return d.typeName }

// Entrypoint returns the name of the template where execution begins.
func (d *Declaration) Entrypoint() string { return d.entrypoint }

// Metadata returns a copy of the metadata overrides in declaration order.
func (d *Declaration) Metadata() *Map {
	return NewMapWithItems(d.metadata.Items()...)
}

// Members returns the members in declaration order.
func (d *Declaration) Members() []Member {
	return append([]Member(nil), d.members...)
}

// Definition is implemented by Go types that declare a workflow.
type Definition interface {
	Define(b *Builder)
}

// TypeNamer lets a Definition choose the type name its resource name derives
// from instead of its Go type name.
type TypeNamer interface {
	WorkflowTypeName() string
}

// Declare builds the declaration described by def. The type name is def's Go
// type name (pointers dereferenced) unless def implements TypeNamer.
func Declare(def Definition) (*Declaration, error) {
	if def == nil {
		return nil, invalidf("nil definition")
	}
	b := NewBuilder(definitionTypeName(def))
	def.Define(b)
	return b.Build()
}

func definitionTypeName(def Definition) string {
	if namer, ok := def.(TypeNamer); ok {
		return namer.WorkflowTypeName()
	}
	return definitionType(def).Name()
}

// definitionType returns def's type with pointer layers removed, so that T and
// *T identify the same declaration.
func definitionType(def Definition) reflect.Type {
	t := reflect.TypeOf(def)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// Builder assembles a Declaration. The first error encountered is reported by
// Build; later calls are still recorded but never clear it.
type Builder struct {
	decl  Declaration
	names map[string]bool
	err   error
}

// NewBuilder starts a declaration for the given type name.
func NewBuilder(typeName string) *Builder {
	return &Builder{
		decl:  Declaration{typeName: typeName, metadata: NewMap()},
		names: make(map[string]bool),
	}
}

// Entrypoint sets the entry template name.
func (b *Builder) Entrypoint(name string) *Builder {
	b.decl.entrypoint = name
	return b
}

// Metadata sets a metadata override such as "labels", "annotations" or "name".
// Overrides replace the derived defaults key by key.
func (b *Builder) Metadata(key string, value any) *Builder {
	if key == "" {
		b.fail(invalidf("empty metadata key"))
		return b
	}
	b.decl.metadata.Set(key, value)
	return b
}

// Member attaches a named value. Values implementing TemplateProducer become
// templates; anything else is kept as a plain member.
func (b *Builder) Member(name string, value any) *Builder {
	switch {
	case name == "":
		b.fail(invalidf("member with empty name"))
	case b.names[name]:
		b.fail(invalidf("duplicate member %q", name))
	case isTypedNilProducer(value):
		b.fail(invalidf("member %q has a nil producer", name))
	default:
		b.names[name] = true
		b.decl.members = append(b.decl.members, Member{Name: name, Value: value})
	}
	return b
}

// Template attaches a template-producing member.
func (b *Builder) Template(name string, producer TemplateProducer) *Builder {
	if isNilProducer(producer) {
		b.fail(invalidf("member %q has a nil producer", name))
		return b
	}
	return b.Member(name, producer)
}

func isTypedNilProducer(value any) bool {
	p, ok := value.(TemplateProducer)
	return ok && isNilProducer(p)
}

// Arguments sets the workflow-level arguments.
func (b *Builder) Arguments(args argo.Arguments) *Builder {
	b.decl.spec.arguments = &args
	return b
}

// ServiceAccount sets the service account the workflow runs as.
func (b *Builder) ServiceAccount(name string) *Builder {
	b.decl.spec.serviceAccountName = name
	return b
}

// OnExit sets the template run when the workflow finishes.
func (b *Builder) OnExit(template string) *Builder {
	b.decl.spec.onExit = template
	return b
}

// Build returns the finished declaration.
func (b *Builder) Build() (*Declaration, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.decl.typeName == "" {
		return nil, invalidf("empty type name")
	}

	decl := b.decl
	decl.metadata = NewMapWithItems(b.decl.metadata.Items()...)
	decl.members = append([]Member(nil), b.decl.members...)
	return &decl, nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
