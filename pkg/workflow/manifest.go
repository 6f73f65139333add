package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/argonaut/pkg/argo"
)

// Manifest is an assembled workflow document. It is never modified after
// assembly and is safe for concurrent readers.
type Manifest struct {
	doc argo.Workflow
}

// Name returns metadata.name.
func (m *Manifest) Name() string { return m.doc.Metadata.Name }

// GenerateName returns metadata.generateName.
func (m *Manifest) GenerateName() string { return m.doc.Metadata.GenerateName }

// Entrypoint returns spec.entrypoint.
func (m *Manifest) Entrypoint() string { return m.doc.Spec.Entrypoint }

// TemplateNames returns the names of spec.templates in order.
func (m *Manifest) TemplateNames() []string {
	names := make([]string, len(m.doc.Spec.Templates))
	for i, t := range m.doc.Spec.Templates {
		names[i] = t.Name
	}
	return names
}

// Document returns a deep copy of the underlying resource.
func (m *Manifest) Document() (argo.Workflow, error) {
	var out argo.Workflow
	if err := clone(m.doc, &out); err != nil {
		return argo.Workflow{}, err
	}
	return out, nil
}

// ToMapping returns the manifest as a generic mapping keyed by the resource's
// field names, in field order. With omitEmpty, empty values are pruned.
func (m *Manifest) ToMapping(omitEmpty bool) (*Map, error) {
	generic, err := normalize(m.doc, "")
	if err != nil {
		return nil, err
	}
	mapping, ok := generic.(*Map)
	if !ok {
		return nil, &EncodingError{Msg: fmt.Sprintf("manifest encoded as %T", generic)}
	}
	if omitEmpty {
		return Prune(mapping).(*Map), nil
	}
	return mapping, nil
}

// ToYAML renders the pruned mapping as YAML. Block style and insertion order
// are the defaults; see TextOption for overrides.
func (m *Manifest) ToYAML(opts ...TextOption) (string, error) {
	mapping, err := m.ToMapping(true)
	if err != nil {
		return "", err
	}
	return EncodeYAML(mapping, opts...)
}

// ToJSON renders the pruned mapping as JSON, keeping key order. A non-empty
// indent pretty-prints.
func (m *Manifest) ToJSON(indent string) ([]byte, error) {
	mapping, err := m.ToMapping(true)
	if err != nil {
		return nil, err
	}
	return EncodeJSON(mapping, indent)
}

// Instance returns a copy named the way an API server would name it:
// generateName followed by a random suffix.
func (m *Manifest) Instance() (*Manifest, error) {
	doc, err := m.Document()
	if err != nil {
		return nil, err
	}
	base := doc.Metadata.GenerateName
	if base == "" {
		base = doc.Metadata.Name + "-"
	}
	doc.Metadata.Name = base + uuid.New().String()[:5]
	return &Manifest{doc: doc}, nil
}

// Annotate returns a copy with annotations added to metadata. Existing keys
// are overwritten.
func (m *Manifest) Annotate(annotations map[string]string) (*Manifest, error) {
	doc, err := m.Document()
	if err != nil {
		return nil, err
	}
	if len(annotations) > 0 && doc.Metadata.Annotations == nil {
		doc.Metadata.Annotations = make(map[string]string, len(annotations))
	}
	for k, v := range annotations {
		doc.Metadata.Annotations[k] = v
	}
	return &Manifest{doc: doc}, nil
}

// TextOption overrides one YAML formatting setting.
type TextOption func(*TextOptions)

// TextOptions are the YAML formatting settings.
type TextOptions struct {
	// FlowStyle renders every collection inline instead of as blocks.
	FlowStyle bool
	// Indent is the number of spaces per nesting level.
	Indent int
	// SortKeys orders mapping keys alphabetically instead of as declared.
	SortKeys bool
	// ExplicitStart prefixes the document with "---".
	ExplicitStart bool
	// Encoder hooks run against the yaml.Encoder before encoding.
	Encoder []func(*yaml.Encoder)
}

// DefaultTextOptions returns block style, two-space indent, declared key order.
func DefaultTextOptions() TextOptions {
	return TextOptions{Indent: 2}
}

// WithFlowStyle toggles inline collections.
func WithFlowStyle(flow bool) TextOption {
	return func(o *TextOptions) { o.FlowStyle = flow }
}

// WithIndent sets the indentation width.
func WithIndent(spaces int) TextOption {
	return func(o *TextOptions) { o.Indent = spaces }
}

// WithSortKeys toggles alphabetical key order.
func WithSortKeys(sorted bool) TextOption {
	return func(o *TextOptions) { o.SortKeys = sorted }
}

// WithExplicitStart toggles the leading "---".
func WithExplicitStart(explicit bool) TextOption {
	return func(o *TextOptions) { o.ExplicitStart = explicit }
}

// WithEncoder passes a setting straight through to the underlying encoder.
func WithEncoder(fn func(*yaml.Encoder)) TextOption {
	return func(o *TextOptions) { o.Encoder = append(o.Encoder, fn) }
}

// EncodeYAML renders a generic value as YAML.
func EncodeYAML(v any, opts ...TextOption) (string, error) {
	o := DefaultTextOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.SortKeys {
		v = SortKeys(v)
	}
	node, err := toNode(v, "", o.FlowStyle)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if o.ExplicitStart {
		buf.WriteString("---\n")
	}
	enc := yaml.NewEncoder(&buf)
	if o.Indent > 0 {
		enc.SetIndent(o.Indent)
	}
	for _, fn := range o.Encoder {
		fn(enc)
	}
	if err := enc.Encode(node); err != nil {
		return "", &EncodingError{Msg: err.Error()}
	}
	if err := enc.Close(); err != nil {
		return "", &EncodingError{Msg: err.Error()}
	}
	return buf.String(), nil
}

// EncodeJSON renders a generic value as JSON, keeping mapping key order.
func EncodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v, ""); err != nil {
		return nil, err
	}
	if indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", indent); err != nil {
		return nil, &EncodingError{Msg: err.Error()}
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// DecodeYAML parses a YAML document into the generic value model.
func DecodeYAML(data []byte) (any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return fromNode(&node)
}

// clone deep-copies src into dst through its YAML representation.
func clone(src any, dst any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &EncodingError{Msg: fmt.Sprint(r)}
		}
	}()

	var node yaml.Node
	if err := node.Encode(src); err != nil {
		return &EncodingError{Msg: err.Error()}
	}
	if err := node.Decode(dst); err != nil {
		return fmt.Errorf("copy document: %w", err)
	}
	return nil
}
