package declaration

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/argonaut/internal/fileutil"
	"github.com/cameronsjo/argonaut/pkg/argo"
	"github.com/cameronsjo/argonaut/pkg/workflow"
)

var discardLogger = slog.New(slog.DiscardHandler)

// Options configures how a declaration file becomes a workflow declaration.
type Options struct {
	// LibraryDir is where imported libraries are looked up.
	LibraryDir string

	// Values are layered over the file's own values; maps merge recursively.
	Values map[string]any

	// Logger receives debug output about imports. Nil discards it.
	Logger *slog.Logger
}

// ReadFile reads and validates a declaration file without resolving imports.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declaration: %w", err)
	}

	if _, err := ValidateMeta(data, KindDeclaration); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	file, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse declaration %s: %w", path, err)
	}

	if file.Name == "" {
		file.Name = fileutil.Stem(path)
	}
	return file, nil
}

// Load reads a declaration file and builds it. See Build.
func Load(path string, opts Options) (*workflow.Declaration, error) {
	file, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(file, opts)
}

// Build turns a parsed file into a workflow declaration.
//
// Values layer as imported libraries, then the file's own values, then
// opts.Values. Metadata and the entrypoint are interpolated immediately;
// template bodies are interpolated and decoded only when produced.
func Build(file *File, opts Options) (*workflow.Declaration, error) {
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}
	logger = logger.With("component", "declaration", "name", file.Name)

	members := file.Members
	var libraryValues map[string]any
	if len(file.Imports) > 0 {
		imported, values, err := resolveImports(file.Imports, opts.LibraryDir, make(map[string]bool), logger)
		if err != nil {
			return nil, err
		}
		members = mergeMembers(imported, file.Members)
		libraryValues = values
	}
	values := MergeAll(libraryValues, file.Values, opts.Values)

	entrypoint, err := Interpolate(file.Entrypoint, values)
	if err != nil {
		return nil, fmt.Errorf("entrypoint: %w", err)
	}

	b := workflow.NewBuilder(file.Name).Entrypoint(entrypoint)

	if file.Metadata != nil {
		metadata, err := InterpolateValue(file.Metadata, values)
		if err != nil {
			return nil, fmt.Errorf("metadata: %w", err)
		}
		metadata.(*workflow.Map).Iterate(func(key string, value any) {
			b.Metadata(key, value)
		})
	}

	if file.Arguments != nil {
		b.Arguments(*file.Arguments)
	}
	if file.ServiceAccountName != "" {
		b.ServiceAccount(file.ServiceAccountName)
	}
	if file.OnExit != "" {
		b.OnExit(file.OnExit)
	}

	for _, m := range members {
		if m.HasTemplate() {
			b.Template(m.Name, &bodyTemplate{member: m.Name, body: m.Template, values: values})
			continue
		}
		b.Member(m.Name, m.Description)
	}

	decl, err := b.Build()
	if err != nil {
		return nil, err
	}
	logger.Debug("built declaration", "members", len(members), "imports", len(file.Imports))
	return decl, nil
}

// LoadValues loads a values overlay file.
func LoadValues(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(content, &values); err != nil {
		return nil, fmt.Errorf("parse values file: %w", err)
	}

	return values, nil
}

// parse decodes a file strictly; unknown top-level or member fields are errors,
// and so are two members sharing a name.
func parse(data []byte) (*File, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	seen := make(map[string]bool, len(file.Members))
	for _, m := range file.Members {
		if m.Name == "" {
			return nil, fmt.Errorf("%w: member with empty name", workflow.ErrInvalidDeclaration)
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("%w: duplicate member %q", workflow.ErrInvalidDeclaration, m.Name)
		}
		seen[m.Name] = true
	}
	return &file, nil
}

// bodyTemplate produces a template from a raw YAML body.
type bodyTemplate struct {
	member string
	body   yaml.Node
	values map[string]any
}

// ProduceTemplate interpolates the body and decodes it into a template. The
// template's name defaults to the member name.
func (p *bodyTemplate) ProduceTemplate() (*argo.Template, []argo.Template, error) {
	body, err := interpolateNode(&p.body, p.values, false)
	if err != nil {
		return nil, nil, err
	}

	var tmpl argo.Template
	if err := decodeStrict(body, &tmpl); err != nil {
		return nil, nil, &workflow.SchemaError{
			Path: "members." + p.member + ".template",
			Msg:  err.Error(),
		}
	}

	if tmpl.Name == "" {
		tmpl.Name = p.member
	}
	return &tmpl, nil, nil
}

// interpolateNode returns a copy of n with variables substituted into scalar
// values. Mapping keys are left alone. A plain scalar is re-resolved after
// substitution so "${replicas}" can still fill an integer field; quoted and
// block scalars stay strings.
func interpolateNode(n *yaml.Node, values map[string]any, isKey bool) (*yaml.Node, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		return interpolateNode(n.Alias, values, isKey)
	}

	out := *n
	out.Content = nil
	out.Alias = nil

	if n.Kind == yaml.ScalarNode {
		if isKey || !strings.Contains(n.Value, "${") {
			return &out, nil
		}
		value, err := Interpolate(n.Value, values)
		if err != nil {
			return nil, err
		}
		out.Value = value
		if isPlain(n) {
			out.Tag = ""
		}
		return &out, nil
	}

	for i, child := range n.Content {
		key := n.Kind == yaml.MappingNode && i%2 == 0
		c, err := interpolateNode(child, values, key)
		if err != nil {
			return nil, err
		}
		out.Content = append(out.Content, c)
	}
	return &out, nil
}

func isPlain(n *yaml.Node) bool {
	const styled = yaml.TaggedStyle | yaml.DoubleQuotedStyle | yaml.SingleQuotedStyle |
		yaml.LiteralStyle | yaml.FoldedStyle
	return n.Style&styled == 0
}

// decodeStrict decodes n into out, rejecting fields out does not declare.
func decodeStrict(n *yaml.Node, out any) error {
	raw, err := yaml.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode template body: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}
