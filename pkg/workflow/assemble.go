package workflow

import (
	"bytes"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/argonaut/pkg/argo"
	"github.com/cameronsjo/argonaut/pkg/naming"
)

var discardLogger = slog.New(slog.DiscardHandler)

// AssembleOption configures Assemble.
type AssembleOption func(*assembleOptions)

type assembleOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report template discovery at debug level.
func WithLogger(logger *slog.Logger) AssembleOption {
	return func(o *assembleOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Assemble builds the workflow manifest for decl.
//
// The resource name derives from the declaration's type name; generateName is
// that name plus "-". Metadata overrides replace these defaults key by key. The
// spec holds the entrypoint and the collected templates, and status is present
// but empty. Assembling the same declaration twice gives equal manifests.
func Assemble(decl *Declaration, opts ...AssembleOption) (*Manifest, error) {
	o := assembleOptions{logger: discardLogger}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("component", "assembler", "declaration", decl.typeName)

	metadata, err := buildMetadata(decl)
	if err != nil {
		return nil, err
	}

	templates, err := collect(decl, logger)
	if err != nil {
		return nil, err
	}

	doc := argo.Workflow{
		APIVersion: argo.APIVersion,
		Kind:       argo.KindWorkflow,
		Metadata:   metadata,
		Spec: argo.WorkflowSpec{
			Entrypoint:         decl.entrypoint,
			Templates:          templates,
			Arguments:          decl.spec.arguments,
			ServiceAccountName: decl.spec.serviceAccountName,
			OnExit:             decl.spec.onExit,
		},
		Status: argo.WorkflowStatus{},
	}

	logger.Debug("assembled manifest", "name", metadata.Name, "templates", len(templates))
	return &Manifest{doc: doc}, nil
}

// metadataAliases maps alternate override spellings to resource field names.
var metadataAliases = map[string]string{
	"generate_name": "generateName",
}

// buildMetadata merges the declaration's metadata overrides onto the derived
// defaults and decodes the result into ObjectMeta. Unknown keys and ill-typed
// values are schema violations.
func buildMetadata(decl *Declaration) (argo.ObjectMeta, error) {
	name := naming.Derive(decl.typeName)
	generateName := ""
	if name != "" {
		generateName = name + "-"
	}

	merged := NewMapWithItems(
		MapItem{Key: "name", Value: name},
		MapItem{Key: "generateName", Value: generateName},
	)
	decl.metadata.Iterate(func(key string, value any) {
		if alias, ok := metadataAliases[key]; ok {
			key = alias
		}
		merged.Set(key, value)
	})

	var meta argo.ObjectMeta
	data, err := yaml.Marshal(merged)
	if err != nil {
		return meta, &SchemaError{Path: "metadata", Msg: err.Error()}
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&meta); err != nil {
		return meta, &SchemaError{Path: "metadata", Msg: err.Error()}
	}
	if meta.Name == "" && meta.GenerateName == "" {
		return meta, &SchemaError{Path: "metadata.name", Msg: fmt.Sprintf("type %q derives no name", decl.typeName)}
	}
	return meta, nil
}
