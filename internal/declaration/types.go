package declaration

import (
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/argonaut/pkg/argo"
	"github.com/cameronsjo/argonaut/pkg/workflow"
)

// API version and kind constants for declaration files.
const (
	// APIVersionV1 is the current API version for declaration files.
	APIVersionV1 = "argonaut.io/v1"

	// KindDeclaration identifies a workflow declaration.
	KindDeclaration = "Declaration"

	// KindLibrary identifies a library of shared members.
	KindLibrary = "Library"
)

// SupportedAPIVersions lists all API versions that can be loaded.
var SupportedAPIVersions = []string{APIVersionV1}

// SupportedKinds lists all valid file kinds.
var SupportedKinds = []string{KindDeclaration, KindLibrary}

// File is a declaration file as written on disk.
type File struct {
	// APIVersion identifies the schema version (e.g., "argonaut.io/v1").
	APIVersion string `yaml:"apiVersion,omitempty"`

	// Kind identifies the file type (e.g., "Declaration").
	Kind string `yaml:"kind,omitempty"`

	// Name is the declared type name the workflow name derives from. It
	// defaults to the file name without its extension.
	Name string `yaml:"name,omitempty"`

	// Entrypoint is the template execution starts at.
	Entrypoint string `yaml:"entrypoint,omitempty"`

	// Metadata overrides the derived workflow metadata key by key.
	Metadata *workflow.Map `yaml:"metadata,omitempty"`

	// Values are the variables available to ${...} placeholders.
	Values map[string]any `yaml:"values,omitempty"`

	// Imports lists libraries whose members come before this file's own.
	Imports []string `yaml:"imports,omitempty"`

	// Arguments are the workflow-level arguments.
	Arguments *argo.Arguments `yaml:"arguments,omitempty"`

	// ServiceAccountName is the account the workflow runs as.
	ServiceAccountName string `yaml:"serviceAccountName,omitempty"`

	// OnExit names the template run when the workflow finishes.
	OnExit string `yaml:"onExit,omitempty"`

	// Members are the named entries of the declaration, in order.
	Members []MemberSpec `yaml:"members,omitempty"`
}

// MemberSpec is one member entry of a declaration or library file.
type MemberSpec struct {
	// Name identifies the member. A template without a name takes it.
	Name string `yaml:"name"`

	// Template is the raw template body, resolved when produced.
	Template yaml.Node `yaml:"template,omitempty"`

	// Description is free text carried by non-producing members.
	Description string `yaml:"description,omitempty"`
}

// HasTemplate reports whether the member produces a template.
func (m MemberSpec) HasTemplate() bool {
	switch {
	case m.Template.Kind == 0:
		return false
	case m.Template.Kind == yaml.ScalarNode && m.Template.ShortTag() == "!!null":
		return false
	default:
		return true
	}
}
