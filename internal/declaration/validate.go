package declaration

import (
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Validation errors for file versioning.
var (
	// ErrUnsupportedAPIVersion indicates an unknown or unsupported API version.
	ErrUnsupportedAPIVersion = errors.New("unsupported API version")

	// ErrInvalidKind indicates an unknown file kind.
	ErrInvalidKind = errors.New("invalid kind")

	// ErrKindMismatch indicates the kind doesn't match what was expected.
	ErrKindMismatch = errors.New("kind mismatch")

	// ErrMissingAPIVersion indicates a file is missing the apiVersion field.
	ErrMissingAPIVersion = errors.New("missing apiVersion field")

	// ErrMissingKind indicates a file is missing the kind field.
	ErrMissingKind = errors.New("missing kind field")
)

// Meta contains the versioning fields common to every file.
type Meta struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
}

// ValidateAPIVersion checks if the provided version is supported.
// Returns nil if the version is valid or empty (for backwards compatibility).
func ValidateAPIVersion(version string) error {
	if version == "" {
		return nil
	}

	if slices.Contains(SupportedAPIVersions, version) {
		return nil
	}

	return fmt.Errorf("%w: %s (supported: %v)", ErrUnsupportedAPIVersion, version, SupportedAPIVersions)
}

// ValidateKind checks if the provided kind is valid and matches the expected kind.
// Returns nil if the kind is valid or empty (for backwards compatibility).
func ValidateKind(kind, expected string) error {
	if kind == "" {
		return nil
	}

	if !slices.Contains(SupportedKinds, kind) {
		return fmt.Errorf("%w: %s (supported: %v)", ErrInvalidKind, kind, SupportedKinds)
	}

	if kind != expected {
		return fmt.Errorf("%w: got %s, expected %s", ErrKindMismatch, kind, expected)
	}

	return nil
}

// ValidateMeta extracts and validates apiVersion and kind from raw YAML data.
// Missing fields are allowed for backwards compatibility.
func ValidateMeta(data []byte, expectedKind string) (*Meta, error) {
	meta, err := readMeta(data)
	if err != nil {
		return nil, err
	}

	if err := ValidateAPIVersion(meta.APIVersion); err != nil {
		return meta, err
	}
	if err := ValidateKind(meta.Kind, expectedKind); err != nil {
		return meta, err
	}

	return meta, nil
}

// ValidateMetaStrict validates a file and requires apiVersion and kind fields.
func ValidateMetaStrict(data []byte, expectedKind string) (*Meta, error) {
	meta, err := readMeta(data)
	if err != nil {
		return nil, err
	}

	if meta.APIVersion == "" {
		return meta, ErrMissingAPIVersion
	}

	if meta.Kind == "" {
		return meta, ErrMissingKind
	}

	if err := ValidateAPIVersion(meta.APIVersion); err != nil {
		return meta, err
	}

	if err := ValidateKind(meta.Kind, expectedKind); err != nil {
		return meta, err
	}

	return meta, nil
}

// IsVersioned checks if a file has apiVersion and kind fields set.
func IsVersioned(data []byte) (bool, error) {
	meta, err := readMeta(data)
	if err != nil {
		return false, err
	}

	return meta.APIVersion != "" && meta.Kind != "", nil
}

// GetKind extracts the kind field from raw YAML data.
// Returns empty string if kind is not present.
func GetKind(data []byte) (string, error) {
	meta, err := readMeta(data)
	if err != nil {
		return "", err
	}

	return meta.Kind, nil
}

func readMeta(data []byte) (*Meta, error) {
	var meta Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse file metadata: %w", err)
	}
	return &meta, nil
}
