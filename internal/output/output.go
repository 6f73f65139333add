// Package output writes rendered manifests to files named by a template.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/cameronsjo/argonaut/internal/fileutil"
)

// DefaultFilenameTemplate names a file after the resource name, falling back
// to generateName without its trailing dash.
const DefaultFilenameTemplate = `{{ .Name | default .GenerateName | trimSuffix "-" }}.{{ .Ext }}`

// ErrInvalidFilename is returned when a template renders an unusable path.
var ErrInvalidFilename = errors.New("invalid output filename")

// FileData is the data passed to the filename template.
type FileData struct {
	// Name is metadata.name.
	Name string
	// GenerateName is metadata.generateName.
	GenerateName string
	// Declaration is the declared type name.
	Declaration string
	// Source is the base name of the declaration file without extension.
	Source string
	// Ext is "yaml" or "json".
	Ext string
}

// Writer writes manifests under a directory.
type Writer struct {
	dir  string
	tmpl *template.Template
}

// NewWriter parses the filename template. An empty text uses
// DefaultFilenameTemplate. Templates have every sprig function available.
func NewWriter(dir, text string) (*Writer, error) {
	if text == "" {
		text = DefaultFilenameTemplate
	}
	tmpl, err := template.New("filename").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse filename template: %w", err)
	}
	return &Writer{dir: dir, tmpl: tmpl}, nil
}

// Filename renders the path for data relative to the output directory.
func (w *Writer) Filename(data FileData) (string, error) {
	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render filename: %w", err)
	}

	name := strings.TrimSpace(buf.String())
	switch {
	case name == "", strings.HasPrefix(name, "."):
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	case filepath.IsAbs(name):
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidFilename, name)
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q leaves the output directory", ErrInvalidFilename, name)
	}
	return clean, nil
}

// Write renders the filename for data and writes content there atomically.
// It returns the full path written.
func (w *Writer) Write(data FileData, content []byte) (string, error) {
	name, err := w.Filename(data)
	if err != nil {
		return "", err
	}
	path := filepath.Join(w.dir, name)
	if err := fileutil.WriteFileAtomic(path, content, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
