package declaration

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cameronsjo/argonaut/internal/fileutil"
)

// Library is a loaded library file with its own imports already resolved.
type Library struct {
	// Name is the library name the file was imported under.
	Name string

	// Values are the library's default values.
	Values map[string]any

	// Members are the library's members, imported ones first.
	Members []MemberSpec
}

// LoadLibrary loads a library file and everything it imports.
// Circular imports are skipped rather than reported.
func LoadLibrary(name, libraryDir string) (*Library, error) {
	loaded := make(map[string]bool)
	return loadLibraryInternal(name, libraryDir, loaded, discardLogger)
}

func loadLibraryInternal(name, libraryDir string, loaded map[string]bool, logger *slog.Logger) (*Library, error) {
	// Prevent circular imports
	if loaded[name] {
		logger.Debug("skipping already imported library", "library", name)
		return &Library{Name: name}, nil
	}
	loaded[name] = true

	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil, fmt.Errorf("invalid library name %q", name)
	}

	path, err := libraryPath(name, libraryDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library %s: %w", path, err)
	}

	if _, err := ValidateMeta(data, KindLibrary); err != nil {
		return nil, fmt.Errorf("library %s: %w", name, err)
	}

	file, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse library %s: %w", name, err)
	}

	lib := &Library{Name: name}
	if len(file.Imports) > 0 {
		members, values, err := resolveImports(file.Imports, libraryDir, loaded, logger)
		if err != nil {
			return nil, fmt.Errorf("import in library %s: %w", name, err)
		}
		lib.Members = members
		lib.Values = values
	}

	lib.Values = DeepMerge(lib.Values, file.Values)
	lib.Members = mergeMembers(lib.Members, file.Members)

	logger.Debug("loaded library", "library", name, "members", len(lib.Members))
	return lib, nil
}

// resolveImports loads libraries in order. Members accumulate in import order
// and values layer with later libraries winning.
func resolveImports(imports []string, libraryDir string, loaded map[string]bool, logger *slog.Logger) ([]MemberSpec, map[string]any, error) {
	var members []MemberSpec
	values := make(map[string]any)

	for _, name := range imports {
		lib, err := loadLibraryInternal(name, libraryDir, loaded, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("import %s: %w", name, err)
		}
		members = mergeMembers(members, lib.Members)
		values = DeepMerge(values, lib.Values)
	}

	return members, values, nil
}

// mergeMembers appends overlay to base. A member whose name is already present
// replaces the earlier one in place.
func mergeMembers(base, overlay []MemberSpec) []MemberSpec {
	result := append([]MemberSpec(nil), base...)
	index := make(map[string]int, len(result))
	for i, m := range result {
		index[m.Name] = i
	}

	for _, m := range overlay {
		if i, ok := index[m.Name]; ok {
			result[i] = m
			continue
		}
		index[m.Name] = len(result)
		result = append(result, m)
	}
	return result
}

// libraryPath finds <name>.yml or <name>.yaml in libraryDir.
func libraryPath(name, libraryDir string) (string, error) {
	for _, ext := range fileutil.YAMLExtensions {
		path := filepath.Join(libraryDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("library not found: %s", filepath.Join(libraryDir, name+".yml"))
}

// ListLibraries returns the names of all available libraries.
func ListLibraries(libraryDir string) ([]string, error) {
	paths, err := fileutil.ListYAML(libraryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("library directory not found: %s", libraryDir)
		}
		return nil, fmt.Errorf("read library directory: %w", err)
	}

	names := make([]string, len(paths))
	for i, path := range paths {
		names[i] = fileutil.Stem(path)
	}
	return names, nil
}

// LibraryExists checks if a library file exists.
func LibraryExists(name, libraryDir string) bool {
	_, err := libraryPath(name, libraryDir)
	return err == nil
}
