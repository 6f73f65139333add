package declaration

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/argonaut/internal/fileutil"
)

// MigrationResult represents the result of migrating a single file.
type MigrationResult struct {
	// Path is the file path that was processed.
	Path string

	// Kind is the detected or declared kind.
	Kind string

	// WasVersioned indicates if the file already had apiVersion/kind.
	WasVersioned bool

	// Migrated indicates if the file was migrated (or would be in dry-run).
	Migrated bool

	// Error contains any error that occurred during migration.
	Error error
}

// MigrateOptions configures the migration behavior.
type MigrateOptions struct {
	// DryRun if true, don't write changes to disk.
	DryRun bool
}

// MigrateToV1 adds apiVersion and kind fields to an unversioned file.
// It detects the kind from content and returns the migrated content with it.
func MigrateToV1(data []byte) ([]byte, string, error) {
	versioned, err := IsVersioned(data)
	if err != nil {
		return nil, "", fmt.Errorf("check versioned: %w", err)
	}

	if versioned {
		kind, err := GetKind(data)
		if err != nil {
			return nil, "", err
		}
		return data, kind, nil
	}

	kind, err := detectKind(data)
	if err != nil {
		return nil, "", fmt.Errorf("detect kind: %w", err)
	}

	header := fmt.Sprintf("apiVersion: %s\nkind: %s\n", APIVersionV1, kind)
	return []byte(header + string(stripHeader(data))), kind, nil
}

// stripHeader drops a lone apiVersion or kind line so the new header does not
// duplicate it.
func stripHeader(data []byte) []byte {
	lines := strings.SplitAfter(string(data), "\n")
	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(line, "apiVersion:") || strings.HasPrefix(line, "kind:") {
			continue
		}
		kept = append(kept, line)
	}
	return []byte(strings.Join(kept, ""))
}

// detectKind infers the kind from content. An existing kind field wins; files
// naming a workflow or its entrypoint are declarations and anything else is a
// library.
func detectKind(data []byte) (string, error) {
	var content map[string]any
	if err := yaml.Unmarshal(data, &content); err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}

	if kind, ok := content["kind"].(string); ok && kind != "" {
		return kind, nil
	}
	if _, hasEntrypoint := content["entrypoint"]; hasEntrypoint {
		return KindDeclaration, nil
	}
	if _, hasName := content["name"]; hasName {
		return KindDeclaration, nil
	}

	return KindLibrary, nil
}

// MigrateFile migrates a single file to v1.
func MigrateFile(path string, opts MigrateOptions) (*MigrationResult, error) {
	result := &MigrationResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = fmt.Errorf("read file: %w", err)
		return result, result.Error
	}

	versioned, err := IsVersioned(data)
	if err != nil {
		result.Error = fmt.Errorf("check versioned: %w", err)
		return result, result.Error
	}

	result.WasVersioned = versioned
	if versioned {
		kind, _ := GetKind(data)
		result.Kind = kind
		return result, nil
	}

	migrated, kind, err := MigrateToV1(data)
	if err != nil {
		result.Error = fmt.Errorf("migrate: %w", err)
		return result, result.Error
	}

	result.Kind = kind
	result.Migrated = true

	if !opts.DryRun {
		info, err := os.Stat(path)
		if err != nil {
			result.Error = fmt.Errorf("stat file: %w", err)
			return result, result.Error
		}
		if err := fileutil.WriteFileAtomic(path, migrated, info.Mode().Perm()); err != nil {
			result.Error = fmt.Errorf("write file: %w", err)
			return result, result.Error
		}
	}

	return result, nil
}

// MigrateDirectory migrates all YAML files in the given directories.
// Missing directories are skipped.
func MigrateDirectory(dirs []string, opts MigrateOptions) ([]*MigrationResult, error) {
	var results []*MigrationResult

	for _, dir := range dirs {
		paths, err := fileutil.ListYAML(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return results, fmt.Errorf("read directory %s: %w", dir, err)
		}

		for _, path := range paths {
			result, _ := MigrateFile(path, opts)
			results = append(results, result)
		}
	}

	return results, nil
}

// ScanUnversioned finds all unversioned files in the given directories.
func ScanUnversioned(dirs []string) ([]*MigrationResult, error) {
	var results []*MigrationResult

	for _, dir := range dirs {
		paths, err := fileutil.ListYAML(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return results, fmt.Errorf("read directory %s: %w", dir, err)
		}

		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				results = append(results, &MigrationResult{Path: path, Error: err})
				continue
			}

			versioned, err := IsVersioned(data)
			if err != nil {
				results = append(results, &MigrationResult{Path: path, Error: err})
				continue
			}

			if !versioned {
				kind, _ := detectKind(data)
				results = append(results, &MigrationResult{Path: path, Kind: kind})
			}
		}
	}

	return results, nil
}

// FormatMigrationSummary creates a human-readable summary of migration results.
func FormatMigrationSummary(results []*MigrationResult, dryRun bool) string {
	var sb strings.Builder

	var migrated, skipped, errors int
	for _, r := range results {
		if r.Error != nil {
			errors++
		} else if r.Migrated {
			migrated++
		} else {
			skipped++
		}
	}

	action := "Migrated"
	if dryRun {
		action = "Would migrate"
	}

	sb.WriteString(fmt.Sprintf("\n%s: %d files\n", action, migrated))
	sb.WriteString(fmt.Sprintf("Already versioned: %d files\n", skipped))
	if errors > 0 {
		sb.WriteString(fmt.Sprintf("Errors: %d files\n", errors))
	}

	if migrated > 0 {
		sb.WriteString("\nFiles requiring migration:\n")
		for _, r := range results {
			if r.Migrated {
				sb.WriteString(fmt.Sprintf("  - %s (detected: %s)\n", r.Path, r.Kind))
			}
		}
	}

	if errors > 0 {
		sb.WriteString("\nFiles with errors:\n")
		for _, r := range results {
			if r.Error != nil {
				sb.WriteString(fmt.Sprintf("  - %s: %v\n", r.Path, r.Error))
			}
		}
	}

	return sb.String()
}
