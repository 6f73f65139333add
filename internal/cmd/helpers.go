package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cameronsjo/argonaut/internal/declaration"
	"github.com/cameronsjo/argonaut/internal/fileutil"
	"github.com/cameronsjo/argonaut/pkg/workflow"
)

// errNoFiles is returned when no files were given and no project was found.
var errNoFiles = errors.New("no files given and no project found (run inside a directory with workflows/ or argonaut.yaml)")

// resolveFiles expands arguments into declaration files. Directories expand
// to the YAML files they contain and other arguments are treated as globs.
// Without arguments, every declaration in the project's workflows directory
// is used.
func resolveFiles(args []string) ([]string, error) {
	if len(args) == 0 {
		if project == nil {
			return nil, errNoFiles
		}
		files, err := fileutil.ListYAML(project.WorkflowsDir)
		if err != nil {
			return nil, fmt.Errorf("list workflows: %w", err)
		}
		return files, nil
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			dirFiles, err := fileutil.ListYAML(arg)
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", arg, err)
			}
			files = append(files, dirFiles...)
		case err == nil:
			files = append(files, arg)
		default:
			matches, globErr := filepath.Glob(arg)
			if globErr != nil {
				return nil, fmt.Errorf("invalid pattern %s: %w", arg, globErr)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no such file: %s", arg)
			}
			files = append(files, matches...)
		}
	}
	return files, nil
}

// libraryDirFor returns where imports of the declaration at path resolve.
// An explicit directory wins, then the project's library directory, then a
// libraries/ directory next to the file.
func libraryDirFor(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if project != nil {
		return project.LibraryDir()
	}
	return filepath.Join(filepath.Dir(path), "libraries")
}

// buildManifest loads one declaration file and assembles its manifest.
func buildManifest(path, libraryDir string, values map[string]any) (*workflow.Manifest, *declaration.File, error) {
	file, err := declaration.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	decl, err := declaration.Build(file, declaration.Options{
		LibraryDir: libraryDirFor(path, libraryDir),
		Values:     values,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	manifest, err := workflow.Assemble(decl, workflow.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return manifest, file, nil
}
