package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/argonaut/internal/ui"
	"github.com/cameronsjo/argonaut/pkg/workflow"
)

var (
	lintValues     []string
	lintSecrets    []string
	lintRendered   bool
	lintLibraryDir string
)

// lintCmd validates declarations before they are submitted.
var lintCmd = &cobra.Command{
	Use:   "lint [files...]",
	Short: "Validate declarations against the Workflow schema",
	Long: `Validate declaration files without writing anything.

Each declaration is rendered in memory and checked against the Workflow
resource schema. Template references (entrypoint, onExit, steps and DAG
tasks) must name templates the manifest defines.

With --rendered, the files are already-rendered manifests and are validated
as they are.

Examples:
  argonaut lint                          # Every declaration in the project
  argonaut lint workflows/etl.yml
  argonaut lint --rendered rendered/     # Check previously rendered output`,
	RunE: runLint,
}

func init() {
	lintCmd.Flags().StringArrayVarP(&lintValues, "values", "f", nil, "Values overlay file (repeatable)")
	lintCmd.Flags().StringArrayVarP(&lintSecrets, "secrets", "s", nil, "SOPS-encrypted secrets file (repeatable)")
	lintCmd.Flags().BoolVar(&lintRendered, "rendered", false, "Files are rendered manifests, not declarations")
	lintCmd.Flags().StringVar(&lintLibraryDir, "library-dir", "", "Directory holding imported libraries")

	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	files, err := resolveFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		ui.Warning("No files to lint")
		return nil
	}

	var values map[string]any
	if !lintRendered {
		if values, err = loadValues(ctx, lintValues, lintSecrets); err != nil {
			return err
		}
	}

	ui.Header("=== Lint ===")

	failed := 0
	for _, path := range files {
		result, err := lintFile(path, values)
		if err != nil {
			ui.Error("%s: %v", path, err)
			failed++
			continue
		}
		if !result.Valid {
			ui.Error("%s", path)
			for _, issue := range result.Issues {
				ui.Detail("%s", issue)
			}
			failed++
			continue
		}
		ui.Success("%s", path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed lint", failed, len(files))
	}
	ui.Success("All %d file(s) valid", len(files))
	return nil
}

func lintFile(path string, values map[string]any) (*workflow.ValidationResult, error) {
	if lintRendered {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return workflow.ValidateYAML(data)
	}

	manifest, _, err := buildManifest(path, lintLibraryDir, values)
	if err != nil {
		return nil, err
	}
	return manifest.Validate()
}
