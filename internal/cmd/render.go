package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/argonaut/internal/declaration"
	"github.com/cameronsjo/argonaut/internal/fileutil"
	"github.com/cameronsjo/argonaut/internal/lock"
	"github.com/cameronsjo/argonaut/internal/output"
	"github.com/cameronsjo/argonaut/internal/secrets"
	"github.com/cameronsjo/argonaut/internal/source"
	"github.com/cameronsjo/argonaut/internal/ui"
	"github.com/cameronsjo/argonaut/pkg/workflow"
)

var (
	renderValues     []string
	renderSecrets    []string
	renderOutput     string
	renderFormat     string
	renderFlow       bool
	renderIndent     int
	renderSortKeys   bool
	renderKeepEmpty  bool
	renderStamp      bool
	renderInstance   bool
	renderLibraryDir string
	renderFilename   string
)

// renderCmd represents the render command.
var renderCmd = &cobra.Command{
	Use:   "render [files...]",
	Short: "Render declarations to Workflow manifests",
	Long: `Render declaration files into Argo Workflow manifests.

Each declaration is loaded, its imports and values resolved, its templates
collected and the assembled Workflow printed as YAML (or JSON). Empty fields
are omitted unless --keep-empty is set.

If no files are specified, every declaration in the project's workflows/
directory is rendered.

Examples:
  # Render one declaration to stdout
  argonaut render workflows/etl.yml

  # Apply a values overlay and SOPS secrets
  argonaut render -f values/prod.yaml -s secrets.sops.yaml workflows/etl.yml

  # Single-line flow style
  argonaut render --flow workflows/etl.yml

  # Write every declaration to rendered/, stamped with git provenance
  argonaut render --stamp -o rendered`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringArrayVarP(&renderValues, "values", "f", nil, "Values overlay file (repeatable, later files win)")
	renderCmd.Flags().StringArrayVarP(&renderSecrets, "secrets", "s", nil, "SOPS-encrypted secrets file merged over values (repeatable)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output directory (prints to stdout if not set)")
	renderCmd.Flags().StringVar(&renderFormat, "format", "yaml", "Output format (yaml, json)")
	renderCmd.Flags().BoolVar(&renderFlow, "flow", false, "Render every collection inline")
	renderCmd.Flags().IntVar(&renderIndent, "indent", 0, "Indentation width (default from settings)")
	renderCmd.Flags().BoolVar(&renderSortKeys, "sort-keys", false, "Sort mapping keys alphabetically")
	renderCmd.Flags().BoolVar(&renderKeepEmpty, "keep-empty", false, "Keep empty fields")
	renderCmd.Flags().BoolVar(&renderStamp, "stamp", false, "Annotate with the git commit the declaration came from")
	renderCmd.Flags().BoolVar(&renderInstance, "instance", false, "Give each manifest a concrete name with a random suffix")
	renderCmd.Flags().StringVar(&renderLibraryDir, "library-dir", "", "Directory holding imported libraries")
	renderCmd.Flags().StringVar(&renderFilename, "filename", "", "Output filename template (sprig functions available)")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if renderFormat != "yaml" && renderFormat != "json" {
		return fmt.Errorf("unsupported format %q (want yaml or json)", renderFormat)
	}

	files, err := resolveFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		ui.Warning("No declaration files found")
		return nil
	}

	values, err := loadValues(ctx, renderValues, renderSecrets)
	if err != nil {
		return err
	}

	dir := renderOutputDir()
	if dir == "" {
		return renderAll(cmd, files, values, nil)
	}

	tmpl := renderFilename
	if tmpl == "" {
		tmpl = settings.FilenameTemplate
	}
	writer, err := output.NewWriter(dir, tmpl)
	if err != nil {
		return err
	}
	return lock.WithLock(dir, "render", func() error {
		return renderAll(cmd, files, values, writer)
	})
}

// renderAll renders every file, printing to stdout when writer is nil. It
// keeps going after a failure and reports the count at the end.
func renderAll(cmd *cobra.Command, files []string, values map[string]any, writer *output.Writer) error {
	failed, printed := 0, 0
	for _, path := range files {
		content, data, err := renderFile(path, values)
		if err != nil {
			ui.Error("%v", err)
			failed++
			continue
		}

		if writer == nil {
			if printed > 0 && renderFormat == "yaml" {
				fmt.Fprint(cmd.OutOrStdout(), "---\n")
			}
			fmt.Fprint(cmd.OutOrStdout(), content)
			printed++
			continue
		}

		written, err := writer.Write(data, []byte(content))
		if err != nil {
			ui.Error("%s: %v", path, err)
			failed++
			continue
		}
		ui.Success("%s → %s", path, written)
	}

	if failed > 0 {
		return fmt.Errorf("%d declaration(s) failed to render", failed)
	}
	return nil
}

// renderOutputDir returns the output directory from the flag, or from
// settings when rendering a whole project.
func renderOutputDir() string {
	if renderOutput != "" {
		return renderOutput
	}
	if project != nil && settings.OutputDir != "" {
		return project.OutputDir()
	}
	return ""
}

// loadValues layers values overlays then decrypted secrets.
func loadValues(ctx context.Context, valueFiles, secretFiles []string) (map[string]any, error) {
	decryptor := secrets.NewDecryptor(logger)

	layers := make([]map[string]any, 0, len(valueFiles)+1)
	for _, path := range valueFiles {
		values, err := decryptor.LoadValues(ctx, path)
		if err != nil {
			return nil, err
		}
		layers = append(layers, values)
	}

	if len(secretFiles) > 0 {
		decrypted, err := decryptor.DecryptFiles(ctx, secretFiles)
		if err != nil {
			return nil, err
		}
		layers = append(layers, decrypted)
	}

	return declaration.MergeAll(layers...), nil
}

// renderFile builds one declaration and encodes it in the requested format.
func renderFile(path string, values map[string]any) (string, output.FileData, error) {
	manifest, file, err := buildManifest(path, renderLibraryDir, values)
	if err != nil {
		return "", output.FileData{}, err
	}

	if renderStamp {
		info, err := source.Describe(filepath.Dir(path))
		switch {
		case errors.Is(err, source.ErrNotRepository):
			ui.Warning("%s is not in a git repository, skipping provenance", path)
		case err != nil:
			return "", output.FileData{}, fmt.Errorf("%s: %w", path, err)
		default:
			if manifest, err = manifest.Annotate(info.Annotations(path)); err != nil {
				return "", output.FileData{}, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	if renderInstance {
		if manifest, err = manifest.Instance(); err != nil {
			return "", output.FileData{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	content, err := encodeManifest(manifest)
	if err != nil {
		return "", output.FileData{}, fmt.Errorf("%s: %w", path, err)
	}

	data := output.FileData{
		Name:         manifest.Name(),
		GenerateName: manifest.GenerateName(),
		Declaration:  file.Name,
		Source:       fileutil.Stem(path),
		Ext:          renderFormat,
	}
	return content, data, nil
}

func encodeManifest(manifest *workflow.Manifest) (string, error) {
	mapping, err := manifest.ToMapping(!renderKeepEmpty)
	if err != nil {
		return "", err
	}

	indent := settings.Indent
	if renderIndent > 0 {
		indent = renderIndent
	}

	if renderFormat == "json" {
		var v any = mapping
		if renderSortKeys {
			v = workflow.SortKeys(v)
		}
		data, err := workflow.EncodeJSON(v, strings.Repeat(" ", indent))
		if err != nil {
			return "", err
		}
		if !strings.HasSuffix(string(data), "\n") {
			data = append(data, '\n')
		}
		return string(data), nil
	}

	return workflow.EncodeYAML(mapping,
		workflow.WithFlowStyle(renderFlow),
		workflow.WithIndent(indent),
		workflow.WithSortKeys(renderSortKeys),
	)
}
