package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/argonaut/internal/declaration"
	"github.com/cameronsjo/argonaut/internal/fileutil"
	"github.com/cameronsjo/argonaut/internal/ui"
	"github.com/cameronsjo/argonaut/pkg/naming"
)

// listCmd lists declarations and libraries in the project.
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show declarations and libraries in the project",
	Long: `List every declaration in workflows/ with the resource name it renders
to, followed by the libraries available for import.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if project == nil {
		return errNoFiles
	}

	files, err := fileutil.ListYAML(project.WorkflowsDir)
	if err != nil {
		return fmt.Errorf("list workflows: %w", err)
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tDECLARATION\tRESOURCE\tENTRYPOINT\tMEMBERS")
	for _, path := range files {
		file, err := declaration.ReadFile(path)
		if err != nil {
			ui.Warning("%v", err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			fileutil.Stem(path), file.Name, naming.Derive(file.Name), file.Entrypoint, len(file.Members))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	unversioned, err := declaration.ScanUnversioned([]string{project.WorkflowsDir, project.LibraryDir()})
	if err != nil {
		return err
	}
	if len(unversioned) > 0 {
		ui.Warning("%d unversioned file(s); run 'argonaut migrate --write'", len(unversioned))
	}

	// A missing library directory is normal for small projects.
	if _, err := os.Stat(project.LibraryDir()); os.IsNotExist(err) {
		return nil
	}
	libraries, err := declaration.ListLibraries(project.LibraryDir())
	if err != nil {
		return err
	}
	if len(libraries) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "LIBRARIES")
		for _, name := range libraries {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}
