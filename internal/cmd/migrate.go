package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/argonaut/internal/declaration"
	"github.com/cameronsjo/argonaut/internal/lock"
	"github.com/cameronsjo/argonaut/internal/ui"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Add apiVersion and kind fields to unversioned files",
	Long: `Migrate declaration and library files to the current schema version.

This command scans the workflows and libraries directories and adds
apiVersion/kind fields to unversioned files. By default, it runs in dry-run
mode showing what would be changed without modifying files.

Examples:
  # Show which files need migration (dry-run)
  argonaut migrate

  # Actually migrate files
  argonaut migrate --write

  # Scan specific directories
  argonaut migrate --dir ./legacy --dir ./shared`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var (
	migrateWrite bool
	migrateDirs  []string
)

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVarP(&migrateWrite, "write", "w", false, "Write changes to files (default is dry-run)")
	migrateCmd.Flags().StringArrayVar(&migrateDirs, "dir", nil, "Directory to scan (repeatable; default workflows/ and its libraries)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	var err error
	dirs := migrateDirs
	if len(dirs) == 0 {
		if project == nil {
			return errNoFiles
		}
		dirs = []string{project.WorkflowsDir, project.LibraryDir()}
	}

	if migrateWrite {
		ui.Warning("Migrating files...")
	} else {
		ui.Info("Scanning for unversioned files (dry-run mode)...")
		ui.Detail("Use --write to apply changes")
	}

	var results []*declaration.MigrationResult
	migrate := func() error {
		var err error
		results, err = declaration.MigrateDirectory(dirs, declaration.MigrateOptions{DryRun: !migrateWrite})
		return err
	}
	if migrateWrite {
		err = lock.WithLock(dirs[0], "migrate", migrate)
	} else {
		err = migrate()
	}
	if err != nil {
		return err
	}

	if len(results) == 0 {
		ui.Info("No declaration files found in specified directories.")
		return nil
	}

	var failed int
	for _, r := range results {
		switch {
		case r.Error != nil:
			failed++
			ui.Error("%s - %v", r.Path, r.Error)
		case r.Migrated:
			action := "would migrate"
			if migrateWrite {
				action = "migrated"
			}
			ui.Success("%s: %s (kind: %s)", action, r.Path, r.Kind)
		case r.WasVersioned:
			ui.Detail("skipped: %s (already versioned)", r.Path)
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), declaration.FormatMigrationSummary(results, !migrateWrite))

	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be migrated", failed)
	}
	return nil
}
