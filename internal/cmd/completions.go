package cmd

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/argonaut/internal/config"
	"github.com/cameronsjo/argonaut/internal/fileutil"
)

// completeDeclarationFiles completes declaration file paths in the project's
// workflows directory, falling back to file completion outside a project.
func completeDeclarationFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}

	files, err := fileutil.ListYAML(cfg.WorkflowsDir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, path := range files {
		rel, err := filepath.Rel(cfg.Root, path)
		if err != nil {
			continue
		}
		if strings.HasPrefix(rel, toComplete) && !slices.Contains(args, rel) {
			names = append(names, rel)
		}
	}

	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeSettingKeys completes setting names for config get/set.
func completeSettingKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Don't complete if we already have a key argument
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, key := range config.Keys {
		if strings.HasPrefix(key, toComplete) {
			names = append(names, key)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats completes the --format flag.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"yaml", "json"}, cobra.ShellCompDirectiveNoFileComp
}

// registerCompletions registers all dynamic completions for commands.
func registerCompletions() {
	renderCmd.ValidArgsFunction = completeDeclarationFiles
	lintCmd.ValidArgsFunction = completeDeclarationFiles

	configGetCmd.ValidArgsFunction = completeSettingKeys
	configSetCmd.ValidArgsFunction = completeSettingKeys

	if err := renderCmd.RegisterFlagCompletionFunc("format", completeFormats); err != nil {
		// Silently ignore - completions are optional
		_ = err
	}
}

// init registers completions after all commands are set up.
func init() {
	cobra.OnInitialize(registerCompletions)
}
