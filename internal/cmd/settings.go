package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/argonaut/internal/config"
	"github.com/cameronsjo/argonaut/internal/ui"
)

// configCmd groups the settings subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change user settings",
	Long: `Show and change settings stored in ~/.argonaut/config.yaml.

Settings are merged from that file, the project's argonaut.yaml and
ARGONAUT_* environment variables (later sources win). Command-line flags
override all of them.`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, key := range config.Keys {
			fmt.Fprintf(w, "%s\t%s\n", key, settingValue(key))
		}
		return w.Flush()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one effective setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Rejects unknown keys.
		if _, err := config.GetSetting(config.SettingsPath(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), settingValue(args[0]))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting in the user settings file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.SettingsPath()
		if err := config.SetSetting(path, args[0], args[1]); err != nil {
			return err
		}
		ui.Success("%s = %s (%s)", args[0], args[1], path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// settingValue returns the effective value of key after flags were applied.
func settingValue(key string) string {
	switch key {
	case "log_level":
		return settings.LogLevel
	case "log_format":
		return settings.LogFormat
	case "indent":
		return strconv.Itoa(settings.Indent)
	case "filename_template":
		return settings.FilenameTemplate
	case "output_dir":
		return settings.OutputDir
	case "no_color":
		return strconv.FormatBool(settings.NoColor)
	default:
		return ""
	}
}
