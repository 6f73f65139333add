// Package cmd provides the CLI commands for argonaut.
package cmd

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/argonaut/internal/config"
	"github.com/cameronsjo/argonaut/internal/logging"
	"github.com/cameronsjo/argonaut/internal/ui"
	"github.com/cameronsjo/argonaut/pkg/workflow"
)

const version = "0.1.0"

var (
	flagLogLevel  string
	flagLogFormat string
	flagNoColor   bool

	// settings are the merged user, project and environment settings.
	settings = &config.Settings{LogLevel: "info", LogFormat: "text", Indent: 2}

	// project is nil when the working directory is outside a project.
	project *config.Config

	logger = slog.New(slog.DiscardHandler)
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "argonaut",
	Short: "Build Argo Workflow manifests from declarations",
	Long: `argonaut - Argo Workflow manifests from declarations

Declaration files name a workflow, its entrypoint and its members. Members
that carry a template body become the workflow's templates; imported
libraries contribute shared members and values.

MANIFEST COMMANDS
  render [files...]     Render declarations to Workflow manifests
    --values, -f <file> Apply values overlay (decrypted when SOPS-encrypted)
    --secrets, -s <file> Merge SOPS secrets into values
    --output, -o <dir>  Write files instead of printing
  lint [files...]       Validate declarations against the Workflow schema
  list                  Show declarations and libraries in the project
  migrate               Add apiVersion/kind to unversioned files

SETTINGS
  config list           Show effective settings
  config get <key>      Print one setting
  config set <key> <v>  Store a setting in ~/.argonaut/config.yaml`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	rootCmd.SetVersionTemplate("argonaut version {{.Version}}\n")
}

// setup discovers the project, loads settings and configures logging and
// console output. Flags win over settings.
func setup(cmd *cobra.Command, args []string) error {
	project = nil
	root, err := config.FindRoot()
	switch {
	case err == nil:
		if project, err = config.LoadFrom(root); err != nil {
			return err
		}
		settings = project.Settings
	case errors.Is(err, config.ErrRootNotFound):
		if settings, err = config.LoadSettings(config.SettingsPath()); err != nil {
			return err
		}
	default:
		return err
	}

	if cmd.Flags().Changed("log-level") {
		settings.LogLevel = flagLogLevel
	}
	if cmd.Flags().Changed("log-format") {
		settings.LogFormat = flagLogFormat
	}
	if flagNoColor {
		settings.NoColor = true
	}

	ui.Output = cmd.ErrOrStderr()
	ui.Configure(settings.NoColor)

	logger = logging.NewLoggerWithWriter(logging.ParseLevel(settings.LogLevel), settings.LogFormat, cmd.ErrOrStderr())
	workflow.SetDefaultLogger(logger)
	logger.Debug("settings loaded", "project", root, "indent", settings.Indent)
	return nil
}
