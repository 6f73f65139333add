package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/argonaut/internal/ui"
)

const helloDeclaration = `apiVersion: argonaut.io/v1
kind: Declaration
name: HelloWorld
entrypoint: main
values:
  image: alpine:3.19
members:
  - name: main
    template:
      container:
        image: ${image}
        command: [echo, hello]
`

const helloManifest = `apiVersion: argoproj.io/v1alpha1
kind: Workflow
metadata:
  name: hello-world
  generateName: hello-world-
spec:
  entrypoint: main
  templates:
    - name: main
      container:
        image: alpine:3.19
        command:
          - echo
          - hello
`

// resetFlags puts every flag of cmd and its subcommands back to its default,
// since cobra keeps flag values between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCmd runs the root command with args and returns what it wrote to
// stdout and stderr.
func executeCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	oldOutput := ui.Output
	t.Cleanup(func() { ui.Output = oldOutput })

	resetFlags(rootCmd)

	// A nil slice would make cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// setupProject creates a project with a workflows/ directory holding files,
// isolates HOME and changes into the project root.
func setupProject(t *testing.T, files map[string]string) string {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, os.MkdirAll(filepath.Join(root, "workflows"), 0755))
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	t.Chdir(root)
	return root
}
