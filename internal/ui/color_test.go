package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// captureOutput redirects Output into a buffer with color disabled.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	oldNoColor := color.NoColor
	oldOutput := Output
	t.Cleanup(func() {
		color.NoColor = oldNoColor
		Output = oldOutput
	})

	var buf bytes.Buffer
	color.NoColor = true
	Output = &buf

	fn()
	return buf.String()
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
		want string
	}{
		{"success", func() { Success("rendered %d manifests", 3) }, "✓ rendered 3 manifests\n"},
		{"error", func() { Error("failed with code %d: %s", 2, "bad input") }, "✗ failed with code 2: bad input\n"},
		{"warning", func() { Warning("no files") }, "⚠ no files\n"},
		{"info", func() { Info("loading %s", "a.yml") }, "loading a.yml\n"},
		{"step", func() { Step(2, "validate") }, "[2] validate\n"},
		{"header", func() { Header("=== Lint ===") }, "=== Lint ===\n"},
		{"detail", func() { Detail("/spec/entrypoint: missing") }, "  /spec/entrypoint: missing\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, captureOutput(t, tt.fn))
		})
	}
}

func TestConfigure(t *testing.T) {
	oldNoColor := color.NoColor
	oldOutput := Output
	t.Cleanup(func() {
		color.NoColor = oldNoColor
		Output = oldOutput
	})

	t.Run("disabled explicitly", func(t *testing.T) {
		Output = os.Stderr
		Configure(true)
		assert.True(t, color.NoColor)
	})

	t.Run("non-terminal writer", func(t *testing.T) {
		Output = &bytes.Buffer{}
		Configure(false)
		assert.True(t, color.NoColor)
	})

	t.Run("regular file is not a terminal", func(t *testing.T) {
		f, err := os.CreateTemp(t.TempDir(), "out")
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()

		Output = f
		Configure(false)
		assert.True(t, color.NoColor)
	})
}
