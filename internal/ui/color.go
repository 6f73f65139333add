// Package ui provides colored console output for status messages.
//
// Status goes to Output (stderr by default) so rendered manifests on stdout
// stay machine-readable.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	// Colors
	Red    = color.New(color.FgRed)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Blue   = color.New(color.FgBlue)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Faint  = color.New(color.Faint)
)

// Output receives every status message.
var Output io.Writer = os.Stderr

// Configure turns color off when disabled is set or when Output is not a
// terminal.
func Configure(disabled bool) {
	color.NoColor = disabled || !isTerminal(Output)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Success prints a green success message with checkmark.
func Success(format string, args ...any) {
	Green.Fprintf(Output, "✓ "+format+"\n", args...)
}

// Error prints a red error message with X.
func Error(format string, args ...any) {
	Red.Fprintf(Output, "✗ "+format+"\n", args...)
}

// Warning prints a yellow warning message.
func Warning(format string, args ...any) {
	Yellow.Fprintf(Output, "⚠ "+format+"\n", args...)
}

// Info prints a blue info message.
func Info(format string, args ...any) {
	Blue.Fprintf(Output, format+"\n", args...)
}

// Step prints a numbered step in cyan.
func Step(n int, format string, args ...any) {
	Cyan.Fprintf(Output, "[%d] ", n)
	fmt.Fprintf(Output, format+"\n", args...)
}

// Header prints a bold header.
func Header(format string, args ...any) {
	Bold.Fprintf(Output, format+"\n", args...)
}

// Detail prints an indented, dimmed line under a previous message.
func Detail(format string, args ...any) {
	Faint.Fprintf(Output, "  "+format+"\n", args...)
}
