// Package ui prints transync's user-facing terminal output: status lines,
// summary tables, progress bars and prompts.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Stderr receives status lines. Tests may replace it.
var Stderr io.Writer = os.Stderr

var (
	info    = color.New(color.FgBlue).SprintFunc()
	success = color.New(color.FgGreen).SprintFunc()
	warning = color.New(color.FgYellow, color.Bold).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()

	// Bold is used for headings.
	Bold = color.New(color.Bold).SprintFunc()
	// Dim is used for secondary information.
	Dim = color.New(color.Faint).SprintFunc()
	// Highlight marks values such as paths and counts.
	Highlight = color.New(color.FgCyan).SprintFunc()
)

// Setup disables colors when noColor is set or NO_COLOR is present in
// the environment. fatih/color already turns them off for non-terminals.
func Setup(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

// ColorEnabled reports whether colored output is on.
func ColorEnabled() bool { return !color.NoColor }

// Info prints an [INFO] line to Stderr.
func Info(format string, args ...any) {
	fmt.Fprintf(Stderr, info("[INFO]")+" "+format+"\n", args...)
}

// Success prints an [OK] line to Stderr.
func Success(format string, args ...any) {
	fmt.Fprintf(Stderr, success("[OK]")+" "+format+"\n", args...)
}

// Warn prints a [WARN] line to Stderr.
func Warn(format string, args ...any) {
	fmt.Fprintf(Stderr, warning("[WARN]")+" "+format+"\n", args...)
}

// Error prints an [ERROR] line to Stderr.
func Error(format string, args ...any) {
	fmt.Fprintf(Stderr, failure("[ERROR]")+" "+format+"\n", args...)
}

// Heading prints a bold title followed by a rule.
func Heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", Bold(title))
	fmt.Fprintln(w, Dim("────────────────────────────────────────────────────────────"))
}
