// Package style centralizes flowtoy's CLI output formatting:
// color-coded step states and notices, in the teacher's
// internal/style/output.go idiom but built on fatih/color instead of the
// charmbracelet/lipgloss stack the teacher used for its richer TUI (see
// DESIGN.md for why lipgloss/bubbletea were dropped).
package style

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	success = color.New(color.FgGreen, color.Bold)
	failure = color.New(color.FgRed, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	info    = color.New(color.FgCyan)
	muted   = color.New(color.FgHiBlack)
)

// Success writes a green "✓ msg" line to w.
func Success(w io.Writer, format string, args ...interface{}) {
	success.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Failure writes a red "✗ msg" line to w.
func Failure(w io.Writer, format string, args ...interface{}) {
	failure.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warn writes a yellow "! msg" line to w.
func Warn(w io.Writer, format string, args ...interface{}) {
	warn.Fprintf(w, "! %s\n", fmt.Sprintf(format, args...))
}

// Info writes a cyan "msg" line to w.
func Info(w io.Writer, format string, args ...interface{}) {
	info.Fprintf(w, "%s\n", fmt.Sprintf(format, args...))
}

// Muted writes a dim "msg" line to w, used for verbose/debug detail.
func Muted(w io.Writer, format string, args ...interface{}) {
	muted.Fprintf(w, "%s\n", fmt.Sprintf(format, args...))
}

// StateGlyph returns the colored glyph for a step state name
// ("succeeded", "failed", "skipped", "running"; any other name gets a dim
// dot).
func StateGlyph(state string) string {
	switch state {
	case "succeeded":
		return success.Sprint("✓")
	case "failed":
		return failure.Sprint("✗")
	case "skipped":
		return warn.Sprint("–")
	case "running":
		return info.Sprint("●")
	default:
		return muted.Sprint("·")
	}
}
