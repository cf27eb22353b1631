// Package ui provides terminal styling for CLI output.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// StylesFor returns the styles appropriate for the given output: colored for
// interactive terminals, plain otherwise.
func StylesFor(w io.Writer) Styles {
	if DetectNoColor() || !IsTTY(w) {
		return NoColorStyles()
	}
	return DefaultStyles()
}
