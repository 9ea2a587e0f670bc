// Package ui provides terminal styling and output helpers for the cora CLI.
package ui

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

// Width bounds used when wrapping prose such as notes.
const (
	defaultWidth  = 80
	maxProseWidth = 100
)

func isTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return isTTY(os.Stdout)
}

// IsInteractive reports whether prompts can be shown: both stdin and stdout
// must be terminals.
func IsInteractive() bool {
	return isTTY(os.Stdin) && isTTY(os.Stdout)
}

// ShouldUseColor follows the NO_COLOR and CLICOLOR conventions, in that
// order, then falls back to TTY detection.
func ShouldUseColor() bool {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return false
	case os.Getenv("CLICOLOR") == "0":
		return false
	case os.Getenv("CLICOLOR_FORCE") != "":
		return true
	}
	return IsTerminal()
}

// GetWidth returns the wrap width for prose: the terminal width (or
// $COLUMNS when stdout is not a terminal), capped at maxProseWidth.
func GetWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		w, _ = strconv.Atoi(os.Getenv("COLUMNS"))
	}
	if w <= 0 {
		return defaultWidth
	}
	return min(w, maxProseWidth)
}
