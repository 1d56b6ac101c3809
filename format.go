package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// statusf prints a status message to stderr unless quiet mode is set or
// stderr is redirected (so scripted runs capture only real diagnostics).
func statusf(quiet bool, format string, args ...any) {
	if quiet || !stderrIsTerminal() {
		return
	}

	fmt.Fprintf(os.Stderr, format, args...)
}

// stderrIsTerminal reports whether stderr is attached to a terminal.
func stderrIsTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}
