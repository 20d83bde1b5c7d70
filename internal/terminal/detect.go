// Package terminal detects whether the harness talks to a person.
package terminal

import (
	"io"
	"os"

	"golang.org/x/term"
)

var isTerminal = term.IsTerminal

// IsInteractive reports whether stdin and stdout are both terminals, which
// is required before prompting.
func IsInteractive() bool {
	return isTerminal(int(os.Stdin.Fd())) && isTerminal(int(os.Stdout.Fd()))
}

// IsTerminalWriter reports whether w writes to a terminal. Writers without a
// file descriptor never do.
func IsTerminalWriter(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isTerminal(int(f.Fd()))
}
