//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

// reservedChars are never used in dump or report names, on top of path
// separators.
const reservedChars = "/"

// EnableColorOutput checks if console log may be colorized.
func EnableColorOutput(stream *os.File) bool {
	return !colorDisabled() && term.IsTerminal(int(stream.Fd()))
}
