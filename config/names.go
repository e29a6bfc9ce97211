package config

import (
	"os"
	"strings"
	"unicode"
)

// untitled replaces names which have nothing left after cleaning.
const untitled = "untitled"

// CleanFileName makes name derived from markdown source usable as a single
// path component: separators, control and reserved characters are dropped,
// leading dots and trailing dots or spaces are trimmed.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || strings.ContainsRune(reservedChars+string(os.PathSeparator)+string(os.PathListSeparator), sym) {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimRight(strings.TrimLeft(out, ". "), ". ")
	if len(out) == 0 {
		return untitled
	}
	return out
}

// colorDisabled honors NO_COLOR convention.
func colorDisabled() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}
