// Package preprocess rewrites markdown constructs the inline parser does not
// model into inert alphanumeric markers which survive parsing unchanged and
// are decoded back from parser output.
package preprocess

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Every marker starts with markerPrefix and uses only [A-Za-z0-9].
const (
	markerPrefix = "MDQL"

	CheckedMarker   = markerPrefix + "CHECKED"
	UncheckedMarker = markerPrefix + "UNCHECKED"
)

var markerRe = regexp.MustCompile(markerPrefix + `(?:IMG([0-9a-f]*)Z|(UN)?CHECKED|TBL([0-9a-f]+)N([0-9]+)Z)`)

// TokenKind tells what a decoded segment is.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenImage
	TokenChecked
	TokenUnchecked
	TokenTable
)

// Token is a decoded segment of parser output text.
type Token struct {
	Kind TokenKind
	// plain text or image file name
	Text  string
	Nonce string
	Index int
}

// EncodeImage returns marker for an image, name is hex encoded so nothing in
// it can be picked up by inline parser.
func EncodeImage(name string) string {
	return markerPrefix + "IMG" + hex.EncodeToString([]byte(name)) + "Z"
}

// EncodeTable returns marker standing in for table number index.
func EncodeTable(nonce string, index int) string {
	return markerPrefix + "TBL" + nonce + "N" + strconv.Itoa(index) + "Z"
}

// NewNonce returns random lowercase hex string to make table markers unique
// per render.
func NewNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// HasMarker is a quick check before Decode.
func HasMarker(text string) bool {
	return strings.Contains(text, markerPrefix) && markerRe.MatchString(text)
}

// Decode splits text into plain and marker segments. Text without markers
// yields single TokenText segment (none for empty text).
func Decode(text string) []Token {
	var out []Token
	last := 0
	for _, m := range markerRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			out = append(out, Token{Kind: TokenText, Text: text[last:m[0]]})
		}
		switch {
		case m[2] >= 0:
			name, err := hex.DecodeString(text[m[2]:m[3]])
			if err != nil {
				// odd number of digits, leave as is
				out = append(out, Token{Kind: TokenText, Text: text[m[0]:m[1]]})
				break
			}
			out = append(out, Token{Kind: TokenImage, Text: string(name)})
		case m[6] >= 0:
			idx, err := strconv.Atoi(text[m[8]:m[9]])
			if err != nil {
				out = append(out, Token{Kind: TokenText, Text: text[m[0]:m[1]]})
				break
			}
			out = append(out, Token{Kind: TokenTable, Nonce: text[m[6]:m[7]], Index: idx})
		case m[4] >= 0:
			out = append(out, Token{Kind: TokenUnchecked})
		default:
			out = append(out, Token{Kind: TokenChecked})
		}
		last = m[1]
	}
	if last < len(text) {
		out = append(out, Token{Kind: TokenText, Text: text[last:]})
	}
	return out
}

// Display glyphs for decoded markers.
const (
	CheckedGlyph   = "☑"
	UncheckedGlyph = "☐"
)

// ImageText is what an image placeholder shows.
func ImageText(name string) string {
	return "[Image: " + name + "]"
}

// DisplayText replaces markers with their plain text rendering, table
// markers are dropped.
func DisplayText(text string) string {
	if !HasMarker(text) {
		return text
	}
	var sb strings.Builder
	for _, tok := range Decode(text) {
		switch tok.Kind {
		case TokenText:
			sb.WriteString(tok.Text)
		case TokenImage:
			sb.WriteString(ImageText(tok.Text))
		case TokenChecked:
			sb.WriteString(CheckedGlyph)
		case TokenUnchecked:
			sb.WriteString(UncheckedGlyph)
		}
	}
	return sb.String()
}
