package model

import (
	"mdql/common"
)

type Font struct {
	Size      float64       `json:"size"`
	Weight    common.Weight `json:"weight"`
	Italic    bool          `json:"italic,omitempty"`
	Monospace bool          `json:"monospace,omitempty"`
}

// Paragraph holds paragraph level directives. Host applies directives of the
// first run of every paragraph.
type Paragraph struct {
	FirstLineIndent float64          `json:"first_line_indent,omitempty"`
	HeadIndent      float64          `json:"head_indent,omitempty"`
	TabStops        []float64        `json:"tab_stops,omitempty"`
	SpacingBefore   float64          `json:"spacing_before,omitempty"`
	SpacingAfter    float64          `json:"spacing_after,omitempty"`
	LineSpacing     float64          `json:"line_spacing,omitempty"`
	Alignment       common.Alignment `json:"alignment"`
	LineBreak       common.LineBreak `json:"line_break"`
}

// StyledRun is a unit of output, immutable once produced.
type StyledRun struct {
	Text          string            `json:"text"`
	Font          Font              `json:"font"`
	Paragraph     Paragraph         `json:"paragraph"`
	Color         common.Color      `json:"color"`
	Background    common.Background `json:"background,omitzero"`
	Underline     bool              `json:"underline,omitempty"`
	Strikethrough bool              `json:"strikethrough,omitempty"`
	Link          string            `json:"link,omitempty"`
	Decorations   common.Decoration `json:"decorations,omitzero"`
	Role          common.Role       `json:"role"`
	Anchor        string            `json:"anchor,omitempty"`
	Cell          *CellLayout       `json:"cell,omitempty"`
}

// EndsWithNewline reports whether text of the run terminates a paragraph.
func (r *StyledRun) EndsWithNewline() bool {
	return len(r.Text) > 0 && r.Text[len(r.Text)-1] == '\n'
}
