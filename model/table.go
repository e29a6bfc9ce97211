package model

import (
	"mdql/common"
)

// SourceRange locates a table in the text it was parsed from. Lines are
// 1-based and inclusive, columns are 1-based byte offsets.
type SourceRange struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// ExtractedTable is a flat GFM table. Rows may have different lengths,
// missing trailing cells are empty.
type ExtractedTable struct {
	Alignments []common.Alignment
	Header     []string
	Rows       [][]string
	// nil when position in source cannot be trusted
	Source *SourceRange
	// table sits inside a blockquote or list item, its source lines carry
	// container markers
	Nested bool
}

// ColumnCount is the maximum number of cells across all rows.
func (t *ExtractedTable) ColumnCount() int {
	n := len(t.Header)
	for _, r := range t.Rows {
		n = max(n, len(r))
	}
	return n
}

// Alignment returns alignment of a column, none when not specified.
func (t *ExtractedTable) Alignment(col int) common.Alignment {
	if col >= 0 && col < len(t.Alignments) {
		return t.Alignments[col]
	}
	return common.AlignmentNone
}

// Cell returns cell text, row 0 is header and body rows start at 1.
func (t *ExtractedTable) Cell(row, col int) string {
	var cells []string
	switch {
	case row == 0:
		cells = t.Header
	case row > 0 && row <= len(t.Rows):
		cells = t.Rows[row-1]
	}
	if col >= 0 && col < len(cells) {
		return cells[col]
	}
	return ""
}

// TableGrid describes table geometry for host grid primitive.
type TableGrid struct {
	Index        int       `json:"index"`
	Columns      int       `json:"columns"`
	Rows         int       `json:"rows"`
	ColumnWidths []float64 `json:"column_widths"`
	CellPadding  float64   `json:"cell_padding"`
	HeaderBorder float64   `json:"header_border"`
}

// Width is the sum of column widths.
func (g *TableGrid) Width() float64 {
	var w float64
	for _, c := range g.ColumnWidths {
		w += c
	}
	return w
}

// CellLayout places a styled run into a table grid. Row 0 is the header.
type CellLayout struct {
	Grid   *TableGrid `json:"-"`
	Table  int        `json:"table"`
	Row    int        `json:"row"`
	Column int        `json:"column"`
	Header bool       `json:"header,omitempty"`
}
