package markdown

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"mdql/common"
	"mdql/model"
)

// ExtractTables collects every table of the document tree in document order.
// Tables whose position in src cannot be established have nil Source.
func ExtractTables(doc ast.Node, src []byte) []model.ExtractedTable {
	idx := newLineIndex(src)
	var tables []model.ExtractedTable
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		t, ok := n.(*east.Table)
		if !ok {
			return ast.WalkContinue, nil
		}
		tables = append(tables, extractTable(t, src, idx))
		return ast.WalkSkipChildren, nil
	})
	return tables
}

func extractTable(t *east.Table, src []byte, idx *lineIndex) model.ExtractedTable {
	out := model.ExtractedTable{
		Alignments: make([]common.Alignment, 0, len(t.Alignments)),
		Nested:     t.Parent() != nil && t.Parent().Kind() != ast.KindDocument,
	}
	for _, a := range t.Alignments {
		out.Alignments = append(out.Alignments, alignment(a))
	}

	// first text offset seen and the row it belongs to, header row is 0
	firstOffset, firstRow := -1, 0
	row := 0
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, PlainText(c, src))
			if firstOffset < 0 {
				if off := firstTextOffset(c); off >= 0 {
					firstOffset, firstRow = off, row
				}
			}
		}
		if _, ok := r.(*east.TableHeader); ok {
			out.Header = cells
		} else {
			out.Rows = append(out.Rows, cells)
		}
		row++
	}

	if firstOffset >= 0 {
		out.Source = sourceRange(idx, firstOffset, firstRow, len(out.Rows))
	}
	return out
}

// sourceRange relies on every GFM table row occupying exactly one line: the
// header, the delimiter row and then body rows.
func sourceRange(idx *lineIndex, offset, row, bodyRows int) *model.SourceRange {
	line := idx.lineOf(offset)
	if row > 0 {
		// body row k (1-based) sits k+1 lines below the header
		line -= row + 1
	}
	end := line + 1 + bodyRows
	if line < 1 || end > idx.count() || !isDelimiterRow(idx.line(line+1)) {
		return nil
	}
	return &model.SourceRange{
		StartLine:   line,
		StartColumn: 1,
		EndLine:     end,
		EndColumn:   len(idx.line(end)) + 1,
	}
}

func firstTextOffset(n ast.Node) int {
	off := -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok && t.Segment.Len() > 0 {
			off = t.Segment.Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return off
}

// isDelimiterRow checks line looks like "| --- | :-: |" possibly behind
// blockquote markers or indentation.
func isDelimiterRow(line []byte) bool {
	line = bytes.TrimLeft(line, " \t>")
	if !bytes.ContainsRune(line, '-') {
		return false
	}
	for _, b := range line {
		switch b {
		case '|', ':', '-', ' ', '\t', '>':
		default:
			return false
		}
	}
	return true
}

func alignment(a east.Alignment) common.Alignment {
	switch a {
	case east.AlignLeft:
		return common.AlignmentLeft
	case east.AlignCenter:
		return common.AlignmentCenter
	case east.AlignRight:
		return common.AlignmentRight
	default:
		return common.AlignmentNone
	}
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex struct {
	src    []byte
	starts []int
}

func newLineIndex(src []byte) *lineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{src: src, starts: starts}
}

func (li *lineIndex) count() int {
	return len(li.starts)
}

func (li *lineIndex) lineOf(offset int) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset })
}

// line returns content of 1-based line without line terminator.
func (li *lineIndex) line(n int) []byte {
	if n < 1 || n > len(li.starts) {
		return nil
	}
	start, end := li.starts[n-1], len(li.src)
	if n < len(li.starts) {
		end = li.starts[n] - 1
	}
	return bytes.TrimSuffix(li.src[start:end], []byte("\r"))
}
