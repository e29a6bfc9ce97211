// Package table lays out extracted tables as grid cell runs.
package table

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"mdql/common"
	"mdql/config"
	"mdql/layout"
	"mdql/model"
)

const ellipsis = "…"

// Renderer turns one extracted table into styled cell runs. Every cell run
// text ends with a newline, grid rows are formed by the host. Nil Log
// discards output.
type Renderer struct {
	Table    *config.TableConfig
	Measurer layout.Measurer
	Log      *zap.Logger
}

// Render returns cell runs in row major order followed by a spacer run, and
// the grid geometry they refer to. Ragged rows are padded with empty cells.
// Table without columns produces nothing.
func (r *Renderer) Render(index int, t *model.ExtractedTable, widths []float64) ([]model.StyledRun, *model.TableGrid) {
	tc := r.Table
	n := t.ColumnCount()
	if n == 0 {
		r.log().Warn("Empty table, nothing to render", zap.Int("table", index))
		return nil, nil
	}

	grid := &model.TableGrid{
		Index:        index,
		Columns:      n,
		Rows:         len(t.Rows) + 1,
		ColumnWidths: make([]float64, n),
		CellPadding:  tc.CellPadding,
		HeaderBorder: tc.HeaderBorder,
	}
	for col := range n {
		if col < len(widths) {
			grid.ColumnWidths[col] = widths[col]
		} else {
			grid.ColumnWidths[col] = tc.MinColumnWidth
		}
	}

	out := make([]model.StyledRun, 0, grid.Rows*n+1)
	for row := range grid.Rows {
		wrap := row > 0 && r.shouldWrap(t, row, grid)
		for col := range n {
			out = append(out, r.cell(t, row, col, grid, wrap))
		}
	}
	out = append(out, model.StyledRun{
		Text:      "\n",
		Font:      model.Font{Size: 1},
		Paragraph: model.Paragraph{SpacingAfter: tc.SpacingAfter},
		Color:     common.ColorLabel,
		Role:      common.RoleTableSpacer,
	})

	r.log().Debug("Table rendered", zap.Int("table", index), zap.Int("columns", n), zap.Int("rows", grid.Rows), zap.Float64("width", grid.Width()))
	return out, grid
}

func (r *Renderer) font(header bool) model.Font {
	f := model.Font{Size: r.Table.FontSize}
	if header {
		f.Weight = common.WeightBold
	}
	return f
}

// textWidth is column width available for text.
func (r *Renderer) textWidth(grid *model.TableGrid, col int) float64 {
	return grid.ColumnWidths[col] - 2*r.Table.CellPadding
}

// shouldWrap decides for the whole body row: it wraps when more than
// WrapThreshold of its cells overflow their columns.
func (r *Renderer) shouldWrap(t *model.ExtractedTable, row int, grid *model.TableGrid) bool {
	if grid.Columns < 2 {
		return false
	}
	font := r.font(false)
	overflow := 0
	for col := range grid.Columns {
		if r.Measurer.Width(layout.CellText(t.Cell(row, col)), font) > r.textWidth(grid, col) {
			overflow++
		}
	}
	wrap := float64(overflow)/float64(grid.Columns) > r.Table.WrapThreshold
	r.log().Debug("Row wrap decision", zap.Int("row", row), zap.Bool("wrap", wrap), zap.Int("overflow", overflow), zap.Int("cells", grid.Columns))
	return wrap
}

func (r *Renderer) cell(t *model.ExtractedTable, row, col int, grid *model.TableGrid, wrap bool) model.StyledRun {
	header := row == 0
	raw := t.Cell(row, col)
	text := layout.CellText(raw)

	s := model.StyledRun{
		Font:  r.font(header),
		Color: common.ColorLabel,
		Role:  common.RoleTableCell,
		Paragraph: model.Paragraph{
			Alignment: alignment(t.Alignment(col)),
			LineBreak: common.LineBreakTruncate,
		},
		Cell: &model.CellLayout{Grid: grid, Table: grid.Index, Row: row, Column: col, Header: header},
	}
	if raw == "" {
		s.Color = common.ColorQuaternary
	} else if wrap && !header && !Unbreakable(text, r.Table.UnbreakableLength) {
		s.Paragraph.LineBreak = common.LineBreakWrap
		text = r.capLines(text, r.textWidth(grid, col), s.Font)
	}
	s.Text = text + "\n"
	return s
}

// capLines pre-truncates text to roughly MaxWrappedLines lines of width.
func (r *Renderer) capLines(text string, width float64, f model.Font) string {
	perLine := 1
	if m := r.Measurer.Width("M", f); m > 0 {
		perLine = max(1, int(width/m))
	}
	limit := perLine * r.Table.MaxWrappedLines
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + ellipsis
}

func alignment(a common.Alignment) common.Alignment {
	if a == common.AlignmentNone {
		return common.AlignmentLeft
	}
	return a
}

// Unbreakable reports whether text looks like a token which cannot be
// wrapped sensibly: URL, path or a long string without spaces.
func Unbreakable(text string, length int) bool {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "://") || strings.HasPrefix(text, "/") || strings.HasPrefix(text, "~") {
		return true
	}
	return utf8.RuneCountInString(text) > length && !strings.Contains(text, " ")
}

func (r *Renderer) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
