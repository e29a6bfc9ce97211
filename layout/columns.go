package layout

import (
	"go.uber.org/zap"

	"mdql/common"
	"mdql/config"
	"mdql/model"
	"mdql/preprocess"
)

// EmptyCell is shown (and measured) in place of empty table cells.
const EmptyCell = "·"

// MaxTableWidth caps table width for the tier, zero cap means whole
// available width.
func MaxTableWidth(tc *config.TableConfig, available float64) float64 {
	if tc.MaxTableWidth > 0 {
		return min(available, tc.MaxTableWidth)
	}
	return available
}

// CellText returns cell text as it is measured and displayed.
func CellText(raw string) string {
	if raw == "" {
		return EmptyCell
	}
	return preprocess.DisplayText(raw)
}

// Allocator computes column widths for one render. Nil Log discards output.
type Allocator struct {
	Table    *config.TableConfig
	Measurer Measurer
	Log      *zap.Logger
}

// Allocate returns one width per column. Sum of widths does not exceed max
// table width unless minimum widths alone do.
func (a *Allocator) Allocate(t *model.ExtractedTable, available float64) []float64 {
	tc := a.Table
	n := t.ColumnCount()
	if n == 0 {
		return nil
	}

	maxTable := MaxTableWidth(tc, available)
	minCol, maxCol := tc.MinColumnWidth, tc.MaxColumnWidth
	if n >= tc.WideTableColumns {
		maxCol = min(maxCol, tc.WideColumnFactor*maxTable/float64(n))
	}

	header := model.Font{Size: tc.FontSize, Weight: common.WeightBold}
	body := model.Font{Size: tc.FontSize}

	widths := make([]float64, n)
	var total float64
	for col := range n {
		w := a.Measurer.Width(CellText(t.Cell(0, col)), header)
		for row := 1; row <= len(t.Rows); row++ {
			w = max(w, a.Measurer.Width(CellText(t.Cell(row, col)), body))
		}
		w += tc.MeasurePadding + tc.BreathingRoom
		// minimum wins over a cap squeezed below it
		widths[col] = max(min(w, maxCol), minCol)
		total += widths[col]
	}

	if total <= maxTable {
		a.log().Debug("Content fitted table", zap.Float64("width", total), zap.Float64("max", maxTable))
		return widths
	}

	a.log().Debug("Scaling table", zap.Float64("from", total), zap.Float64("to", maxTable))
	scale := maxTable / total
	var used, excess float64
	for i := range widths {
		widths[i] = max(widths[i]*scale, minCol)
		used += widths[i]
		excess += widths[i] - minCol
	}

	// Single pass: overflow created by pinned columns is taken back from
	// columns above minimum in proportion to how far above they are.
	if overflow := used - maxTable; overflow > 0 && excess > 0 {
		take := min(overflow, excess)
		for i := range widths {
			widths[i] -= take * (widths[i] - minCol) / excess
		}
		if overflow > excess {
			a.log().Debug("Minimum column widths exceed table width", zap.Int("columns", n), zap.Float64("overflow", overflow-excess))
		}
	}
	return widths
}

func (a *Allocator) log() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}
