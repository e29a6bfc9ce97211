package layout

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"mdql/config"
	"mdql/model"
	"mdql/preprocess"
)

// tableMeasurer returns width from the table, unknown text measures 0.
type tableMeasurer map[string]float64

func (m tableMeasurer) Width(text string, _ model.Font) float64 {
	return m[text]
}

func newAllocator(t *testing.T, tc *config.TableConfig, m Measurer) *Allocator {
	return &Allocator{Table: tc, Measurer: m, Log: zaptest.NewLogger(t)}
}

func sum(ws []float64) float64 {
	var s float64
	for _, w := range ws {
		s += w
	}
	return s
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestAllocate(t *testing.T) {
	layout := config.DefaultLayout()
	normal, narrow := &layout.Normal.Table, &layout.Narrow.Table

	tests := []struct {
		name      string
		tc        *config.TableConfig
		available float64
		table     model.ExtractedTable
		m         tableMeasurer
		want      []float64
	}{
		{
			name:      "small columns get minimum",
			tc:        normal,
			available: 800,
			table:     model.ExtractedTable{Header: []string{"a", "b"}},
			m:         tableMeasurer{"a": 5, "b": 5},
			want:      []float64{50, 50},
		},
		{
			name:      "content fitted",
			tc:        normal,
			available: 800,
			table:     model.ExtractedTable{Header: []string{"a", "b"}, Rows: [][]string{{"long", ""}}},
			m:         tableMeasurer{"a": 5, "b": 5, "long": 100},
			want:      []float64{128, 50},
		},
		{
			name:      "maximum clamp",
			tc:        normal,
			available: 800,
			table:     model.ExtractedTable{Header: []string{"a", "b", "c"}, Rows: [][]string{{"huge"}}},
			m:         tableMeasurer{"huge": 1000},
			want:      []float64{280, 50, 50},
		},
		{
			name:      "wide table cap",
			tc:        normal,
			available: 800,
			table:     model.ExtractedTable{Header: []string{"a", "b", "c", "d", "e"}, Rows: [][]string{{"huge"}}},
			m:         tableMeasurer{"huge": 1000},
			// 1.5 * 640 / 5
			want: []float64{192, 50, 50, 50, 50},
		},
		{
			name:      "pinned minimum is paid by wider columns",
			tc:        narrow,
			available: 200,
			table:     model.ExtractedTable{Header: []string{"A", "B", "C", "D"}},
			m:         tableMeasurer{"A": 110, "B": 110, "C": 30, "D": 30},
			want:      []float64{70, 70, 30, 30},
		},
		{
			name:      "minimums alone exceed width",
			tc:        narrow,
			available: 100,
			table:     model.ExtractedTable{Header: []string{"a", "b", "c", "d", "e"}},
			m:         tableMeasurer{},
			want:      []float64{30, 30, 30, 30, 30},
		},
		{
			name:      "no columns",
			tc:        normal,
			available: 800,
			table:     model.ExtractedTable{},
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newAllocator(t, tt.tc, tt.m).Allocate(&tt.table, tt.available)
			if len(got) != len(tt.want) {
				t.Fatalf("Allocate() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if !near(got[i], tt.want[i]) {
					t.Errorf("Allocate() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestAllocate_SixColumnsScaled(t *testing.T) {
	tc := &config.DefaultLayout().Normal.Table
	m := tableMeasurer{}
	table := model.ExtractedTable{Header: make([]string, 6), Rows: [][]string{make([]string, 6)}}
	for i := range 6 {
		cell := strings.Repeat("x", i+1)
		table.Rows[0][i] = cell
		// 122 + 12 + 16 = 150 per column, 900 total
		m[cell] = 122
	}

	got := newAllocator(t, tc, m).Allocate(&table, 1000)
	if s := sum(got); s > 640+1e-6 {
		t.Errorf("sum = %v, want <= 640", s)
	}
	for i, w := range got {
		if w < tc.MinColumnWidth-1e-6 {
			t.Errorf("column %d = %v below minimum", i, w)
		}
		if !near(w, got[0]) {
			t.Errorf("column %d = %v, want proportional %v", i, w, got[0])
		}
	}
}

func TestAllocate_SumWithinMaxTableWidth(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	layout := config.DefaultLayout()
	for _, tc := range []*config.TableConfig{&layout.Narrow.Table, &layout.Normal.Table} {
		for range 200 {
			cols := 1 + rng.IntN(9)
			m := tableMeasurer{}
			table := model.ExtractedTable{Header: make([]string, cols)}
			for c := range cols {
				table.Header[c] = strings.Repeat("h", c+1)
				m[table.Header[c]] = rng.Float64() * 600
			}
			available := 100 + rng.Float64()*900
			got := newAllocator(t, tc, m).Allocate(&table, available)

			if len(got) != cols {
				t.Fatalf("Allocate() returned %d widths for %d columns", len(got), cols)
			}
			limit := MaxTableWidth(tc, available)
			if float64(cols)*tc.MinColumnWidth > limit {
				// documented exception
				continue
			}
			if s := sum(got); s > limit+1e-6 {
				t.Errorf("sum %v exceeds %v for %d columns", s, limit, cols)
			}
			for _, w := range got {
				if w < tc.MinColumnWidth-1e-6 || w > tc.MaxColumnWidth+1e-6 {
					t.Errorf("width %v outside [%v, %v]", w, tc.MinColumnWidth, tc.MaxColumnWidth)
				}
			}
		}
	}
}

func TestAllocate_NilLogger(t *testing.T) {
	tc := config.DefaultLayout().Normal.Table
	a := &Allocator{Table: &tc, Measurer: EstimateMeasurer{Factor: 0.5}}
	tbl := &model.ExtractedTable{Header: []string{strings.Repeat("wide ", 40), "b"}}
	if widths := a.Allocate(tbl, 300); len(widths) != 2 {
		t.Errorf("Allocate() = %v", widths)
	}
}

func TestMaxTableWidth(t *testing.T) {
	layout := config.DefaultLayout()
	if got := MaxTableWidth(&layout.Normal.Table, 1000); got != 640 {
		t.Errorf("normal MaxTableWidth = %v, want 640", got)
	}
	if got := MaxTableWidth(&layout.Normal.Table, 500); got != 500 {
		t.Errorf("normal MaxTableWidth = %v, want 500", got)
	}
	if got := MaxTableWidth(&layout.Narrow.Table, 1000); got != 1000 {
		t.Errorf("narrow MaxTableWidth = %v, want 1000", got)
	}
}

func TestCellText(t *testing.T) {
	if CellText("") != EmptyCell {
		t.Error("empty cell is not replaced")
	}
	if got := CellText(preprocess.EncodeImage("a.png")); got != "[Image: a.png]" {
		t.Errorf("CellText() = %q", got)
	}
}

func TestFontMeasurer(t *testing.T) {
	m, err := NewFontMeasurer(16)
	if err != nil {
		t.Fatalf("NewFontMeasurer() error = %v", err)
	}
	regular := model.Font{Size: 14}
	short, long := m.Width("abc", regular), m.Width("abcdef", regular)
	if short <= 0 || long <= short {
		t.Errorf("Width() not monotonic: %v, %v", short, long)
	}
	if big := m.Width("abc", model.Font{Size: 28}); big <= short {
		t.Errorf("Width() does not grow with size: %v <= %v", big, short)
	}
	// cached value is the same
	if again := m.Width("abc", regular); again != short {
		t.Errorf("Width() = %v, cached %v", again, short)
	}
	if m.Width("", regular) != 0 {
		t.Error("Width(\"\") != 0")
	}
	mono := model.Font{Size: 14, Monospace: true}
	if m.Width("iiii", mono) != m.Width("MMMM", mono) {
		t.Error("monospace widths differ")
	}
}
