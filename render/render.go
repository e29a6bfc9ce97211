// Package render runs the whole markdown to styled runs pipeline for one
// document. Render never fails, degraded paths are reported in the result.
package render

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark/ast"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"mdql/boundary"
	"mdql/common"
	"mdql/config"
	"mdql/frontmatter"
	"mdql/layout"
	"mdql/markdown"
	"mdql/model"
	"mdql/preprocess"
	"mdql/style"
	"mdql/table"
)

const widthCacheSize = 4096

// Options select tier and geometry of a single render. Zero Layout,
// Measurer and Log are replaced with defaults.
type Options struct {
	Tier           common.WidthTier
	AvailableWidth float64
	Layout         *config.LayoutConfig
	Measurer       layout.Measurer
	Log            *zap.Logger
}

var defaultMeasurer = sync.OnceValue(func() layout.Measurer {
	m, err := layout.NewFontMeasurer(widthCacheSize)
	if err != nil {
		return layout.EstimateMeasurer{Factor: 0.55}
	}
	return m
})

// pipeline holds state of one render call.
type pipeline struct {
	tier     *config.TierConfig
	tierID   common.WidthTier
	width    float64
	measurer layout.Measurer
	parse    func([]byte) (ast.Node, error)
	resolver *style.Resolver
	alloc    *layout.Allocator
	tables   *table.Renderer
	log      *zap.Logger

	grids    []*model.TableGrid
	degraded []string
}

func newPipeline(opts Options) *pipeline {
	if opts.Layout == nil {
		opts.Layout = config.DefaultLayout()
	}
	if opts.Measurer == nil {
		opts.Measurer = defaultMeasurer()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	tc := opts.Layout.Tier(opts.Tier)
	if opts.Tier == common.WidthTierNarrow && tc.FrontMatter.TwoColumnMinFields != 0 {
		// narrow front matter is single column whatever layout says
		narrow := *tc
		narrow.FrontMatter.TwoColumnMinFields = 0
		tc = &narrow
	}
	return &pipeline{
		tier:     tc,
		tierID:   opts.Tier,
		width:    opts.AvailableWidth,
		measurer: opts.Measurer,
		parse:    markdown.NewParser().Parse,
		resolver: style.New(tc, opts.Log.Named("style")),
		alloc:    &layout.Allocator{Table: &tc.Table, Measurer: opts.Measurer, Log: opts.Log.Named("columns")},
		tables:   &table.Renderer{Table: &tc.Table, Measurer: opts.Measurer, Log: opts.Log.Named("table")},
		log:      opts.Log,
	}
}

// Render converts markdown text into a styled document.
func Render(text string, opts Options) *model.Document {
	return newPipeline(opts).render(text)
}

func (p *pipeline) render(text string) *model.Document {
	start := time.Now()
	p.log.Info("Render started", zap.Int("bytes", len(text)), zap.Stringer("tier", p.tierID), zap.Float64("width", p.width))

	text = norm.NFC.String(strings.ReplaceAll(text, "\r\n", "\n"))
	fm, body := frontmatter.Extract(text)
	body, stats := preprocess.Apply(body)
	p.log.Debug("Preprocessed", zap.Int("fields", fm.Len()), zap.Int("images", stats.Images), zap.Int("tasks", stats.Tasks), zap.Int("breaks", stats.SoftBreaks))

	doc := &model.Document{Tier: p.tierID, AvailableWidth: p.width, FrontMatter: fm}
	head, lay := style.FrontMatterBlock(fm, p.tier, p.width, p.measurer)
	if lay.Shown > 0 {
		p.log.Debug("Front matter", zap.Int("shown", lay.Shown), zap.Int("hidden", lay.Hidden), zap.Int("columns", lay.Columns))
	}
	doc.Runs = append(head, p.body(body)...)
	doc.Tables = p.grids
	doc.Degraded = p.degraded
	doc.BuildLinks()

	p.log.Info("Render finished", zap.Int("runs", len(doc.Runs)), zap.Int("tables", len(doc.Tables)), zap.Int("degraded", len(doc.Degraded)), zap.Duration("elapsed", time.Since(start)))
	return doc
}

func (p *pipeline) degrade(reason string, fields ...zap.Field) {
	p.degraded = append(p.degraded, reason)
	p.log.Warn("Rendering degraded: "+reason, fields...)
}

// body picks rendering path: direct when there are no tables, hybrid when
// every table position is trusted, placeholder substitution otherwise.
func (p *pipeline) body(src string) []model.StyledRun {
	b := []byte(src)
	doc, err := p.parse(b)
	if err != nil {
		p.degrade("unable to parse document, showing raw text", zap.Error(err))
		return p.resolver.Raw(preprocess.DisplayText(src))
	}

	tables := markdown.ExtractTables(doc, b)
	switch {
	case len(tables) == 0:
		p.log.Debug("No tables, direct rendering")
		return p.styled(doc, b)
	case trusted(tables):
		p.log.Debug("Hybrid rendering", zap.Int("tables", len(tables)))
		return p.hybrid(src, tables)
	default:
		p.log.Info("Table positions cannot be spliced, using placeholders", zap.Int("tables", len(tables)))
		return p.placeholders(src, tables)
	}
}

// trusted reports whether tables can be cut out of the source by lines.
func trusted(tables []model.ExtractedTable) bool {
	for i := range tables {
		if tables[i].Source == nil || tables[i].Nested {
			return false
		}
	}
	return true
}

func (p *pipeline) styled(doc ast.Node, src []byte) []model.StyledRun {
	runs := markdown.Runs(doc, src)
	runs = boundary.Reconstruct(runs, p.log.Named("boundary"))
	return p.resolver.Resolve(runs)
}

// segment renders a table free piece of the document.
func (p *pipeline) segment(src string) []model.StyledRun {
	src = strings.Trim(src, "\n")
	if strings.TrimSpace(src) == "" {
		return nil
	}
	b := []byte(src)
	doc, err := p.parse(b)
	if err != nil {
		p.degrade("unable to parse document segment, showing raw text", zap.Error(err))
		return p.resolver.Raw(preprocess.DisplayText(src))
	}
	return p.styled(doc, b)
}

// table lays out table number index.
func (p *pipeline) table(index int, t *model.ExtractedTable) []model.StyledRun {
	widths := p.alloc.Allocate(t, p.width)
	runs, grid := p.tables.Render(index, t, widths)
	if grid == nil {
		p.degrade(fmt.Sprintf("table %d has no columns", index))
		return nil
	}
	p.grids = append(p.grids, grid)
	return runs
}

// hybrid renders text between tables as separate segments and splices table
// layouts in their place.
func (p *pipeline) hybrid(src string, tables []model.ExtractedTable) []model.StyledRun {
	tables = slices.Clone(tables)
	slices.SortStableFunc(tables, func(a, b model.ExtractedTable) int {
		if a.Source.StartLine != b.Source.StartLine {
			return a.Source.StartLine - b.Source.StartLine
		}
		return a.Source.StartColumn - b.Source.StartColumn
	})

	lines := strings.Split(src, "\n")
	var out []model.StyledRun
	next := 1
	for i := range tables {
		s := tables[i].Source
		if s.StartLine < next {
			p.degrade(fmt.Sprintf("table %d overlaps previous one, skipped", i))
			continue
		}
		if before := strings.Join(lines[next-1:s.StartLine-1], "\n"); strings.TrimSpace(before) != "" {
			out = append(out, p.segment(before)...)
			out = p.separate(out)
		}
		out = append(out, p.table(i, &tables[i])...)
		next = s.EndLine + 1
	}
	if next <= len(lines) {
		if after := strings.Join(lines[next-1:], "\n"); strings.TrimSpace(after) != "" {
			out = p.separate(out)
			out = append(out, p.segment(after)...)
		}
	}
	return out
}

// separate makes sure output ends with a blank line.
func (p *pipeline) separate(out []model.StyledRun) []model.StyledRun {
	var tail string
	for i := len(out) - 1; i >= 0 && len(tail) < 2; i-- {
		tail = out[i].Text + tail
	}
	switch {
	case len(out) == 0, strings.HasSuffix(tail, "\n\n"):
		return out
	case strings.HasSuffix(tail, "\n"):
		return append(out, p.resolver.Separator("\n"))
	default:
		return append(out, p.resolver.Separator("\n\n"))
	}
}

// placeholders replaces every table with an inert token on its own line,
// renders the document once and swaps token runs for table layouts. Tokens
// keep container markers of the table so enclosing blocks stay intact.
// Tables without source position stay in the text and are shown as rows.
func (p *pipeline) placeholders(src string, tables []model.ExtractedTable) []model.StyledRun {
	nonce := preprocess.NewNonce()
	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines))
	next := 1
	for i := range tables {
		s := tables[i].Source
		switch {
		case s == nil:
			p.degrade(fmt.Sprintf("table %d has no source position, shown as text", i))
			continue
		case s.StartLine < next || s.EndLine > len(lines):
			p.degrade(fmt.Sprintf("table %d has inconsistent source position, shown as text", i))
			continue
		}
		out = append(out, lines[next-1:s.StartLine-1]...)
		prefix, blank := containerPrefix(lines[s.StartLine-1])
		out = append(out, blank, prefix+preprocess.EncodeTable(nonce, i), blank)
		next = s.EndLine + 1
	}
	out = append(out, lines[next-1:]...)

	runs := p.segment(strings.Join(out, "\n"))
	spliced := make([]model.StyledRun, 0, len(runs))
	for i := 0; i < len(runs); i++ {
		index, ok := tableToken(runs[i].Text, nonce)
		if !ok || index >= len(tables) {
			spliced = append(spliced, runs[i])
			continue
		}
		spliced = append(spliced, p.table(index, &tables[index])...)
		// token paragraph terminator, table spacer ends the block instead
		if i+1 < len(runs) && runs[i+1].Text == "\n" {
			i++
		}
	}
	return spliced
}

var listMarkerRe = regexp.MustCompile(`^(?:[-*+]|[0-9]{1,9}[.)])[ \t]+`)

// containerPrefix returns blockquote markers, list markers and indentation in
// front of table row, and the same prefix for blank lines around the token:
// list markers there are replaced with spaces so the token stays content of
// the list item which starts with the table.
func containerPrefix(line string) (prefix, blank string) {
	var tok, empty strings.Builder
	for {
		end := 0
		for end < len(line) && strings.IndexByte(" \t>", line[end]) >= 0 {
			end++
		}
		tok.WriteString(line[:end])
		empty.WriteString(line[:end])
		line = line[end:]

		m := listMarkerRe.FindString(line)
		if m == "" {
			break
		}
		tok.WriteString(m)
		empty.WriteString(strings.Repeat(" ", len(m)))
		line = line[len(m):]
	}
	return tok.String(), strings.TrimRight(empty.String(), " \t")
}

func tableToken(text, nonce string) (int, bool) {
	toks := preprocess.Decode(strings.TrimSpace(text))
	if len(toks) != 1 || toks[0].Kind != preprocess.TokenTable || toks[0].Nonce != nonce {
		return 0, false
	}
	return toks[0].Index, true
}

// TierForWidth buckets host width into a tier.
func TierForWidth(width float64, l *config.LayoutConfig) common.WidthTier {
	if l == nil {
		l = config.DefaultLayout()
	}
	return l.TierFor(width)
}

// ContentWidth is the width available to text after host insets, capped by
// tier content maximum.
func ContentWidth(width float64, tier common.WidthTier, l *config.LayoutConfig) float64 {
	if l == nil {
		l = config.DefaultLayout()
	}
	tc := l.Tier(tier)
	w := max(width-2*tc.Inset, 0)
	if tc.ContentMaxWidth > 0 {
		w = min(w, tc.ContentMaxWidth)
	}
	return w
}
