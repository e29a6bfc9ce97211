package style

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"mdql/boundary"
	"mdql/common"
	"mdql/config"
	"mdql/layout"
	"mdql/markdown"
	"mdql/model"
	"mdql/preprocess"
)

func parse(t *testing.T, src string) []model.Run {
	t.Helper()
	text, _ := preprocess.Apply(src)
	b := []byte(text)
	doc, err := markdown.NewParser().Parse(b)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return boundary.Reconstruct(markdown.Runs(doc, b), zaptest.NewLogger(t))
}

func resolve(t *testing.T, src string, tier common.WidthTier) []model.StyledRun {
	t.Helper()
	tc := config.DefaultLayout().Tier(tier)
	return New(tc, zaptest.NewLogger(t)).Resolve(parse(t, src))
}

func joined(runs []model.StyledRun) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

func withRole(runs []model.StyledRun, role common.Role) []model.StyledRun {
	var out []model.StyledRun
	for _, r := range runs {
		if r.Role == role {
			out = append(out, r)
		}
	}
	return out
}

func TestResolve_TitleAndParagraph(t *testing.T) {
	runs := resolve(t, "# Title\n\nSome *text*.", common.WidthTierNormal)

	if got := joined(runs); got != "Title\nSome text." {
		t.Fatalf("text = %q", got)
	}
	h := runs[0]
	if h.Font.Size != 32 || h.Font.Weight != common.WeightBold {
		t.Errorf("heading font = %+v", h.Font)
	}
	if h.Paragraph.SpacingBefore != 12 || h.Paragraph.SpacingAfter != 12 {
		t.Errorf("heading spacing = %+v", h.Paragraph)
	}
	if h.Anchor != "title" {
		t.Errorf("heading anchor = %q", h.Anchor)
	}
	for _, r := range runs[1:] {
		if r.Font.Size != 14 || r.Font.Weight != common.WeightRegular {
			t.Errorf("body run %q font = %+v", r.Text, r.Font)
		}
		if r.Role != common.RoleText || r.Decorations != 0 || r.Paragraph.FirstLineIndent != 0 {
			t.Errorf("body run %q has block styling: %+v", r.Text, r)
		}
		if r.Anchor != "" {
			t.Errorf("body run %q has anchor", r.Text)
		}
	}
	if !runs[2].Font.Italic || runs[2].Text != "text" {
		t.Errorf("emphasis run = %+v", runs[2])
	}
}

func TestResolve_TaskList(t *testing.T) {
	runs := resolve(t, "- [ ] todo\n- [x] done", common.WidthTierNormal)

	if got := joined(runs); got != "☐ todo\n☑ done" {
		t.Errorf("text = %q", got)
	}
	if n := len(withRole(runs, common.RoleListPrefix)); n != 0 {
		t.Errorf("got %d bullet prefixes", n)
	}
	boxes := withRole(runs, common.RoleTaskBox)
	if len(boxes) != 2 || boxes[0].Text != "☐ " || boxes[1].Text != "☑ " {
		t.Errorf("task boxes = %+v", boxes)
	}
}

func TestResolve_ListPrefixes(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		text     string
		prefixes []string
	}{
		{
			name:     "bullets with inline runs",
			src:      "- a **b** c\n- d",
			text:     "• a b c\n• d",
			prefixes: []string{"• ", "• "},
		},
		{
			name:     "ordered with start",
			src:      "3. three\n4. four",
			text:     "3. three\n4. four",
			prefixes: []string{"3. ", "4. "},
		},
		{
			name:     "nested ordinals collide",
			src:      "1. one\n   1. inner\n2. two",
			text:     "1. one\n1. inner\n2. two",
			prefixes: []string{"1. ", "1. ", "2. "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := resolve(t, tt.src, common.WidthTierNormal)
			if got := joined(runs); got != tt.text {
				t.Errorf("text = %q, want %q", got, tt.text)
			}
			var got []string
			for _, r := range withRole(runs, common.RoleListPrefix) {
				got = append(got, r.Text)
			}
			if diff := cmp.Diff(tt.prefixes, got); diff != "" {
				t.Errorf("prefixes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_NestedListIndent(t *testing.T) {
	runs := resolve(t, "- outer\n  - inner", common.WidthTierNormal)
	prefixes := withRole(runs, common.RoleListPrefix)
	if len(prefixes) != 2 {
		t.Fatalf("got %d prefixes", len(prefixes))
	}
	outer, inner := prefixes[0].Paragraph, prefixes[1].Paragraph
	if outer.FirstLineIndent != 20 || outer.HeadIndent != 30 {
		t.Errorf("outer indents = %+v", outer)
	}
	if inner.FirstLineIndent != 50 || inner.HeadIndent != 60 {
		t.Errorf("inner indents = %+v", inner)
	}
	if diff := cmp.Diff([]float64{60}, inner.TabStops); diff != "" {
		t.Errorf("inner tab stops mismatch (-want +got):\n%s", diff)
	}
	for _, r := range runs {
		if r.Paragraph.SpacingAfter != 0 || r.Paragraph.SpacingBefore != 0 {
			t.Errorf("list run %q has paragraph spacing", r.Text)
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	src := "# A\n\n- one\n  1. x\n  2. y\n- two\n\n> quote\n>\n> more\n\n```go\ncode\n```"
	runs := parse(t, src)
	tc := config.DefaultLayout().Tier(common.WidthTierNormal)

	first := New(tc, zaptest.NewLogger(t)).Resolve(runs)
	second := New(tc, zaptest.NewLogger(t)).Resolve(runs)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Resolve() not idempotent (-first +second):\n%s", diff)
	}

	// same resolver differs only in anchors
	r := New(tc, zaptest.NewLogger(t))
	a, b := r.Resolve(runs), r.Resolve(runs)
	if joined(a) != joined(b) || len(a) != len(b) {
		t.Fatal("second pass changed text")
	}
	for i := range a {
		if a[i].Role == common.RoleListPrefix && b[i].Role != common.RoleListPrefix {
			t.Errorf("prefix placement moved at %d", i)
		}
	}
}

func TestResolve_Blocks(t *testing.T) {
	runs := resolve(t, "> quoted\n\n```\ncode\n```\n\n---\n\nafter", common.WidthTierNormal)

	find := func(text string) model.StyledRun {
		t.Helper()
		for _, r := range runs {
			if strings.TrimSuffix(r.Text, "\n") == text {
				return r
			}
		}
		t.Fatalf("no run %q in %q", text, joined(runs))
		return model.StyledRun{}
	}

	q := find("quoted")
	if !q.Decorations.Has(common.DecorationBlockquoteBar) || q.Paragraph.FirstLineIndent != 20 || q.Paragraph.HeadIndent != 20 {
		t.Errorf("blockquote run = %+v", q)
	}
	c := find("code")
	if !c.Font.Monospace || c.Font.Size != 13 || !c.Decorations.Has(common.DecorationCodeBackground) || c.Paragraph.FirstLineIndent != 10 {
		t.Errorf("code run = %+v", c)
	}
	rule := find(markdown.RuleText)
	if rule.Role != common.RoleRule || !rule.Decorations.Has(common.DecorationRule) {
		t.Errorf("rule run = %+v", rule)
	}
	a := find("after")
	if a.Decorations != 0 || a.Paragraph.SpacingAfter != 8 {
		t.Errorf("paragraph run = %+v", a)
	}
}

func TestResolve_Inline(t *testing.T) {
	runs := resolve(t, "`x` ~~y~~ [z](http://example.com) ![alt](img/pic.png)", common.WidthTierNormal)

	byText := make(map[string]model.StyledRun)
	for _, r := range runs {
		byText[r.Text] = r
	}
	if x := byText["x"]; !x.Font.Monospace || x.Background != common.BackgroundInlineCode || x.Font.Size != 13 {
		t.Errorf("inline code = %+v", x)
	}
	if !cmp.Equal(byText["x"].Paragraph, byText["z"].Paragraph) {
		t.Error("inline code changed paragraph directives")
	}
	if y := byText["y"]; !y.Strikethrough {
		t.Errorf("strikethrough = %+v", y)
	}
	if z := byText["z"]; !z.Underline || z.Color != common.ColorLink || z.Link != "http://example.com" {
		t.Errorf("link = %+v", z)
	}
	img, ok := byText["[Image: pic.png]"]
	if !ok || img.Role != common.RoleImage || img.Color != common.ColorSecondary {
		t.Errorf("image = %+v in %q", img, joined(runs))
	}
}

func TestResolve_HeadingAnchors(t *testing.T) {
	runs := resolve(t, "# Intro\n\n## Intro\n\n# Hello *World*", common.WidthTierNormal)
	var got []string
	for _, r := range runs {
		if r.Anchor != "" {
			got = append(got, r.Anchor)
		}
	}
	if diff := cmp.Diff([]string{"intro", "intro-1", "hello-world"}, got); diff != "" {
		t.Errorf("anchors mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_NarrowIsSmaller(t *testing.T) {
	src := "# Title\n\ntext\n\n- item"
	narrow := resolve(t, src, common.WidthTierNarrow)
	normal := resolve(t, src, common.WidthTierNormal)

	if len(narrow) != len(normal) {
		t.Fatalf("run count differs: %d vs %d", len(narrow), len(normal))
	}
	for i := range narrow {
		if narrow[i].Text != normal[i].Text {
			t.Errorf("text differs at %d: %q vs %q", i, narrow[i].Text, normal[i].Text)
		}
		if narrow[i].Font.Size >= normal[i].Font.Size {
			t.Errorf("run %q: narrow font %v not smaller than %v", narrow[i].Text, narrow[i].Font.Size, normal[i].Font.Size)
		}
	}
	last := len(narrow) - 1
	if narrow[last].Paragraph.HeadIndent >= normal[last].Paragraph.HeadIndent {
		t.Error("narrow list indent is not smaller")
	}
}

func TestRawAndSeparator(t *testing.T) {
	r := New(config.DefaultLayout().Tier(common.WidthTierNormal), nil)
	if r.Raw("") != nil {
		t.Error("Raw(\"\") returned runs")
	}
	raw := r.Raw("# not parsed")
	if len(raw) != 1 || raw[0].Text != "# not parsed" || raw[0].Font.Size != 14 {
		t.Errorf("Raw() = %+v", raw)
	}
	if sep := r.Separator("\n\n"); sep.Role != common.RoleSeparator || sep.Text != "\n\n" {
		t.Errorf("Separator() = %+v", sep)
	}
}

func fields(n int) model.FrontMatter {
	fm := make(model.FrontMatter, n)
	for i := range n {
		fm[i] = model.Field{Key: "key" + string(rune('a'+i)), Value: "v" + string(rune('a'+i))}
	}
	return fm
}

func TestFrontMatterBlock(t *testing.T) {
	m := layout.EstimateMeasurer{Factor: 0.5}
	l := config.DefaultLayout()

	tests := []struct {
		name    string
		fm      model.FrontMatter
		tier    common.WidthTier
		text    string
		layout  FrontMatterLayout
		stops   int
	}{
		{
			name:    "single column",
			fm:      model.FrontMatter{{Key: "title", Value: "Hello"}, {Key: "tags", Value: "a, b"}},
			tier:    common.WidthTierNormal,
			text:    "title:\tHello\ntags:\ta, b\n",
			layout:  FrontMatterLayout{Shown: 2, Columns: 1},
			stops:   1,
		},
		{
			name:    "two columns",
			fm:      fields(5),
			tier:    common.WidthTierNormal,
			text:    "keya:\tva\tkeyb:\tvb\nkeyc:\tvc\tkeyd:\tvd\nkeye:\tve\n",
			layout:  FrontMatterLayout{Shown: 5, Columns: 2},
			stops:   3,
		},
		{
			name:    "narrow is single column and capped",
			fm:      fields(7),
			tier:    common.WidthTierNarrow,
			text:    "keya:\tva\nkeyb:\tvb\nkeyc:\tvc\nkeyd:\tvd\nkeye:\tve\n+2 more\n",
			layout:  FrontMatterLayout{Shown: 5, Hidden: 2, Columns: 1},
			stops:   1,
		},
		{
			name:    "normal cap",
			fm:      fields(14),
			tier:    common.WidthTierNormal,
			layout:  FrontMatterLayout{Shown: 12, Hidden: 2, Columns: 2},
			stops:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, lay := FrontMatterBlock(tt.fm, l.Tier(tt.tier), 600, m)
			if diff := cmp.Diff(tt.layout, lay); diff != "" {
				t.Errorf("layout mismatch (-want +got):\n%s", diff)
			}
			if tt.text != "" && joined(runs) != tt.text {
				t.Errorf("text = %q, want %q", joined(runs), tt.text)
			}
			for _, r := range runs {
				if r.Role != common.RoleFrontMatter || !r.Decorations.Has(common.DecorationFrontMatterPanel) {
					t.Errorf("run %q = %+v", r.Text, r)
				}
				if len(r.Paragraph.TabStops) != tt.stops {
					t.Errorf("run %q has %d tab stops", r.Text, len(r.Paragraph.TabStops))
				}
			}
		})
	}
}

func TestFrontMatterBlock_KeepsOrder(t *testing.T) {
	fm := model.FrontMatter{{Key: "z", Value: "1"}, {Key: "a", Value: "2"}, {Key: "m", Value: "3"}}
	runs, _ := FrontMatterBlock(fm, config.DefaultLayout().Tier(common.WidthTierNormal), 600, layout.EstimateMeasurer{Factor: 0.5})
	var keys []string
	for _, r := range runs {
		if r.Font.Weight == common.WeightBold {
			keys = append(keys, strings.TrimSuffix(r.Text, ":"))
		}
	}
	if diff := cmp.Diff(fm.Keys(), keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestFrontMatterBlock_Empty(t *testing.T) {
	runs, lay := FrontMatterBlock(nil, config.DefaultLayout().Tier(common.WidthTierNormal), 600, layout.EstimateMeasurer{Factor: 0.5})
	if runs != nil || lay != (FrontMatterLayout{}) {
		t.Errorf("FrontMatterBlock(nil) = %v, %+v", runs, lay)
	}
}
