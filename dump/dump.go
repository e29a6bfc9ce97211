// Package dump renders styled documents into inspection formats: indented
// tree, JSON, XML and plain text.
package dump

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"mdql/model"
	"mdql/utils/debug"
)

// Formats lists names accepted by Encode.
var Formats = []string{"tree", "json", "xml", "text"}

// Encode renders doc in named format.
func Encode(format string, doc *model.Document) ([]byte, error) {
	switch format {
	case "tree":
		return []byte(Tree(doc)), nil
	case "json":
		return JSON(doc)
	case "xml":
		return XML(doc)
	case "text":
		return []byte(Text(doc)), nil
	default:
		return nil, fmt.Errorf("unknown dump format %q, try %v", format, Formats)
	}
}

// Text is the rendered text without any styling.
func Text(doc *model.Document) string {
	return doc.Text()
}

func JSON(doc *model.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("unable to marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// Tree lists document runs one node per line with non default attributes.
func Tree(doc *model.Document) string {
	tw := debug.NewTreeWriter()
	tw.Node(0, "document",
		debug.A("tier", doc.Tier.String()),
		debug.A("width", doc.AvailableWidth),
		debug.A("runs", len(doc.Runs)),
		debug.A("tables", len(doc.Tables)))

	if doc.FrontMatter.Len() > 0 {
		tw.Node(1, "front-matter", debug.A("fields", doc.FrontMatter.Len()))
		for _, f := range doc.FrontMatter {
			tw.Text(2, f.Key, f.Value)
		}
	}

	if len(doc.Runs) > 0 {
		tw.Line(1, "runs")
	}
	for i := range doc.Runs {
		treeRun(tw, 2, i, &doc.Runs[i])
	}

	if len(doc.Tables) > 0 {
		tw.Line(1, "tables")
	}
	for _, g := range doc.Tables {
		tw.Node(2, fmt.Sprintf("table %d", g.Index),
			debug.A("columns", g.Columns),
			debug.A("rows", g.Rows),
			debug.A("widths", g.ColumnWidths),
			debug.A("padding", g.CellPadding),
			debug.A("header-border", g.HeaderBorder))
	}

	if len(doc.Links.Entries) > 0 {
		tw.Line(1, "links")
	}
	for _, e := range doc.Links.Entries {
		tw.Node(2, fmt.Sprintf("link [%d,%d)", e.Start, e.End), debug.A("url", e.URL))
	}

	if len(doc.Degraded) > 0 {
		tw.Line(1, "degraded")
	}
	for _, reason := range doc.Degraded {
		tw.Text(2, "reason", reason)
	}
	return tw.String()
}

func treeRun(tw *debug.TreeWriter, depth, index int, r *model.StyledRun) {
	tw.Node(depth, fmt.Sprintf("run %d %s", index, r.Role),
		debug.A("color", r.Color),
		debug.A("background", r.Background),
		debug.A("decorations", r.Decorations),
		debug.A("underline", r.Underline),
		debug.A("strikethrough", r.Strikethrough),
		debug.A("link", r.Link),
		debug.A("anchor", r.Anchor))
	tw.Text(depth+1, "text", r.Text)
	tw.Node(depth+1, "font",
		debug.A("size", r.Font.Size),
		debug.A("weight", r.Font.Weight),
		debug.A("italic", r.Font.Italic),
		debug.A("monospace", r.Font.Monospace))

	p := &r.Paragraph
	tw.Node(depth+1, "paragraph",
		debug.A("first", p.FirstLineIndent),
		debug.A("head", p.HeadIndent),
		debug.A("stops", p.TabStops),
		debug.A("before", p.SpacingBefore),
		debug.A("after", p.SpacingAfter),
		debug.A("line-spacing", p.LineSpacing),
		debug.A("align", p.Alignment),
		debug.A("break", p.LineBreak))

	if c := r.Cell; c != nil {
		tw.Node(depth+1, fmt.Sprintf("cell %d:%d", c.Row, c.Column),
			debug.A("table", c.Table),
			debug.A("header", c.Header))
	}
}

// XML builds an element per run, run text is kept as leaf character data.
func XML(doc *model.Document) ([]byte, error) {
	x := etree.NewDocument()
	x.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := x.CreateElement("document")
	root.CreateAttr("tier", doc.Tier.String())
	root.CreateAttr("width", formatFloat(doc.AvailableWidth))

	if doc.FrontMatter.Len() > 0 {
		fm := root.CreateElement("front-matter")
		for _, f := range doc.FrontMatter {
			el := fm.CreateElement("field")
			el.CreateAttr("key", f.Key)
			el.SetText(f.Value)
		}
	}

	runs := root.CreateElement("runs")
	for i := range doc.Runs {
		xmlRun(runs.CreateElement("run"), &doc.Runs[i])
	}

	if len(doc.Tables) > 0 {
		tables := root.CreateElement("tables")
		for _, g := range doc.Tables {
			el := tables.CreateElement("table")
			el.CreateAttr("index", fmt.Sprint(g.Index))
			el.CreateAttr("columns", fmt.Sprint(g.Columns))
			el.CreateAttr("rows", fmt.Sprint(g.Rows))
			el.CreateAttr("padding", formatFloat(g.CellPadding))
			el.CreateAttr("header-border", formatFloat(g.HeaderBorder))
			for _, w := range g.ColumnWidths {
				el.CreateElement("column").CreateAttr("width", formatFloat(w))
			}
		}
	}

	if len(doc.Links.Entries) > 0 {
		links := root.CreateElement("links")
		for _, e := range doc.Links.Entries {
			el := links.CreateElement("link")
			el.CreateAttr("start", fmt.Sprint(e.Start))
			el.CreateAttr("end", fmt.Sprint(e.End))
			el.CreateAttr("url", e.URL)
		}
	}

	if len(doc.Degraded) > 0 {
		degraded := root.CreateElement("degraded")
		for _, reason := range doc.Degraded {
			degraded.CreateElement("reason").SetText(reason)
		}
	}

	settings := etree.NewIndentSettings()
	settings.Spaces = 2
	settings.PreserveLeafWhitespace = true
	x.IndentWithSettings(settings)

	data, err := x.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("unable to serialize document: %w", err)
	}
	return data, nil
}

func xmlRun(el *etree.Element, r *model.StyledRun) {
	el.CreateAttr("role", r.Role.String())
	el.CreateAttr("size", formatFloat(r.Font.Size))
	if r.Font.Weight != 0 {
		el.CreateAttr("weight", r.Font.Weight.String())
	}
	if r.Font.Italic {
		el.CreateAttr("italic", "true")
	}
	if r.Font.Monospace {
		el.CreateAttr("monospace", "true")
	}
	if r.Color != 0 {
		el.CreateAttr("color", r.Color.String())
	}
	if r.Background != 0 {
		el.CreateAttr("background", r.Background.String())
	}
	if r.Decorations != 0 {
		el.CreateAttr("decorations", r.Decorations.String())
	}
	if r.Underline {
		el.CreateAttr("underline", "true")
	}
	if r.Strikethrough {
		el.CreateAttr("strikethrough", "true")
	}
	if r.Link != "" {
		el.CreateAttr("link", r.Link)
	}
	if r.Anchor != "" {
		el.CreateAttr("anchor", r.Anchor)
	}
	if c := r.Cell; c != nil {
		el.CreateAttr("table", fmt.Sprint(c.Table))
		el.CreateAttr("row", fmt.Sprint(c.Row))
		el.CreateAttr("column", fmt.Sprint(c.Column))
	}

	p := &r.Paragraph
	for _, a := range []struct {
		key string
		v   float64
	}{
		{"first-indent", p.FirstLineIndent},
		{"head-indent", p.HeadIndent},
		{"spacing-before", p.SpacingBefore},
		{"spacing-after", p.SpacingAfter},
		{"line-spacing", p.LineSpacing},
	} {
		if a.v != 0 {
			el.CreateAttr(a.key, formatFloat(a.v))
		}
	}
	if len(p.TabStops) > 0 {
		stops := make([]string, len(p.TabStops))
		for i, s := range p.TabStops {
			stops[i] = formatFloat(s)
		}
		el.CreateAttr("tab-stops", strings.Join(stops, " "))
	}
	if p.Alignment != 0 {
		el.CreateAttr("align", p.Alignment.String())
	}
	if p.LineBreak != 0 {
		el.CreateAttr("line-break", p.LineBreak.String())
	}
	el.SetText(r.Text)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
