package markdown

import (
	"slices"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"mdql/model"
	"mdql/preprocess"
)

// RuleText is the text of a thematic break run.
const RuleText = "\u00a0"

// Runs flattens document tree into annotated runs in document order. Blocks
// of every run are ordered innermost first, every block instance gets its own
// identity. No newlines are emitted between blocks.
func Runs(doc ast.Node, src []byte) []model.Run {
	a := &runBuilder{src: src}
	a.block(doc)
	return a.runs
}

type runBuilder struct {
	src   []byte
	runs  []model.Run
	stack []model.BlockIntent
	next  int
}

func (a *runBuilder) identity() int {
	a.next++
	return a.next
}

func (a *runBuilder) push(b model.BlockIntent) {
	b.Identity = a.identity()
	a.stack = append(a.stack, b)
}

func (a *runBuilder) pop() {
	a.stack = a.stack[:len(a.stack)-1]
}

// blocks returns current stack innermost first.
func (a *runBuilder) blocks() []model.BlockIntent {
	out := slices.Clone(a.stack)
	slices.Reverse(out)
	return out
}

func (a *runBuilder) emit(blocks []model.BlockIntent, text string, in model.InlineIntent, link string) {
	if n := len(a.runs); n > 0 {
		last := &a.runs[n-1]
		if last.Inline == in && last.Link == link && slices.Equal(last.Blocks, blocks) {
			last.Text += text
			return
		}
	}
	a.runs = append(a.runs, model.Run{Text: text, Blocks: blocks, Inline: in, Link: link})
}

func (a *runBuilder) children(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		a.block(c)
	}
}

func (a *runBuilder) block(n ast.Node) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		a.push(model.BlockIntent{Kind: model.BlockParagraph})
		a.inlines(n)
		a.pop()
	case *ast.Heading:
		a.push(model.BlockIntent{Kind: model.BlockHeader, Level: n.Level})
		a.inlines(n)
		a.pop()
	case *ast.FencedCodeBlock:
		a.push(model.BlockIntent{Kind: model.BlockCodeBlock, Language: string(n.Language(a.src))})
		a.emit(a.blocks(), codeText(n, a.src), 0, "")
		a.pop()
	case *ast.CodeBlock:
		a.push(model.BlockIntent{Kind: model.BlockCodeBlock})
		a.emit(a.blocks(), codeText(n, a.src), 0, "")
		a.pop()
	case *ast.HTMLBlock:
		a.push(model.BlockIntent{Kind: model.BlockHTML})
		raw := linesText(n, a.src)
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(a.src))
		}
		if raw = strings.TrimRight(raw, "\n"); raw != "" {
			a.emit(a.blocks(), raw, 0, "")
		}
		a.pop()
	case *ast.ThematicBreak:
		a.push(model.BlockIntent{Kind: model.BlockThematicBreak})
		a.emit(a.blocks(), RuleText, 0, "")
		a.pop()
	case *ast.Blockquote:
		a.push(model.BlockIntent{Kind: model.BlockBlockquote})
		a.children(n)
		a.pop()
	case *ast.List:
		a.list(n)
	case *east.Table:
		a.table(n)
	default:
		a.children(n)
	}
}

func (a *runBuilder) list(n *ast.List) {
	kind := model.BlockUnorderedList
	if n.IsOrdered() {
		kind = model.BlockOrderedList
	}
	a.push(model.BlockIntent{Kind: kind})
	index := 0
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			a.block(c)
			continue
		}
		ordinal := index + 1
		if n.IsOrdered() {
			ordinal = n.Start + index
		}
		index++
		a.push(model.BlockIntent{Kind: model.BlockListItem, Ordinal: ordinal})
		if item.ChildCount() == 0 {
			// empty item still gets its prefix
			a.push(model.BlockIntent{Kind: model.BlockParagraph})
			a.emit(a.blocks(), "", 0, "")
			a.pop()
		}
		a.children(item)
		a.pop()
	}
	a.pop()
}

// table is only reached when a table is rendered as text, every row becomes
// a paragraph with cells separated by vertical bars.
func (a *runBuilder) table(n *east.Table) {
	a.push(model.BlockIntent{Kind: model.BlockTable})
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, PlainText(cell, a.src))
		}
		a.push(model.BlockIntent{Kind: model.BlockParagraph})
		a.emit(a.blocks(), strings.Join(cells, " | "), 0, "")
		a.pop()
	}
	a.pop()
}

func (a *runBuilder) inlines(n ast.Node) {
	blocks := a.blocks()
	var walk func(n ast.Node, in model.InlineIntent, link string)
	walk = func(n ast.Node, in model.InlineIntent, link string) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Text:
				value := string(c.Segment.Value(a.src))
				switch {
				case c.HardLineBreak():
					a.emit(blocks, strings.TrimSuffix(strings.TrimRight(value, " "), "\\")+"\n", in, link)
				case c.SoftLineBreak():
					a.emit(blocks, strings.TrimRight(value, " ")+" ", in, link)
				default:
					a.emit(blocks, value, in, link)
				}
			case *ast.String:
				a.emit(blocks, string(c.Value), in, link)
			case *ast.CodeSpan:
				a.emit(blocks, PlainText(c, a.src), in|model.InlineCode, link)
			case *ast.Emphasis:
				flag := model.InlineEmphasized
				if c.Level >= 2 {
					flag = model.InlineStrong
				}
				walk(c, in|flag, link)
			case *east.Strikethrough:
				walk(c, in|model.InlineStrikethrough, link)
			case *ast.Link:
				walk(c, in, string(c.Destination))
			case *ast.AutoLink:
				a.emit(blocks, string(c.Label(a.src)), in, string(c.URL(a.src)))
			case *ast.Image:
				// reference style images are not seen by preprocessor
				a.emit(blocks, preprocess.EncodeImage(preprocess.ImageName(string(c.Destination))), in, link)
			case *ast.RawHTML:
				for i := 0; i < c.Segments.Len(); i++ {
					seg := c.Segments.At(i)
					a.emit(blocks, string(seg.Value(a.src)), in, link)
				}
			default:
				walk(c, in, link)
			}
		}
	}
	walk(n, 0, "")
}

func linesText(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return sb.String()
}

// codeText returns code block content, always terminated by newline.
func codeText(n ast.Node, src []byte) string {
	s := linesText(n, src)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}

// PlainText returns text content of inline children with markup stripped
// and surrounding whitespace trimmed.
func PlainText(n ast.Node, src []byte) string {
	var sb strings.Builder
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Text:
				sb.Write(c.Segment.Value(src))
				if c.SoftLineBreak() || c.HardLineBreak() {
					sb.WriteByte(' ')
				}
			case *ast.String:
				sb.Write(c.Value)
			case *ast.AutoLink:
				sb.Write(c.Label(src))
			case *ast.RawHTML:
				for i := 0; i < c.Segments.Len(); i++ {
					seg := c.Segments.At(i)
					sb.Write(seg.Value(src))
				}
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
