// Package markdown adapts goldmark to the rendering core: it turns parsed
// block tree into flat sequence of annotated runs and extracts tables.
package markdown

import (
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Parser wraps configured goldmark instance. It is cheap and should be
// created per render.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates parser with GFM tables, strikethrough and autolinks.
// Additional goldmark options are applied after those.
func NewParser(opts ...goldmark.Option) *Parser {
	opts = append([]goldmark.Option{
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
		),
	}, opts...)
	return &Parser{md: goldmark.New(opts...)}
}

// Parse returns document tree for src. Parser panics are reported as errors.
func (p *Parser) Parse(src []byte) (doc ast.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("markdown parser failed: %v", r)
		}
	}()
	doc = p.md.Parser().Parse(text.NewReader(src))
	if doc == nil {
		return nil, fmt.Errorf("markdown parser returned no document")
	}
	return doc, nil
}
