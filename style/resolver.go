// Package style maps block and inline intents of runs to concrete fonts,
// paragraph directives and decorations for one width tier.
package style

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"mdql/common"
	"mdql/config"
	"mdql/model"
	"mdql/preprocess"
)

const bullet = "• "

// Resolver is created for a single render. It remembers heading anchors
// already handed out so they stay unique across document segments.
type Resolver struct {
	tier    *config.TierConfig
	log     *zap.Logger
	anchors map[string]int
}

func New(tc *config.TierConfig, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{tier: tc, log: log, anchors: make(map[string]int)}
}

// list items are identified by the list they belong to and their ordinal,
// nested lists reuse ordinals
type itemKey struct {
	list    int
	ordinal int
}

type pass struct {
	r        *Resolver
	out      []model.StyledRun
	items    map[itemKey]bool
	headings map[int]bool
}

// Resolve styles runs of one parsed segment. Every list item gets exactly
// one prefix span in front of its first run.
func (r *Resolver) Resolve(runs []model.Run) []model.StyledRun {
	p := &pass{
		r:        r,
		out:      make([]model.StyledRun, 0, len(runs)+len(runs)/4),
		items:    make(map[itemKey]bool),
		headings: make(map[int]bool),
	}
	for i := range runs {
		p.run(runs, i)
	}
	return p.out
}

func (p *pass) run(runs []model.Run, i int) {
	run := &runs[i]
	block := p.r.block(run)
	text := run.Text

	if item, list, ok := run.ListItem(); ok {
		key := itemKey{list: list.Identity, ordinal: item.Ordinal}
		if !p.items[key] {
			p.items[key] = true
			text = p.prefix(block, list, item, text)
		}
	}

	styled := block
	p.r.inline(&styled, run)

	start := len(p.out)
	p.segments(styled, text)

	if h, ok := run.Find(model.BlockHeader); ok && !p.headings[h.Identity] && len(p.out) > start {
		p.headings[h.Identity] = true
		p.out[start].Anchor = p.r.anchor(headingText(runs[i:], h.Identity))
	}
}

// prefix emits list marker span and returns item text with task marker
// consumed. Checkbox replaces the bullet.
func (p *pass) prefix(block model.StyledRun, list, item model.BlockIntent, text string) string {
	s := block
	s.Font = model.Font{Size: p.r.tier.BodyFontSize}
	s.Color = common.ColorLabel
	s.Role = common.RoleListPrefix

	switch {
	case strings.HasPrefix(text, preprocess.CheckedMarker):
		s.Text, s.Role = preprocess.CheckedGlyph+" ", common.RoleTaskBox
		text = strings.TrimPrefix(text[len(preprocess.CheckedMarker):], " ")
	case strings.HasPrefix(text, preprocess.UncheckedMarker):
		s.Text, s.Role, s.Color = preprocess.UncheckedGlyph+" ", common.RoleTaskBox, common.ColorSecondary
		text = strings.TrimPrefix(text[len(preprocess.UncheckedMarker):], " ")
	case list.Kind == model.BlockOrderedList:
		s.Text = fmt.Sprintf("%d. ", item.Ordinal)
	default:
		s.Text = bullet
	}
	p.out = append(p.out, s)
	return text
}

// segments emits styled spans for text, decoding placeholder markers.
func (p *pass) segments(s model.StyledRun, text string) {
	if !preprocess.HasMarker(text) {
		if text != "" {
			s.Text = text
			p.out = append(p.out, s)
		}
		return
	}
	for _, tok := range preprocess.Decode(text) {
		span := s
		switch tok.Kind {
		case preprocess.TokenText:
			span.Text = tok.Text
		case preprocess.TokenImage:
			span.Text = preprocess.ImageText(tok.Text)
			span.Color, span.Role = common.ColorSecondary, common.RoleImage
			span.Underline, span.Font.Italic = false, false
		case preprocess.TokenChecked:
			span.Text, span.Role = preprocess.CheckedGlyph, common.RoleTaskBox
		case preprocess.TokenUnchecked:
			span.Text, span.Role = preprocess.UncheckedGlyph, common.RoleTaskBox
		case preprocess.TokenTable:
			// left in place for the pipeline to splice table in
			span.Text = preprocess.EncodeTable(tok.Nonce, tok.Index)
		}
		if span.Text != "" {
			p.out = append(p.out, span)
		}
	}
}

// block computes style implied by block intents, applied outermost first so
// inner blocks refine outer ones.
func (r *Resolver) block(run *model.Run) model.StyledRun {
	tc := r.tier
	s := model.StyledRun{
		Font:      model.Font{Size: tc.BodyFontSize},
		Paragraph: model.Paragraph{SpacingAfter: tc.ParagraphSpacing},
		Color:     common.ColorLabel,
		Role:      common.RoleText,
	}

	var indent float64
	for i := len(run.Blocks) - 1; i >= 0; i-- {
		b := run.Blocks[i]
		switch b.Kind {
		case model.BlockBlockquote:
			indent += tc.Blockquote.Indent
			s.Paragraph.FirstLineIndent, s.Paragraph.HeadIndent = indent, indent
			s.Paragraph.SpacingBefore = tc.Blockquote.SpacingBefore
			s.Paragraph.SpacingAfter = tc.Blockquote.SpacingAfter
			s.Decorations |= common.DecorationBlockquoteBar
		case model.BlockListItem:
			s.Paragraph.FirstLineIndent = indent + tc.List.FirstLineIndent
			s.Paragraph.HeadIndent = indent + tc.List.HeadIndent
			s.Paragraph.TabStops = []float64{s.Paragraph.HeadIndent}
			// items are separated by newlines only
			s.Paragraph.SpacingBefore, s.Paragraph.SpacingAfter = 0, 0
			s.Paragraph.LineSpacing = tc.List.LineSpacing
			indent = s.Paragraph.HeadIndent
		case model.BlockHeader:
			h := tc.Heading(b.Level)
			s.Font.Size, s.Font.Weight = h.FontSize, common.WeightBold
			s.Paragraph.SpacingBefore, s.Paragraph.SpacingAfter = h.Spacing, h.Spacing
		case model.BlockCodeBlock, model.BlockHTML:
			s.Font = model.Font{Size: tc.Code.FontSize, Monospace: true}
			s.Paragraph.FirstLineIndent = indent + tc.Code.Indent
			s.Paragraph.HeadIndent = s.Paragraph.FirstLineIndent
			s.Paragraph.SpacingBefore, s.Paragraph.SpacingAfter = tc.Code.SpacingBefore, tc.Code.SpacingAfter
			if b.Kind == model.BlockCodeBlock {
				s.Decorations |= common.DecorationCodeBackground
			} else {
				s.Color = common.ColorSecondary
			}
		case model.BlockThematicBreak:
			s.Role, s.Color = common.RoleRule, common.ColorTertiary
			s.Decorations |= common.DecorationRule
		}
	}
	return s
}

// inline applies inline intents, paragraph directives are not touched.
func (r *Resolver) inline(s *model.StyledRun, run *model.Run) {
	in := run.Inline
	if in.Has(model.InlineCode) {
		s.Font.Monospace = true
		if !run.Has(model.BlockHeader) {
			s.Font.Size = r.tier.Code.InlineFontSize
		}
		s.Background = common.BackgroundInlineCode
	}
	if in.Has(model.InlineStrong) {
		s.Font.Weight = common.WeightBold
	}
	if in.Has(model.InlineEmphasized) {
		s.Font.Italic = true
	}
	if in.Has(model.InlineStrikethrough) {
		s.Strikethrough = true
	}
	if run.Link != "" {
		s.Link, s.Underline, s.Color = run.Link, true, common.ColorLink
	}
}

// anchor returns unique slug for heading title.
func (r *Resolver) anchor(title string) string {
	base := slug.Make(title)
	if base == "" {
		base = "section"
	}
	n := r.anchors[base]
	r.anchors[base] = n + 1
	if n == 0 {
		return base
	}
	r.log.Debug("Duplicate heading anchor", zap.String("anchor", base), zap.Int("count", n))
	return fmt.Sprintf("%s-%d", base, n)
}

func headingText(runs []model.Run, identity int) string {
	var sb strings.Builder
	for i := range runs {
		h, ok := runs[i].Find(model.BlockHeader)
		if !ok || h.Identity != identity {
			break
		}
		sb.WriteString(preprocess.DisplayText(runs[i].Text))
	}
	return strings.TrimSpace(sb.String())
}

// Raw styles unparsed text as a single body paragraph.
func (r *Resolver) Raw(text string) []model.StyledRun {
	if text == "" {
		return nil
	}
	return []model.StyledRun{{
		Text:      text,
		Font:      model.Font{Size: r.tier.BodyFontSize},
		Paragraph: model.Paragraph{SpacingAfter: r.tier.ParagraphSpacing},
		Color:     common.ColorLabel,
		Role:      common.RoleText,
	}}
}

// Separator returns a run made of newlines separating document segments.
func (r *Resolver) Separator(text string) model.StyledRun {
	return model.StyledRun{
		Text:  text,
		Font:  model.Font{Size: r.tier.BodyFontSize},
		Color: common.ColorLabel,
		Role:  common.RoleSeparator,
	}
}
