package style

import (
	"fmt"

	"mdql/common"
	"mdql/config"
	"mdql/layout"
	"mdql/model"
)

// FrontMatterLayout describes how front matter block was laid out.
type FrontMatterLayout struct {
	Shown   int `json:"shown"`
	Hidden  int `json:"hidden"`
	Columns int `json:"columns"`
}

// FrontMatterBlock renders front matter as tab aligned key/value lines.
// Fields over the tier limit are summarized as "+N more", tiers allowing it
// put pairs side by side.
func FrontMatterBlock(fm model.FrontMatter, tc *config.TierConfig, contentWidth float64, m layout.Measurer) ([]model.StyledRun, FrontMatterLayout) {
	if fm.Len() == 0 {
		return nil, FrontMatterLayout{}
	}
	fc := &tc.FrontMatter

	shown := fm
	if fc.MaxFields > 0 && len(fm) > fc.MaxFields {
		shown = fm[:fc.MaxFields]
	}
	lay := FrontMatterLayout{Shown: len(shown), Hidden: len(fm) - len(shown), Columns: 1}
	if fc.TwoColumnMinFields > 0 && len(shown) >= fc.TwoColumnMinFields {
		lay.Columns = 2
	}

	keyFont := model.Font{Size: fc.FontSize, Weight: common.WeightBold}
	valueFont := model.Font{Size: fc.FontSize}

	var keyWidth float64
	for _, f := range shown {
		keyWidth = max(keyWidth, m.Width(f.Key+":", keyFont))
	}
	keyWidth = min(keyWidth, fc.MaxKeyWidth) + fc.KeyGap

	para := model.Paragraph{
		FirstLineIndent: fc.Padding,
		HeadIndent:      fc.Padding + keyWidth,
		TabStops:        []float64{fc.Padding + keyWidth},
	}
	if lay.Columns == 2 {
		half := max(contentWidth-2*fc.Padding, 0) / 2
		para.TabStops = append(para.TabStops, fc.Padding+half, fc.Padding+half+keyWidth)
		para.LineBreak = common.LineBreakTruncate
	}

	span := func(text string, font model.Font, color common.Color) model.StyledRun {
		return model.StyledRun{
			Text:        text,
			Font:        font,
			Paragraph:   para,
			Color:       color,
			Decorations: common.DecorationFrontMatterPanel,
			Role:        common.RoleFrontMatter,
		}
	}

	var (
		out  []model.StyledRun
		line int
	)
	for i := 0; i < len(shown); i += lay.Columns {
		line = len(out)
		for j, f := range shown[i:min(i+lay.Columns, len(shown))] {
			if j > 0 {
				out = append(out, span("\t", valueFont, common.ColorLabel))
			}
			out = append(out, span(f.Key+":", keyFont, common.ColorSecondary))
			out = append(out, span("\t"+f.Value, valueFont, common.ColorLabel))
		}
		out[len(out)-1].Text += "\n"
	}
	if lay.Hidden > 0 {
		line = len(out)
		more := span(fmt.Sprintf("+%d more\n", lay.Hidden), valueFont, common.ColorTertiary)
		more.Font.Italic = true
		out = append(out, more)
	}

	out[0].Paragraph.SpacingBefore = fc.Padding
	for i := line; i < len(out); i++ {
		out[i].Paragraph.SpacingAfter = fc.SpacingAfter
	}
	return out, lay
}
