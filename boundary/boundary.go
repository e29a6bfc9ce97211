// Package boundary restores block separation in a flat run sequence. Parser
// output does not carry newlines between blocks, they are inferred from block
// intents of adjacent runs.
package boundary

import (
	"strings"

	"go.uber.org/zap"

	"mdql/model"
)

// tracker is the accumulator folded over runs.
type tracker struct {
	first    bool
	newline  bool
	hasKind  bool
	kind     model.BlockKind
	identity int
	ordinal  int
	inList   bool
}

func (t tracker) next(r *model.Run) (tracker, bool) {
	var insert bool
	primary, ok := r.Primary()
	item, _, inList := r.ListItem()

	checked := !t.first && !t.newline
	switch {
	case !ok:
		// implicit paragraph
		insert = checked && t.hasKind
		primary = model.BlockIntent{Kind: model.BlockParagraph}
	case inList && t.inList:
		// same ordinal at another nesting level is caught by identity
		insert = checked && (item.Ordinal != t.ordinal || primary.Identity != t.identity)
	default:
		insert = checked && (!t.hasKind || primary.Kind != t.kind || primary.Identity != t.identity)
	}

	return tracker{
		newline:  strings.HasSuffix(r.Text, "\n"),
		hasKind:  true,
		kind:     primary.Kind,
		identity: primary.Identity,
		ordinal:  item.Ordinal,
		inList:   inList,
	}, insert
}

// Insertions returns indexes of runs which must be preceded by a newline to
// separate adjacent blocks.
func Insertions(runs []model.Run) []int {
	var points []int
	acc := tracker{first: true}
	for i := range runs {
		var insert bool
		if acc, insert = acc.next(&runs[i]); insert {
			points = append(points, i)
		}
	}
	return points
}

// BlockquoteInsertions returns indexes of runs starting a new paragraph
// inside a blockquote which are not yet separated from preceding run.
func BlockquoteInsertions(runs []model.Run) []int {
	var (
		points []int
		prev   int
		inside bool
	)
	for i := range runs {
		if !runs[i].Has(model.BlockBlockquote) {
			inside = false
			continue
		}
		primary, _ := runs[i].Primary()
		if inside && primary.Identity != prev && !strings.HasSuffix(runs[i-1].Text, "\n") {
			points = append(points, i)
		}
		prev, inside = primary.Identity, true
	}
	return points
}

// Apply returns a copy of runs where every run listed in points (ascending)
// is preceded by a newline. Newline is appended to the preceding run so it
// terminates that paragraph with its own style.
func Apply(runs []model.Run, points []int) []model.Run {
	out := make([]model.Run, 0, len(runs))
	for i := range runs {
		if len(points) > 0 && points[0] == i {
			points = points[1:]
			if n := len(out); n > 0 {
				out[n-1].Text += "\n"
			}
		}
		out = append(out, runs[i])
	}
	return out
}

// Reconstruct separates blocks, then paragraphs inside blockquotes.
func Reconstruct(runs []model.Run, log *zap.Logger) []model.Run {
	if log == nil {
		log = zap.NewNop()
	}
	points := Insertions(runs)
	runs = Apply(runs, points)
	quoted := BlockquoteInsertions(runs)
	runs = Apply(runs, quoted)
	log.Debug("Block boundaries reconstructed", zap.Int("runs", len(runs)), zap.Int("blocks", len(points)), zap.Int("quoted", len(quoted)))
	return runs
}
