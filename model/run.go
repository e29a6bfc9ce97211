// Package model defines data passed between rendering stages: annotated runs
// produced by the parser adapter, extracted tables and styled output.
package model

import (
	"fmt"
	"slices"
)

// BlockKind is the kind of a block intent attached to a run.
type BlockKind int

const (
	BlockNone BlockKind = iota
	BlockParagraph
	BlockHeader
	BlockCodeBlock
	BlockListItem
	BlockOrderedList
	BlockUnorderedList
	BlockBlockquote
	BlockThematicBreak
	BlockTable
	BlockHTML
)

var blockKindNames = []string{"none", "paragraph", "header", "codeBlock", "listItem", "orderedList", "unorderedList", "blockQuote", "thematicBreak", "table", "html"}

func (k BlockKind) String() string {
	if k >= 0 && int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return fmt.Sprintf("BlockKind(%d)", int(k))
}

func (k BlockKind) IsList() bool {
	return k == BlockOrderedList || k == BlockUnorderedList
}

// InlineIntent is a set of inline annotations.
type InlineIntent uint8

const (
	InlineEmphasized InlineIntent = 1 << iota
	InlineStrong
	InlineCode
	InlineStrikethrough
)

func (i InlineIntent) Has(o InlineIntent) bool {
	return i&o == o
}

// BlockIntent is a single structural annotation. Identity is shared by all
// runs of the same block instance and is unique within a document.
type BlockIntent struct {
	Kind     BlockKind
	Identity int
	// heading level 1-6
	Level int
	// list item ordinal, 1-based
	Ordinal int
	// code block language hint
	Language string
}

// Run is a contiguous span of text with its block intents ordered innermost
// to outermost and its inline intents.
type Run struct {
	Text   string
	Blocks []BlockIntent
	Inline InlineIntent
	Link   string
}

// Primary returns innermost block intent.
func (r *Run) Primary() (BlockIntent, bool) {
	if len(r.Blocks) == 0 {
		return BlockIntent{}, false
	}
	return r.Blocks[0], true
}

// Find returns innermost block intent of requested kind.
func (r *Run) Find(kind BlockKind) (BlockIntent, bool) {
	for _, b := range r.Blocks {
		if b.Kind == kind {
			return b, true
		}
	}
	return BlockIntent{}, false
}

// ListItem returns innermost list item and the list it belongs to.
func (r *Run) ListItem() (item, list BlockIntent, ok bool) {
	for i, b := range r.Blocks {
		if b.Kind != BlockListItem {
			continue
		}
		for _, l := range r.Blocks[i+1:] {
			if l.Kind.IsList() {
				return b, l, true
			}
		}
		return b, BlockIntent{Kind: BlockUnorderedList}, true
	}
	return BlockIntent{}, BlockIntent{}, false
}

func (r *Run) Has(kind BlockKind) bool {
	_, ok := r.Find(kind)
	return ok
}

// SameAnnotations reports whether two runs carry identical intents and may
// be merged.
func (r *Run) SameAnnotations(o *Run) bool {
	return r.Inline == o.Inline && r.Link == o.Link && slices.Equal(r.Blocks, o.Blocks)
}
