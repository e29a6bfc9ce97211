// Package common keeps enumerations shared by configuration, rendering core
// and debug output, so that none of them has to import the others.
package common

import (
	"fmt"
	"strings"
)

// Rendering density. Every size, spacing and threshold is looked up by tier.
type WidthTier int

const (
	WidthTierNarrow WidthTier = iota
	WidthTierNormal
)

var widthTierNames = []string{"narrow", "normal"}

// Paragraph alignment, also used for table column alignment where "none"
// means the markdown delimiter row did not specify one.
type Alignment int

const (
	AlignmentNone Alignment = iota
	AlignmentLeft
	AlignmentCenter
	AlignmentRight
)

var alignmentNames = []string{"none", "left", "center", "right"}

// Line break policy for a paragraph.
type LineBreak int

const (
	LineBreakWrap LineBreak = iota
	LineBreakTruncate
)

var lineBreakNames = []string{"wrap", "truncate"}

// Font weight.
type Weight int

const (
	WeightRegular Weight = iota
	WeightBold
)

var weightNames = []string{"regular", "bold"}

// Semantic foreground color, host maps it to its palette.
type Color int

const (
	ColorLabel Color = iota
	ColorSecondary
	ColorTertiary
	ColorQuaternary
	ColorLink
)

var colorNames = []string{"label", "secondary", "tertiary", "quaternary", "link"}

// Semantic background color.
type Background int

const (
	BackgroundNone Background = iota
	BackgroundInlineCode
)

var backgroundNames = []string{"none", "inlineCode"}

// What produced a styled run.
type Role int

const (
	RoleText Role = iota
	RoleSeparator
	RoleListPrefix
	RoleTaskBox
	RoleImage
	RoleRule
	RoleTableCell
	RoleTableSpacer
	RoleFrontMatter
)

var roleNames = []string{"text", "separator", "listPrefix", "taskBox", "image", "rule", "tableCell", "tableSpacer", "frontMatter"}

func (x WidthTier) String() string  { return name(widthTierNames, int(x), "WidthTier") }
func (x Alignment) String() string  { return name(alignmentNames, int(x), "Alignment") }
func (x LineBreak) String() string  { return name(lineBreakNames, int(x), "LineBreak") }
func (x Weight) String() string     { return name(weightNames, int(x), "Weight") }
func (x Color) String() string      { return name(colorNames, int(x), "Color") }
func (x Background) String() string { return name(backgroundNames, int(x), "Background") }
func (x Role) String() string       { return name(roleNames, int(x), "Role") }

// WidthTierNames returns list of possible string values of WidthTier.
func WidthTierNames() []string {
	return append([]string(nil), widthTierNames...)
}

// ParseWidthTier attempts to convert a string to a WidthTier.
func ParseWidthTier(s string) (WidthTier, error) {
	i, err := parse(widthTierNames, s, "WidthTier")
	return WidthTier(i), err
}

// ParseAlignment attempts to convert a string to an Alignment.
func ParseAlignment(s string) (Alignment, error) {
	i, err := parse(alignmentNames, s, "Alignment")
	return Alignment(i), err
}

func (x WidthTier) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

func (x *WidthTier) UnmarshalText(text []byte) error {
	v, err := ParseWidthTier(string(text))
	if err != nil {
		return err
	}
	*x = v
	return nil
}

func (x Alignment) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

func (x *Alignment) UnmarshalText(text []byte) error {
	v, err := ParseAlignment(string(text))
	if err != nil {
		return err
	}
	*x = v
	return nil
}

// Decoration is a set of markers consumed by the host custom paint pass.
type Decoration uint8

const (
	DecorationBlockquoteBar Decoration = 1 << iota
	DecorationCodeBackground
	DecorationFrontMatterPanel
	DecorationRule
)

var decorationNames = []string{"blockquote-bar", "code-background", "front-matter-panel", "rule"}

func (d Decoration) Has(o Decoration) bool {
	return d&o == o
}

func (d Decoration) Names() []string {
	var out []string
	for i, n := range decorationNames {
		if d&(1<<i) != 0 {
			out = append(out, n)
		}
	}
	return out
}

func (d Decoration) String() string {
	if d == 0 {
		return "none"
	}
	return strings.Join(d.Names(), "|")
}

func name(names []string, i int, kind string) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%s(%d)", kind, i)
}

func parse(names []string, s, kind string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s is not a valid %s, try [%s]", s, kind, strings.Join(names, ", "))
}

func (x LineBreak) MarshalText() ([]byte, error)  { return []byte(x.String()), nil }
func (x Weight) MarshalText() ([]byte, error)     { return []byte(x.String()), nil }
func (x Color) MarshalText() ([]byte, error)      { return []byte(x.String()), nil }
func (x Background) MarshalText() ([]byte, error) { return []byte(x.String()), nil }
func (x Role) MarshalText() ([]byte, error)       { return []byte(x.String()), nil }
func (d Decoration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }
