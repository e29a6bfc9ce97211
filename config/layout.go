package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"mdql/common"
)

//go:embed layout.yaml
var layoutDefaults []byte

type (
	HeadingConfig struct {
		FontSize float64 `yaml:"font_size" validate:"gt=0"`
		Spacing  float64 `yaml:"spacing" validate:"gte=0"`
	}

	CodeConfig struct {
		FontSize       float64 `yaml:"font_size" validate:"gt=0"`
		InlineFontSize float64 `yaml:"inline_font_size" validate:"gt=0"`
		Indent         float64 `yaml:"indent" validate:"gte=0"`
		SpacingBefore  float64 `yaml:"spacing_before" validate:"gte=0"`
		SpacingAfter   float64 `yaml:"spacing_after" validate:"gte=0"`
	}

	ListConfig struct {
		FirstLineIndent float64 `yaml:"first_line_indent" validate:"gte=0"`
		HeadIndent      float64 `yaml:"head_indent" validate:"gtefield=FirstLineIndent"`
		LineSpacing     float64 `yaml:"line_spacing" validate:"gte=0"`
	}

	BlockquoteConfig struct {
		Indent        float64 `yaml:"indent" validate:"gte=0"`
		SpacingBefore float64 `yaml:"spacing_before" validate:"gte=0"`
		SpacingAfter  float64 `yaml:"spacing_after" validate:"gte=0"`
	}

	TableConfig struct {
		FontSize float64 `yaml:"font_size" validate:"gt=0"`
		// added to measured text width of every column
		MeasurePadding float64 `yaml:"measure_padding" validate:"gte=0"`
		BreathingRoom  float64 `yaml:"breathing_room" validate:"gte=0"`
		MinColumnWidth float64 `yaml:"min_column_width" validate:"gt=0"`
		MaxColumnWidth float64 `yaml:"max_column_width" validate:"gtefield=MinColumnWidth"`
		// 0 means whole available width
		MaxTableWidth float64 `yaml:"max_table_width" validate:"gte=0"`
		// tables with at least that many columns get max column width capped
		// to WideColumnFactor times equal share
		WideTableColumns int     `yaml:"wide_table_columns" validate:"gte=2"`
		WideColumnFactor float64 `yaml:"wide_column_factor" validate:"gte=1"`
		// per side
		CellPadding       float64 `yaml:"cell_padding" validate:"gte=0"`
		HeaderBorder      float64 `yaml:"header_border" validate:"gte=0"`
		SpacingAfter      float64 `yaml:"spacing_after" validate:"gte=0"`
		WrapThreshold     float64 `yaml:"wrap_threshold" validate:"gte=0,lte=1"`
		MaxWrappedLines   int     `yaml:"max_wrapped_lines" validate:"gte=1"`
		UnbreakableLength int     `yaml:"unbreakable_length" validate:"gte=1"`
	}

	FrontMatterConfig struct {
		FontSize float64 `yaml:"font_size" validate:"gt=0"`
		// 0 means no limit
		MaxFields int `yaml:"max_fields" validate:"gte=0"`
		// 0 disables two column layout
		TwoColumnMinFields int     `yaml:"two_column_min_fields" validate:"gte=0"`
		KeyGap             float64 `yaml:"key_gap" validate:"gte=0"`
		MaxKeyWidth        float64 `yaml:"max_key_width" validate:"gt=0"`
		Padding            float64 `yaml:"padding" validate:"gte=0"`
		SpacingAfter       float64 `yaml:"spacing_after" validate:"gte=0"`
	}

	// TierConfig holds every size, spacing and threshold used by a single
	// render for one width tier.
	TierConfig struct {
		BodyFontSize     float64           `yaml:"body_font_size" validate:"gt=0"`
		ParagraphSpacing float64           `yaml:"paragraph_spacing" validate:"gte=0"`
		Headings         []HeadingConfig   `yaml:"headings" validate:"len=6,dive"`
		Code             CodeConfig        `yaml:"code"`
		List             ListConfig        `yaml:"list"`
		Blockquote       BlockquoteConfig  `yaml:"blockquote"`
		Table            TableConfig       `yaml:"table"`
		FrontMatter      FrontMatterConfig `yaml:"front_matter"`
		// host side geometry
		Inset           float64 `yaml:"inset" validate:"gte=0"`
		ContentMaxWidth float64 `yaml:"content_max_width" validate:"gte=0"`
	}

	LayoutConfig struct {
		// widths below breakpoint are rendered in narrow tier
		Breakpoint float64    `yaml:"breakpoint" validate:"gt=0"`
		Narrow     TierConfig `yaml:"narrow"`
		Normal     TierConfig `yaml:"normal"`
	}
)

// Tier returns configuration for requested tier, unknown values map to normal.
func (conf *LayoutConfig) Tier(t common.WidthTier) *TierConfig {
	if t == common.WidthTierNarrow {
		return &conf.Narrow
	}
	return &conf.Normal
}

// TierFor buckets continuous width into a tier.
func (conf *LayoutConfig) TierFor(width float64) common.WidthTier {
	if width < conf.Breakpoint {
		return common.WidthTierNarrow
	}
	return common.WidthTierNormal
}

// Check enforces rules which cannot be expressed with field tags.
func (conf *LayoutConfig) Check() error {
	if conf.Narrow.FrontMatter.TwoColumnMinFields != 0 {
		return fmt.Errorf("narrow tier front matter is always single column, two_column_min_fields must be 0 (got %d)", conf.Narrow.FrontMatter.TwoColumnMinFields)
	}
	return nil
}

// Heading returns style for heading level, levels out of range are clamped.
func (tc *TierConfig) Heading(level int) HeadingConfig {
	if len(tc.Headings) == 0 {
		return HeadingConfig{FontSize: tc.BodyFontSize}
	}
	level = min(max(level, 1), len(tc.Headings))
	return tc.Headings[level-1]
}

var parsedLayout = sync.OnceValues(func() (LayoutConfig, error) {
	var conf LayoutConfig
	dec := yaml.NewDecoder(bytes.NewReader(layoutDefaults))
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil {
		return LayoutConfig{}, fmt.Errorf("failed to decode layout defaults: %w", err)
	}
	if err := gencfg.Validate(&conf); err != nil {
		return LayoutConfig{}, fmt.Errorf("invalid layout defaults: %w", err)
	}
	if err := conf.Check(); err != nil {
		return LayoutConfig{}, fmt.Errorf("invalid layout defaults: %w", err)
	}
	return conf, nil
})

// DefaultLayout returns a fresh copy of embedded layout defaults. Callers may
// modify the copy freely.
func DefaultLayout() *LayoutConfig {
	conf, err := parsedLayout()
	if err != nil {
		// embedded data is validated by tests
		panic(err)
	}
	conf.Narrow.Headings = append([]HeadingConfig(nil), conf.Narrow.Headings...)
	conf.Normal.Headings = append([]HeadingConfig(nil), conf.Normal.Headings...)
	return &conf
}
