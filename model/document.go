package model

import (
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/multierr"

	"mdql/common"
)

// Document is the complete result of a single render.
type Document struct {
	Tier           common.WidthTier `json:"tier"`
	AvailableWidth float64          `json:"available_width"`
	FrontMatter    FrontMatter      `json:"front_matter,omitempty"`
	Runs           []StyledRun      `json:"runs"`
	Tables         []*TableGrid     `json:"tables,omitempty"`
	Links          LinkMap          `json:"links"`
	// reasons for every degraded path taken during render
	Degraded []string `json:"degraded,omitempty"`
}

// Text concatenates text of all runs.
func (d *Document) Text() string {
	var sb strings.Builder
	for i := range d.Runs {
		sb.WriteString(d.Runs[i].Text)
	}
	return sb.String()
}

// Err combines all degradation reasons, nil when render was clean.
func (d *Document) Err() error {
	var err error
	for _, reason := range d.Degraded {
		err = multierr.Append(err, errors.New(reason))
	}
	return err
}

// BuildLinks indexes link runs by rune offsets of rendered text.
func (d *Document) BuildLinks() {
	d.Links = LinkMap{}
	pos := 0
	for i := range d.Runs {
		n := utf8.RuneCountInString(d.Runs[i].Text)
		if d.Runs[i].Link != "" {
			d.Links.Add(pos, pos+n, d.Runs[i].Link)
		}
		pos += n
	}
}
