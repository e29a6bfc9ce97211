// Package layout measures text and allocates table column widths.
package layout

import (
	"fmt"
	"sync"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"mdql/common"
	"mdql/model"
)

// Measurer returns rendered width of a single line of text in points.
type Measurer interface {
	Width(text string, f model.Font) float64
}

type faceKey struct {
	size      float64
	bold      bool
	italic    bool
	monospace bool
}

type widthKey struct {
	text string
	face faceKey
}

func keyOf(f model.Font) faceKey {
	return faceKey{size: f.Size, bold: f.Weight == common.WeightBold, italic: f.Italic, monospace: f.Monospace}
}

type fontSet struct {
	regular, bold, italic, boldItalic, mono, monoBold *opentype.Font
}

func (fs *fontSet) pick(k faceKey) *opentype.Font {
	switch {
	case k.monospace && k.bold:
		return fs.monoBold
	case k.monospace:
		return fs.mono
	case k.bold && k.italic:
		return fs.boldItalic
	case k.bold:
		return fs.bold
	case k.italic:
		return fs.italic
	default:
		return fs.regular
	}
}

// parsed fonts are immutable and shared
var goFonts = sync.OnceValues(func() (*fontSet, error) {
	fs := &fontSet{}
	for _, f := range []struct {
		dst  **opentype.Font
		data []byte
	}{
		{&fs.regular, goregular.TTF},
		{&fs.bold, gobold.TTF},
		{&fs.italic, goitalic.TTF},
		{&fs.boldItalic, gobolditalic.TTF},
		{&fs.mono, gomono.TTF},
		{&fs.monoBold, gomonobold.TTF},
	} {
		parsed, err := opentype.Parse(f.data)
		if err != nil {
			return nil, fmt.Errorf("unable to parse embedded font: %w", err)
		}
		*f.dst = parsed
	}
	return fs, nil
})

// FontMeasurer measures text with Go fonts at 72 DPI so one pixel is one
// point. Safe for concurrent use.
type FontMeasurer struct {
	fonts *fontSet
	cache *lru.Cache[widthKey, float64]

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// NewFontMeasurer creates measurer remembering up to cacheSize widths.
func NewFontMeasurer(cacheSize int) (*FontMeasurer, error) {
	fs, err := goFonts()
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[widthKey, float64](max(cacheSize, 1))
	if err != nil {
		return nil, fmt.Errorf("unable to create width cache: %w", err)
	}
	return &FontMeasurer{fonts: fs, cache: cache, faces: make(map[faceKey]font.Face)}, nil
}

func (m *FontMeasurer) Width(text string, f model.Font) float64 {
	if text == "" || f.Size <= 0 {
		return 0
	}
	key := widthKey{text: text, face: keyOf(f)}
	if w, ok := m.cache.Get(key); ok {
		return w
	}

	m.mu.Lock()
	face, err := m.face(key.face)
	var w float64
	if err == nil {
		w = float64(font.MeasureString(face, text)) / 64
	} else {
		// should not happen with embedded fonts, fall back to rough estimate
		w = EstimateMeasurer{Factor: 0.55}.Width(text, f)
	}
	m.mu.Unlock()

	m.cache.Add(key, w)
	return w
}

func (m *FontMeasurer) face(k faceKey) (font.Face, error) {
	if face, ok := m.faces[k]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(m.fonts.pick(k), &opentype.FaceOptions{
		Size:    k.size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[k] = face
	return face, nil
}

// EstimateMeasurer assumes every glyph advances by Factor times font size.
// Deterministic and font independent, it is used when real fonts are not
// wanted.
type EstimateMeasurer struct {
	Factor float64
}

func (m EstimateMeasurer) Width(text string, f model.Font) float64 {
	return float64(utf8.RuneCountInString(text)) * f.Size * m.Factor
}
