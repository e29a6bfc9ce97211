package preview

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TruncationNotice is appended to sources cut at the size limit.
func TruncationNotice(size int64) string {
	return fmt.Sprintf("\n\n---\n\nContent truncated (file is %s)", humanize.Bytes(uint64(max(size, 0))))
}

// Load reads markdown source of known size. Sources larger than limit are
// cut and get truncation notice appended. Result is always UTF-8.
func Load(r io.Reader, size, limit int64, log *zap.Logger) (string, error) {
	truncated := limit > 0 && size > limit
	if truncated {
		r = io.LimitReader(r, limit)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("unable to read source: %w", err)
	}

	text, enc, err := Decode(data)
	if err != nil {
		return "", err
	}
	log.Debug("Source decoded", zap.String("encoding", enc), zap.Int("bytes", len(data)))

	if truncated {
		if enc == "utf-8" {
			text = trimPartialRune(text)
		}
		text += TruncationNotice(size)
		log.Info("Source truncated", zap.String("size", humanize.Bytes(uint64(size))), zap.String("limit", humanize.Bytes(uint64(limit))))
	}
	return text, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts source bytes to UTF-8. Byte order mark wins, valid UTF-8
// is taken as is, otherwise encoding is guessed from content. Returns name
// of detected encoding.
func Decode(data []byte) (string, string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(data[len(utf8BOM):]), "utf-8", nil
	}
	if validUTF8(data) {
		return string(data), "utf-8", nil
	}
	e, name, _ := charset.DetermineEncoding(data, "text/plain")
	out, _, err := transform.Bytes(unicode.BOMOverride(e.NewDecoder()), data)
	if err != nil {
		return "", name, fmt.Errorf("unable to decode source as %s: %w", name, err)
	}
	return string(out), name, nil
}

// validUTF8 accepts incomplete sequence at the very end, it is left by
// cutting source at byte limit.
func validUTF8(data []byte) bool {
	if utf8.Valid(data) {
		return true
	}
	for k := 1; k < utf8.UTFMax && k <= len(data); k++ {
		tail := data[len(data)-k:]
		if utf8.RuneStart(tail[0]) && !utf8.FullRune(tail) {
			return utf8.Valid(data[:len(data)-k])
		}
	}
	return false
}

// trimPartialRune drops incomplete sequence left by cutting UTF-8 text at
// byte limit.
func trimPartialRune(s string) string {
	for i := 0; i < utf8.UTFMax-1 && len(s) > 0; i++ {
		r, n := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || n > 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
