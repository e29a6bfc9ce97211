// Package frontmatter splits leading "---" delimited metadata block off a
// markdown document.
package frontmatter

import (
	"strings"

	yaml "gopkg.in/yaml.v3"

	"mdql/model"
)

const delimiter = "---"

// Extract returns ordered fields of leading front matter block and the rest
// of the document. When there is no complete block, or the block has no
// key/value pairs, the text is returned unchanged with empty front matter.
func Extract(text string) (model.FrontMatter, string) {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(normalized, delimiter+"\n") {
		return nil, text
	}

	rest := normalized[len(delimiter)+1:]
	var (
		lines []string
		pos   int
	)
	for {
		end := strings.IndexByte(rest[pos:], '\n')
		var line string
		if end < 0 {
			line = rest[pos:]
		} else {
			line = rest[pos : pos+end]
		}
		// at least one content line is required before closing delimiter
		if strings.TrimRight(line, " \t") == delimiter && len(lines) > 0 {
			fm := parse(lines)
			if len(fm) == 0 {
				// thematic breaks around ordinary text
				return nil, text
			}
			if end < 0 {
				return fm, ""
			}
			return fm, rest[pos+end+1:]
		}
		if end < 0 {
			// no closing delimiter
			return nil, text
		}
		lines = append(lines, line)
		pos += end + 1
	}
}

func parse(lines []string) model.FrontMatter {
	fm := make(model.FrontMatter, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '[' && value[len(value)-1] == ']' {
			value = strings.Join(listItems(value), ", ")
		} else {
			value = unquote(value)
		}
		fm = append(fm, model.Field{Key: key, Value: value})
	}
	return fm
}

// listItems decodes flow sequence. Anything yaml refuses is split on commas.
func listItems(value string) []string {
	var items []string
	if err := yaml.Unmarshal([]byte(value), &items); err == nil {
		out := items[:0]
		for _, it := range items {
			if it = strings.TrimSpace(it); it != "" {
				out = append(out, it)
			}
		}
		return out
	}

	var out []string
	for it := range strings.SplitSeq(value[1:len(value)-1], ",") {
		if it = unquote(strings.TrimSpace(it)); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// unquote strips a single layer of matching quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
