package preprocess

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Stats counts rewrites by kind.
type Stats struct {
	Images     int
	Tasks      int
	SoftBreaks int
}

var (
	imageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	// optional blockquote prefix, bullet or ordinal, checkbox
	taskRe = regexp.MustCompile(`^((?:[ \t]*>)*[ \t]*)([-*+]|[0-9]{1,9}[.)])[ \t]+\[([ \t]+|[ \t]*[xX][ \t]*)\]([ \t]+|$)`)
)

// Apply runs all rewrites in required order: task list and image markers
// first, blockquote soft breaks after. Applying it to its own output changes
// nothing.
func Apply(text string) (string, Stats) {
	var st Stats
	text = rewriteLines(text, func(line string) string {
		line, ok := rewriteTask(line)
		if ok {
			st.Tasks++
		}
		line, n := rewriteImages(line)
		st.Images += n
		return line
	})
	text, st.SoftBreaks = hardenQuoteBreaks(text)
	return text, st
}

// rewriteLines applies fn to every line outside of fenced and indented code.
func rewriteLines(text string, fn func(string) string) string {
	lines := strings.Split(text, "\n")
	var fence fenceTracker
	code := codeTracker{blank: true}
	for i, line := range lines {
		if fence.open == 0 && code.step(line) {
			continue
		}
		if fence.step(line) {
			code.blank = true
			continue
		}
		lines[i] = fn(line)
	}
	return strings.Join(lines, "\n")
}

func rewriteTask(line string) (string, bool) {
	m := taskRe.FindStringSubmatchIndex(line)
	if m == nil {
		return line, false
	}
	marker := UncheckedMarker
	if strings.TrimSpace(line[m[6]:m[7]]) != "" {
		marker = CheckedMarker
	}
	var sb strings.Builder
	sb.WriteString(line[:m[5]])
	sb.WriteByte(' ')
	sb.WriteString(marker)
	if m[1] < len(line) {
		sb.WriteByte(' ')
	}
	sb.WriteString(line[m[1]:])
	return sb.String(), true
}

// rewriteImages replaces image syntax outside of code spans.
func rewriteImages(line string) (string, int) {
	n := 0
	replace := func(text string) string {
		return imageRe.ReplaceAllStringFunc(text, func(s string) string {
			n++
			m := imageRe.FindStringSubmatch(s)
			return EncodeImage(ImageName(m[2]))
		})
	}

	var sb strings.Builder
	last := 0
	for _, span := range codeSpans(line) {
		sb.WriteString(replace(line[last:span[0]]))
		sb.WriteString(line[span[0]:span[1]])
		last = span[1]
	}
	sb.WriteString(replace(line[last:]))
	return sb.String(), n
}

// codeSpans returns byte ranges of inline code spans in line, including
// backtick delimiters. Opening run without closing run of the same length
// is literal text.
func codeSpans(line string) [][2]int {
	var spans [][2]int
	for i := 0; i < len(line); {
		if line[i] != '`' {
			i++
			continue
		}
		start := i
		for i < len(line) && line[i] == '`' {
			i++
		}
		width := i - start
		end := -1
		for j := i; j < len(line); {
			if line[j] != '`' {
				j++
				continue
			}
			k := j
			for k < len(line) && line[k] == '`' {
				k++
			}
			if k-j == width {
				end = k
				break
			}
			j = k
		}
		if end < 0 {
			continue
		}
		spans = append(spans, [2]int{start, end})
		i = end
	}
	return spans
}

// ImageName returns last path component of image destination, title and
// query are dropped.
func ImageName(dest string) string {
	dest = strings.TrimSpace(dest)
	if fields := strings.Fields(dest); len(fields) > 0 {
		dest = fields[0]
	}
	dest = strings.TrimSuffix(strings.TrimPrefix(dest, "<"), ">")
	p := dest
	if u, err := url.Parse(dest); err == nil && u.Path != "" {
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" || name == "" {
		return dest
	}
	return name
}

// hardenQuoteBreaks turns soft breaks between two consecutive non-empty
// blockquote lines into hard breaks.
func hardenQuoteBreaks(text string) (string, int) {
	lines := strings.Split(text, "\n")
	var (
		fence fenceTracker
		n     int
	)
	for i := 0; i < len(lines)-1; i++ {
		if fence.step(lines[i]) {
			continue
		}
		cur, okCur := quoteContent(lines[i])
		next, okNext := quoteContent(lines[i+1])
		if !okCur || !okNext || strings.TrimSpace(cur) == "" || strings.TrimSpace(next) == "" {
			continue
		}
		if isFence(cur) || isFence(next) {
			// fence boundaries inside blockquote
			continue
		}
		if strings.HasSuffix(lines[i], "  ") || strings.HasSuffix(lines[i], "\\") {
			continue
		}
		lines[i] += "  "
		n++
	}
	return strings.Join(lines, "\n"), n
}

// quoteContent strips blockquote markers, ok is false for lines which are
// not inside blockquote.
func quoteContent(line string) (string, bool) {
	s := strings.TrimLeft(line, " ")
	if len(line)-len(s) > 3 || !strings.HasPrefix(s, ">") {
		return "", false
	}
	for strings.HasPrefix(s, ">") {
		s = strings.TrimLeft(s[1:], " \t")
	}
	return s, true
}

func isFence(s string) bool {
	s = strings.TrimLeft(s, " \t")
	return strings.HasPrefix(s, "```") || strings.HasPrefix(s, "~~~")
}

// fenceTracker follows fenced code blocks line by line, blockquote markers
// are looked through. Closing fence must use the opening character.
type fenceTracker struct {
	open byte
}

// step consumes a line and reports whether it belongs to fenced code,
// including fence lines themselves.
func (f *fenceTracker) step(line string) bool {
	s := line
	if c, ok := quoteContent(line); ok {
		s = c
	}
	s = strings.TrimLeft(s, " \t")
	if !isFence(s) {
		return f.open != 0
	}
	if f.open == 0 {
		f.open = s[0]
		return true
	}
	if s[0] == f.open {
		f.open = 0
	}
	return true
}

var listMarkerRe = regexp.MustCompile(`^([-*+]|[0-9]{1,9}[.)])([ \t]+|$)`)

// codeTracker follows indented code blocks line by line. Indented code starts
// after a blank line or a fence with at least four columns of indentation
// beyond content column of enclosing list item. Lines of blockquotes are not
// looked into.
type codeTracker struct {
	blank  bool
	inCode bool
	// content columns of open list items, innermost last
	items []int
}

func (c *codeTracker) base() int {
	if len(c.items) == 0 {
		return 0
	}
	return c.items[len(c.items)-1]
}

// step consumes a line and reports whether it belongs to indented code.
func (c *codeTracker) step(line string) bool {
	if strings.TrimSpace(line) == "" {
		c.blank = true
		return false
	}
	indent, rest := indentation(line)
	if c.inCode {
		if indent >= c.base()+4 {
			return true
		}
		c.inCode = false
	}
	if c.blank && indent >= c.base()+4 {
		c.blank, c.inCode = false, true
		return true
	}

	prevBlank := c.blank
	c.blank = false
	if strings.HasPrefix(rest, ">") {
		return false
	}
	if m := listMarkerRe.FindStringSubmatch(rest); m != nil {
		for len(c.items) > 0 && indent < c.base() {
			c.items = c.items[:len(c.items)-1]
		}
		gap := len(m[2])
		if gap == 0 || gap > 4 {
			gap = 1
		}
		c.items = append(c.items, indent+len(m[1])+gap)
		return false
	}
	if prevBlank {
		for len(c.items) > 0 && indent < c.base() {
			c.items = c.items[:len(c.items)-1]
		}
	}
	return false
}

// indentation returns leading whitespace width in columns (tab stops of 4)
// and the rest of the line.
func indentation(line string) (int, string) {
	col := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			col++
		case '\t':
			col += 4 - col%4
		default:
			return col, line[i:]
		}
	}
	return col, ""
}
