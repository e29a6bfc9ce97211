// Package debug has helpers for human readable dumps of nested structures.
package debug

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Attr is a key=value pair printed after a node name.
type Attr struct {
	Key   string
	Value any
}

// A is shorthand for Attr{key, value}.
func A(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// TreeWriter accumulates indented lines, one node per line.
type TreeWriter struct {
	sb     strings.Builder
	indent string
}

// NewTreeWriter returns writer indenting every level by two spaces.
func NewTreeWriter() *TreeWriter {
	return &TreeWriter{indent: "  "}
}

func (tw *TreeWriter) String() string {
	return tw.sb.String()
}

// Line writes formatted line at depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(&tw.sb, format, args...)
	tw.sb.WriteByte('\n')
}

// Node writes name followed by attributes. Attributes holding zero values
// are left out.
func (tw *TreeWriter) Node(depth int, name string, attrs ...Attr) {
	tw.pad(depth)
	tw.sb.WriteString(name)
	for _, a := range attrs {
		if isZero(a.Value) {
			continue
		}
		tw.sb.WriteByte(' ')
		tw.sb.WriteString(a.Key)
		tw.sb.WriteByte('=')
		tw.sb.WriteString(formatValue(a.Value))
	}
	tw.sb.WriteByte('\n')
}

// Text writes label with quoted value, so control characters stay visible.
func (tw *TreeWriter) Text(depth int, label, value string) {
	tw.pad(depth)
	tw.sb.WriteString(label)
	tw.sb.WriteString(": ")
	tw.sb.WriteString(encodeText(value))
	tw.sb.WriteByte('\n')
}

func (tw *TreeWriter) pad(depth int) {
	for range depth {
		tw.sb.WriteString(tw.indent)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		if x == "" || strings.ContainsAny(x, " \t\n\"=") {
			return strconv.Quote(x)
		}
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	default:
		return rv.IsZero()
	}
}

func encodeText(s string) string {
	if s == "" {
		return `""`
	}
	return strconv.Quote(s)
}
