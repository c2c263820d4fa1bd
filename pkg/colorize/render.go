package colorize

import "strings"

// Render concatenates every segment wrapped in its color escape and a reset.
// Unknown colors render with the reset escape.
func Render(segments []Segment, table *Table) string {
	var b strings.Builder
	reset := table.Reset()
	for _, seg := range segments {
		b.WriteString(table.Escape(seg.Color))
		b.WriteString(seg.Text)
		b.WriteString(reset)
	}
	return b.String()
}

// Line runs the full pipeline for one line: gather, colorize and render.
// The rendered string is empty when emit is false.
func Line(rules []Rule, requiresMatch bool, table *Table, line string) (rendered string, emit bool) {
	spans, emit := Gather(rules, line, requiresMatch)
	if !emit {
		return "", false
	}
	return Render(Colorize(spans, line), table), true
}
