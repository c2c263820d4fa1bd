package commands

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
)

const minDocWidth = 20

// Columns lays rows out as a two column table no wider than width. The
// second column is word wrapped and continuation lines are indented to
// line up with it.
func Columns(rows [][2]string, width int) string {
	left := 0
	for _, r := range rows {
		left = max(left, runewidth.StringWidth(r[0]))
	}
	left += 2

	docWidth := max(width-left, minDocWidth)
	indent := strings.Repeat(" ", left)

	var b strings.Builder
	for _, r := range rows {
		doc := wordwrap.String(r[1], docWidth)
		for i, line := range strings.Split(doc, "\n") {
			prefix := indent
			if i == 0 {
				prefix = runewidth.FillRight(r[0], left)
			}
			b.WriteString(strings.TrimRight(prefix+line, " "))
			b.WriteByte('\n')
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
