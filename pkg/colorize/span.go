package colorize

import "sort"

// Segment is one contiguous, single-color piece of a line.
type Segment struct {
	Color string
	Text  string
}

// Colorize partitions line into segments according to spans.
//
// Spans are ordered by start ascending, then end descending, then input
// order. At every offset the last span in that order that covers the
// offset wins; uncovered text is plain. Segments are never merged by
// color and no empty segments are produced.
func Colorize(spans []Span, line string) []Segment {
	sorted := make([]Span, 0, len(spans))
	for _, s := range spans {
		s.Start = clamp(s.Start, 0, len(line))
		s.End = clamp(s.End, 0, len(line))
		if s.End <= s.Start {
			continue
		}
		sorted = append(sorted, s)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	var (
		segments []Segment
		stack    []Span
		pos      int
		next     int
	)
	for {
		for len(stack) > 0 && stack[len(stack)-1].End <= pos {
			stack = stack[:len(stack)-1]
		}
		for next < len(sorted) && sorted[next].Start <= pos {
			if sorted[next].End > pos {
				stack = append(stack, sorted[next])
			}
			next++
		}
		if pos >= len(line) {
			break
		}

		end := len(line)
		colorName := ColorPlain
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			end = top.End
			colorName = top.Color
		}
		if next < len(sorted) && sorted[next].Start < end {
			end = sorted[next].Start
		}

		segments = append(segments, Segment{Color: colorName, Text: line[pos:end]})
		pos = end
	}
	return segments
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
