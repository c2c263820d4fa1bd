package colorize

// Span is a colored half-open byte range [Start, End) of a line.
type Span struct {
	Start int
	End   int
	Color string
}

// Gather evaluates rules in order against line and returns the spans to
// color and whether the line should be emitted.
//
// A negative rule stops only its own evaluation; later rules still
// contribute spans. A line matched by any negative rule is never emitted.
func Gather(rules []Rule, line string, requiresMatch bool) ([]Span, bool) {
	var spans []Span
	matched := false
	negated := false

	for _, r := range rules {
		switch r.Kind {
		case KindNegative:
			if r.Pattern.MatchString(line) {
				negated = true
			}
		case KindMatch:
			for _, loc := range r.Pattern.FindAllStringIndex(line, -1) {
				matched = true
				spans = append(spans, Span{Start: loc[0], End: loc[1], Color: r.Color})
			}
		case KindHighlight:
			for _, loc := range r.Pattern.FindAllStringIndex(line, -1) {
				spans = append(spans, Span{Start: loc[0], End: loc[1], Color: r.Color})
			}
		}
	}

	emit := (!requiresMatch || matched) && !negated
	return spans, emit
}
