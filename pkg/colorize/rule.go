// Package colorize evaluates pattern rules against a line and renders the
// resulting color spans as an escape-coded string.
package colorize

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the polarity of a rule.
type Kind int

const (
	// KindHighlight colors occurrences without affecting emission.
	KindHighlight Kind = iota
	// KindMatch colors occurrences and makes emission conditional on a match.
	KindMatch
	// KindNegative suppresses any line it matches.
	KindNegative
)

func (k Kind) String() string {
	switch k {
	case KindHighlight:
		return "highlight"
	case KindMatch:
		return "match"
	case KindNegative:
		return "negative"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a rule kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "highlight":
		return KindHighlight, nil
	case "match":
		return KindMatch, nil
	case "negative", "negativematch", "negative-match", "nmatch":
		return KindNegative, nil
	}
	return 0, fmt.Errorf("unknown rule kind %q", s)
}

// PatternCompileError reports a rule whose pattern is not a valid regular expression.
type PatternCompileError struct {
	Pattern string
	Err     error
}

func (e *PatternCompileError) Error() string {
	return fmt.Sprintf("compile pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternCompileError) Unwrap() error { return e.Err }

// Rule is an immutable compiled pattern with a color and polarity.
type Rule struct {
	Kind    Kind
	Pattern *regexp.Regexp
	Color   string
}

// NewRule compiles pattern into a rule.
func NewRule(kind Kind, pattern, colorName string) (Rule, error) {
	switch kind {
	case KindNegative:
		colorName = ColorNegative
	case KindMatch:
		if colorName == "" {
			colorName = ColorPlain
		}
	case KindHighlight:
		if colorName == "" {
			return Rule{}, fmt.Errorf("highlight %q: color is required", pattern)
		}
	default:
		return Rule{}, fmt.Errorf("unknown rule kind %v", kind)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, &PatternCompileError{Pattern: pattern, Err: err}
	}
	return Rule{Kind: kind, Pattern: re, Color: colorName}, nil
}

// MustRule is like NewRule but panics on error.
func MustRule(kind Kind, pattern, colorName string) Rule {
	r, err := NewRule(kind, pattern, colorName)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Rule) String() string {
	if r.Kind == KindNegative {
		return fmt.Sprintf("%s %q", r.Kind, r.Pattern.String())
	}
	return fmt.Sprintf("%s %q %s", r.Kind, r.Pattern.String(), r.Color)
}

// RequiresMatch reports whether any rule is a KindMatch rule.
func RequiresMatch(rules []Rule) bool {
	for _, r := range rules {
		if r.Kind == KindMatch {
			return true
		}
	}
	return false
}
