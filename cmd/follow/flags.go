package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/petriborg/follow/pkg/colorize"
	"github.com/petriborg/follow/pkg/session"
)

// cliRule is a rule given on the command line, compiled once the color
// table is known.
type cliRule struct {
	kind    colorize.Kind
	color   string
	pattern string
}

// ruleFlag appends to a slice shared by every rule flag so that rules keep
// their command-line order.
type ruleFlag struct {
	rules *[]cliRule
	kind  colorize.Kind
	color string
	pair  bool // value is COLOR=PATTERN
}

func (f *ruleFlag) String() string { return "" }

func (f *ruleFlag) Type() string {
	if f.pair {
		return "COLOR=PTRN"
	}
	return "PTRN"
}

func (f *ruleFlag) Set(v string) error {
	r := cliRule{kind: f.kind, color: f.color, pattern: v}
	if f.pair {
		color, pattern, ok := strings.Cut(v, "=")
		if !ok || color == "" || pattern == "" {
			return fmt.Errorf("expected COLOR=PATTERN, got %q", v)
		}
		r.color, r.pattern = color, pattern
	}
	*f.rules = append(*f.rules, r)
	return nil
}

var shortColors = []struct{ short, color string }{
	{"g", "green"},
	{"r", "red"},
	{"b", "blue"},
	{"y", "yellow"},
}

func registerRuleFlags(fs *pflag.FlagSet, rules *[]cliRule) {
	fs.VarP(&ruleFlag{rules: rules, kind: colorize.KindMatch, color: colorize.ColorPlain}, "pattern", "e", "only show lines matching PTRN")
	fs.VarP(&ruleFlag{rules: rules, kind: colorize.KindNegative}, "exclude", "v", "hide lines matching PTRN")
	for _, c := range shortColors {
		fs.VarP(&ruleFlag{rules: rules, kind: colorize.KindMatch, color: c.color}, "match-"+c.color, c.short,
			"only show lines matching PTRN, colored "+c.color)
		fs.VarP(&ruleFlag{rules: rules, kind: colorize.KindHighlight, color: c.color}, "highlight-"+c.color, strings.ToUpper(c.short),
			"color PTRN "+c.color)
	}
	fs.Var(&ruleFlag{rules: rules, kind: colorize.KindMatch, pair: true}, "match", "only show lines matching PTRN, colored COLOR")
	fs.Var(&ruleFlag{rules: rules, kind: colorize.KindHighlight, pair: true}, "highlight", "color PTRN with COLOR")
}

// applyRules compiles rules against the config's color table.
func applyRules(cfg *session.Config, rules []cliRule) error {
	for _, r := range rules {
		color := r.color
		if c, ok := cfg.Colors().ByShort(color); ok && !cfg.Colors().Has(color) {
			color = c.Name
		}
		rule, err := colorize.NewRule(r.kind, r.pattern, color)
		if err != nil {
			return err
		}
		if err := cfg.AddRule(rule); err != nil {
			return err
		}
	}
	return nil
}
