package manifest

import (
	"fmt"
	"sort"

	"github.com/petriborg/follow/pkg/colorize"
	"github.com/petriborg/follow/pkg/core"
)

// Manifest represents a follow configuration file.
type Manifest struct {
	Version int                 `yaml:"version"          toml:"version"          json:"version"`
	Colors  map[string]ColorDef `yaml:"colors,omitempty" toml:"colors,omitempty" json:"colors,omitempty"`
	Groups  map[string]Group    `yaml:"groups"           toml:"groups"           json:"groups"`
}

// ColorDef defines a named color as an SGR parameter list.
type ColorDef struct {
	SGR   string `yaml:"sgr"             toml:"sgr"             json:"sgr"`
	Short string `yaml:"short,omitempty" toml:"short,omitempty" json:"short,omitempty"`
}

// Group is a named set of sources and rules, selected with -z.
type Group struct {
	Colors  map[string]ColorDef `yaml:"colors,omitempty"  toml:"colors,omitempty"  json:"colors,omitempty"`
	Sources []Source            `yaml:"sources,omitempty" toml:"sources,omitempty" json:"sources,omitempty"`
	Rules   []Rule              `yaml:"rules,omitempty"   toml:"rules,omitempty"   json:"rules,omitempty"`
}

// Source is a source definition in the manifest.
type Source struct {
	Kind    string `yaml:"kind"              toml:"kind"              json:"kind"`
	Path    string `yaml:"path,omitempty"    toml:"path,omitempty"    json:"path,omitempty"`    // file, follow
	Lines   *int   `yaml:"lines,omitempty"   toml:"lines,omitempty"   json:"lines,omitempty"`   // follow, journal; nil means core.DefaultLines
	Unit    string `yaml:"unit,omitempty"    toml:"unit,omitempty"    json:"unit,omitempty"`    // journal
	Command string `yaml:"command,omitempty" toml:"command,omitempty" json:"command,omitempty"` // command
}

// Rule is a pattern rule definition in the manifest.
type Rule struct {
	Kind    string `yaml:"kind"            toml:"kind"            json:"kind"`
	Pattern string `yaml:"pattern"         toml:"pattern"         json:"pattern"`
	Color   string `yaml:"color,omitempty" toml:"color,omitempty" json:"color,omitempty"`
}

// Target returns the source's kind-specific target string.
func (s Source) Target() string {
	switch s.Kind {
	case string(core.KindJournal), "unit":
		return s.Unit
	case string(core.KindCommand), "run", "exec":
		return s.Command
	default:
		return s.Path
	}
}

// ToCore converts the definition into a core.Source.
func (s Source) ToCore() (core.Source, error) {
	kind, err := core.ParseSourceKind(s.Kind)
	if err != nil {
		return core.Source{}, err
	}
	target := s.Target()
	if kind == core.KindFile || kind == core.KindFollow {
		target = ExpandPath(target)
	}
	src := core.Source{Kind: kind, Target: target}
	switch {
	case s.Lines != nil:
		src.Lines = *s.Lines
	case kind == core.KindFollow || kind == core.KindJournal:
		src.Lines = core.DefaultLines
	}
	return src, nil
}

// ToRule compiles the definition into a colorize.Rule.
func (r Rule) ToRule() (colorize.Rule, error) {
	kind, err := colorize.ParseKind(r.Kind)
	if err != nil {
		return colorize.Rule{}, err
	}
	return colorize.NewRule(kind, r.Pattern, r.Color)
}

// ToColor converts the definition into a colorize.Color.
func (c ColorDef) ToColor(name string) (colorize.Color, error) {
	return colorize.ParseSGR(name, c.SGR, c.Short)
}

// GroupNames returns the defined group names, sorted.
func (m *Manifest) GroupNames() []string {
	names := make([]string, 0, len(m.Groups))
	for name := range m.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Selection is the resolved content of one or more groups.
type Selection struct {
	Colors  []colorize.Color
	Sources []core.Source
	Rules   []colorize.Rule
}

// Select resolves the named groups in order. Top-level colors are always included.
func (m *Manifest) Select(names ...string) (*Selection, error) {
	sel := &Selection{}

	addColors := func(defs map[string]ColorDef) error {
		keys := make([]string, 0, len(defs))
		for name := range defs {
			keys = append(keys, name)
		}
		sort.Strings(keys)
		for _, name := range keys {
			c, err := defs[name].ToColor(name)
			if err != nil {
				return err
			}
			sel.Colors = append(sel.Colors, c)
		}
		return nil
	}

	if err := addColors(m.Colors); err != nil {
		return nil, err
	}

	for _, name := range names {
		g, ok := m.Groups[name]
		if !ok {
			return nil, fmt.Errorf("unknown group %q", name)
		}
		if err := addColors(g.Colors); err != nil {
			return nil, fmt.Errorf("group %q: %w", name, err)
		}
		for i, s := range g.Sources {
			src, err := s.ToCore()
			if err != nil {
				return nil, fmt.Errorf("group %q source %d: %w", name, i, err)
			}
			sel.Sources = append(sel.Sources, src)
		}
		for i, r := range g.Rules {
			rule, err := r.ToRule()
			if err != nil {
				return nil, fmt.Errorf("group %q rule %d: %w", name, i, err)
			}
			sel.Rules = append(sel.Rules, rule)
		}
	}
	return sel, nil
}
