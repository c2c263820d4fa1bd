package manifest

import (
	"fmt"
	"sort"

	"github.com/petriborg/follow/pkg/colorize"
	"github.com/petriborg/follow/pkg/core"
)

// Validate checks the manifest for structural correctness.
func Validate(m *Manifest) []error {
	var errs []error

	if m.Version != 1 {
		errs = append(errs, fmt.Errorf("version must be 1, got %d", m.Version))
	}

	known := colorize.DefaultColors()
	for _, name := range sortedKeys(m.Colors) {
		if _, err := m.Colors[name].ToColor(name); err != nil {
			errs = append(errs, err)
			continue
		}
		known.Add(colorize.Color{Name: name})
	}

	for _, gname := range m.GroupNames() {
		g := m.Groups[gname]
		colors := known.Clone()
		for _, name := range sortedKeys(g.Colors) {
			if _, err := g.Colors[name].ToColor(name); err != nil {
				errs = append(errs, fmt.Errorf("group %q: %w", gname, err))
				continue
			}
			colors.Add(colorize.Color{Name: name})
		}

		if len(g.Sources) == 0 && len(g.Rules) == 0 {
			errs = append(errs, fmt.Errorf("group %q: must define at least one source or rule", gname))
		}

		for i, s := range g.Sources {
			kind, err := core.ParseSourceKind(s.Kind)
			switch {
			case s.Kind == "":
				errs = append(errs, fmt.Errorf("group %q source %d: kind is required", gname, i))
				continue
			case err != nil:
				errs = append(errs, fmt.Errorf("group %q source %d: unknown kind %q", gname, i, s.Kind))
				continue
			}
			switch kind {
			case core.KindFile, core.KindFollow:
				if s.Path == "" {
					errs = append(errs, fmt.Errorf("group %q source %d (%s): path is required", gname, i, kind))
				}
			case core.KindJournal:
				if s.Unit == "" {
					errs = append(errs, fmt.Errorf("group %q source %d (journal): unit is required", gname, i))
				}
			case core.KindCommand:
				if s.Command == "" {
					errs = append(errs, fmt.Errorf("group %q source %d (command): command is required", gname, i))
				}
			}
			if s.Lines != nil && *s.Lines < 0 {
				errs = append(errs, fmt.Errorf("group %q source %d: lines must not be negative", gname, i))
			}
		}

		for i, r := range g.Rules {
			if r.Pattern == "" {
				errs = append(errs, fmt.Errorf("group %q rule %d: pattern is required", gname, i))
				continue
			}
			rule, err := r.ToRule()
			if err != nil {
				errs = append(errs, fmt.Errorf("group %q rule %d: %w", gname, i, err))
				continue
			}
			if !colors.Has(rule.Color) {
				errs = append(errs, fmt.Errorf("group %q rule %d: unknown color %q", gname, i, rule.Color))
			}
		}
	}

	return errs
}

func sortedKeys(m map[string]ColorDef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
