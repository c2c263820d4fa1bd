package colorize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Names with special meaning in a color table.
const (
	ColorPlain    = "plain"
	ColorNegative = "negative"
	ColorReset    = "reset"
)

// Color is a named escape sequence.
type Color struct {
	Name   string `json:"name"`
	Short  string `json:"short,omitempty"`
	Escape string `json:"-"`
}

func sgr(attrs ...color.Attribute) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = fmt.Sprintf("%02d", int(a))
	}
	return "\x1b[" + strings.Join(parts, ";") + "m"
}

// ParseSGR builds a color from a semicolon separated SGR parameter list such as "38;5;208".
func ParseSGR(name, params, short string) (Color, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Color{}, fmt.Errorf("color name is required")
	}
	fields := strings.Split(strings.TrimSpace(params), ";")
	attrs := make([]color.Attribute, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 0 || n > 255 {
			return Color{}, fmt.Errorf("color %q: invalid SGR parameter %q", name, f)
		}
		attrs = append(attrs, color.Attribute(n))
	}
	return Color{Name: name, Short: short, Escape: sgr(attrs...)}, nil
}

// Table maps color names to escapes. A Table is not safe for concurrent
// mutation; Clone before adding to a table that is being read.
type Table struct {
	colors   map[string]Color
	disabled bool
}

// NewTable creates an empty table containing only plain, negative and reset.
func NewTable() *Table {
	t := &Table{colors: make(map[string]Color)}
	t.Add(Color{Name: ColorPlain, Short: "e"})
	t.Add(Color{Name: ColorNegative, Short: "v"})
	t.Add(Color{Name: ColorReset, Escape: "\x1b[39;49;00m"})
	return t
}

// DefaultColors returns the standard 16 color palette plus attributes and aliases.
func DefaultColors() *Table {
	t := NewTable()

	attrs := []struct {
		name string
		attr color.Attribute
	}{
		{"bold", color.Bold},
		{"faint", color.Faint},
		{"standout", color.Italic},
		{"underline", color.Underline},
		{"blink", color.BlinkSlow},
		{"overline", color.BlinkRapid},
	}
	for _, a := range attrs {
		t.Add(Color{Name: a.name, Escape: sgr(a.attr)})
	}

	dark := []string{"black", "darkred", "darkgreen", "brown", "darkblue", "purple", "teal", "lightgray"}
	light := []string{"darkgray", "red", "green", "yellow", "blue", "fuchsia", "turquoise", "white"}
	for i := range dark {
		fg := color.FgBlack + color.Attribute(i)
		t.Add(Color{Name: dark[i], Escape: sgr(fg)})
		t.Add(Color{Name: light[i], Escape: sgr(fg, color.Bold)})
	}

	aliases := map[string]string{
		"darkteal":   "turquoise",
		"darkyellow": "brown",
		"fuscia":     "fuchsia",
		"white":      "bold",
		"magenta":    "purple",
		"cyan":       "teal",
	}
	for alias, target := range aliases {
		c := t.colors[target]
		t.Add(Color{Name: alias, Escape: c.Escape})
	}

	for name, short := range map[string]string{"green": "g", "red": "r", "blue": "b", "yellow": "y"} {
		c := t.colors[name]
		c.Short = short
		t.Add(c)
	}
	return t
}

// Add inserts or replaces a color.
func (t *Table) Add(c Color) {
	t.colors[c.Name] = c
}

// Lookup returns the named color.
func (t *Table) Lookup(name string) (Color, bool) {
	c, ok := t.colors[name]
	return c, ok
}

// Has reports whether name is defined.
func (t *Table) Has(name string) bool {
	_, ok := t.colors[name]
	return ok
}

// ByShort returns the color registered under a single-letter flag.
func (t *Table) ByShort(short string) (Color, bool) {
	for _, c := range t.colors {
		if c.Short != "" && c.Short == short {
			return c, true
		}
	}
	return Color{}, false
}

// Escape returns the escape for name, or the reset escape for unknown names.
func (t *Table) Escape(name string) string {
	if t.disabled {
		return ""
	}
	if c, ok := t.colors[name]; ok {
		return c.Escape
	}
	return t.colors[ColorReset].Escape
}

// Reset returns the reset escape.
func (t *Table) Reset() string {
	return t.Escape(ColorReset)
}

// Colors returns all colors sorted by name.
func (t *Table) Colors() []Color {
	out := make([]Color, 0, len(t.colors))
	for _, c := range t.colors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	c := &Table{colors: make(map[string]Color, len(t.colors)), disabled: t.disabled}
	for k, v := range t.colors {
		c.colors[k] = v
	}
	return c
}

// Disabled returns a copy that renders no escapes.
func (t *Table) Disabled() *Table {
	c := t.Clone()
	c.disabled = true
	return c
}

// Enabled reports whether escapes are rendered.
func (t *Table) Enabled() bool {
	return !t.disabled
}

// SetMode applies a --color mode (auto, always, never) to the
// process-wide color state and returns whether colors are on.
func SetMode(mode string) (bool, error) {
	switch mode {
	case "", "auto":
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return false, fmt.Errorf("invalid color mode %q (want auto, always or never)", mode)
	}
	return !color.NoColor, nil
}

// Sample renders name in its own color, used when listing colors.
func (t *Table) Sample(name string) string {
	if t.disabled || color.NoColor {
		return name
	}
	return t.Escape(name) + name + t.Reset()
}
