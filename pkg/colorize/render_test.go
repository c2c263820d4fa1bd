package colorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reset = "\x1b[39;49;00m"

func TestDefaultColors(t *testing.T) {
	table := DefaultColors()

	tests := []struct {
		name   string
		escape string
	}{
		{"darkred", "\x1b[31m"},
		{"red", "\x1b[31;01m"},
		{"lightgray", "\x1b[37m"},
		{"turquoise", "\x1b[36;01m"},
		{"darkteal", "\x1b[36;01m"},
		{"cyan", "\x1b[36m"},
		{"white", "\x1b[01m"},
		{"underline", "\x1b[04m"},
		{"plain", ""},
		{"reset", reset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := table.Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.escape, c.Escape)
		})
	}

	for short, name := range map[string]string{"g": "green", "r": "red", "b": "blue", "y": "yellow", "e": "plain", "v": "negative"} {
		c, ok := table.ByShort(short)
		require.True(t, ok, short)
		assert.Equal(t, name, c.Name)
	}
}

func TestParseSGR(t *testing.T) {
	c, err := ParseSGR("orange", "38;5;208", "o")
	require.NoError(t, err)
	assert.Equal(t, "\x1b[38;05;208m", c.Escape)
	assert.Equal(t, "o", c.Short)

	_, err = ParseSGR("bad", "38;x", "")
	assert.Error(t, err)
	_, err = ParseSGR("", "1", "")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	table := DefaultColors()
	segs := []Segment{{"red", "err"}, {"plain", " ok"}}
	got := Render(segs, table)
	assert.Equal(t, "\x1b[31;01merr"+reset+" ok"+reset, got)
}

func TestRenderUnknownColorFallsBackToReset(t *testing.T) {
	got := Render([]Segment{{"nosuchcolor", "x"}}, DefaultColors())
	assert.Equal(t, reset+"x"+reset, got)
}

func TestRenderDisabled(t *testing.T) {
	table := DefaultColors().Disabled()
	got := Render([]Segment{{"red", "a"}, {"blue", "b"}}, table)
	assert.Equal(t, "ab", got)
	assert.False(t, table.Enabled())
	assert.True(t, DefaultColors().Enabled())
}

func TestTableCloneIsIndependent(t *testing.T) {
	base := DefaultColors()
	clone := base.Clone()
	clone.Add(Color{Name: "orange", Escape: "\x1b[38;05;208m"})
	assert.True(t, clone.Has("orange"))
	assert.False(t, base.Has("orange"))
}

func TestLine(t *testing.T) {
	rules := []Rule{MustRule(KindMatch, "ERR", "red"), MustRule(KindNegative, "ignore", "")}
	table := DefaultColors().Disabled()

	out, emit := Line(rules, true, table, "ERR disk")
	assert.True(t, emit)
	assert.Equal(t, "ERR disk", out)

	_, emit = Line(rules, true, table, "ERR ignore me")
	assert.False(t, emit)

	_, emit = Line(rules, true, table, "all good")
	assert.False(t, emit)
}

func TestSetMode(t *testing.T) {
	_, err := SetMode("sometimes")
	assert.Error(t, err)

	on, err := SetMode("never")
	require.NoError(t, err)
	assert.False(t, on)

	on, err = SetMode("always")
	require.NoError(t, err)
	assert.True(t, on)
}
