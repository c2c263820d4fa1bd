package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petriborg/follow/pkg/colorize"
	"github.com/petriborg/follow/pkg/core"
	"github.com/petriborg/follow/pkg/engine"
	"github.com/petriborg/follow/pkg/session"
)

type fakeController struct {
	added   []core.Source
	removed []string
}

func (f *fakeController) Add(src core.Source) error {
	for _, s := range f.added {
		if s.ID() == src.ID() {
			return engine.ErrDuplicateSource
		}
	}
	f.added = append(f.added, src)
	return nil
}

func (f *fakeController) Remove(_ context.Context, id string) error {
	for i, s := range f.added {
		if s.ID() == id {
			f.added = append(f.added[:i], f.added[i+1:]...)
			f.removed = append(f.removed, id)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", engine.ErrUnknownSource, id)
}

func (f *fakeController) Sources() []engine.SourceStatus {
	out := make([]engine.SourceStatus, len(f.added))
	for i, s := range f.added {
		out[i] = engine.SourceStatus{ID: s.ID(), Kind: string(s.Kind), State: engine.StateReading, Lines: 3}
	}
	return out
}

func setup(t *testing.T) (*Dispatcher, *session.Config, *fakeController) {
	t.Helper()
	cfg := session.New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctl := &fakeController{}
	cfg.Attach(ctl)
	return New(cfg, ctl), cfg, ctl
}

func exec(t *testing.T, d *Dispatcher, line string) Result {
	t.Helper()
	res, err := d.Execute(context.Background(), line)
	require.NoError(t, err, line)
	return res
}

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		name string
		args []string
		rest string
	}{
		{"", "", nil, ""},
		{"   ", "", nil, ""},
		{"tail -n 5 /var/log/x", "tail", []string{"-n", "5", "/var/log/x"}, "-n 5 /var/log/x"},
		{"?", "help", []string{}, ""},
		{"run  ls -l  /tmp ", "run", []string{"ls", "-l", "/tmp"}, "ls -l  /tmp"},
	}
	for _, tt := range tests {
		name, args, rest := Parse(tt.line)
		assert.Equal(t, tt.name, name, tt.line)
		if tt.args != nil {
			assert.Equal(t, tt.args, args, tt.line)
		}
		assert.Equal(t, tt.rest, rest, tt.line)
	}
}

func TestSourceCommands(t *testing.T) {
	d, _, ctl := setup(t)

	exec(t, d, "tail /var/log/syslog")
	exec(t, d, "follow -n 50 admin@db1:/var/log/postgres.log")
	exec(t, d, "cat /etc/hosts")
	exec(t, d, "journal sshd.service 20")
	exec(t, d, "run journalctl -f | grep -v CRON")

	require.Len(t, ctl.added, 5)
	assert.Equal(t, core.Source{Kind: core.KindFollow, Target: "/var/log/syslog", Lines: core.DefaultLines}, ctl.added[0])
	assert.Equal(t, core.Source{Kind: core.KindFollow, Target: "admin@db1:/var/log/postgres.log", Lines: 50}, ctl.added[1])
	assert.Equal(t, core.Source{Kind: core.KindFile, Target: "/etc/hosts"}, ctl.added[2])
	assert.Equal(t, core.Source{Kind: core.KindJournal, Target: "sshd.service", Lines: 20}, ctl.added[3])
	assert.Equal(t, core.Source{Kind: core.KindCommand, Target: "journalctl -f | grep -v CRON"}, ctl.added[4])
}

func TestSourceCommandLineCounts(t *testing.T) {
	d, _, ctl := setup(t)

	exec(t, d, "tail -n 0 /var/log/a")
	exec(t, d, "tail -n0 /var/log/b")
	exec(t, d, "journal cron.service")
	exec(t, d, "journal nginx.service 0")

	require.Len(t, ctl.added, 4)
	assert.Equal(t, 0, ctl.added[0].Lines)
	assert.Equal(t, 0, ctl.added[1].Lines)
	assert.Equal(t, core.DefaultLines, ctl.added[2].Lines)
	assert.Equal(t, 0, ctl.added[3].Lines)
}

func TestSourceCommandErrors(t *testing.T) {
	d, _, _ := setup(t)
	for _, line := range []string{"tail", "tail -n", "tail -n x /f", "open", "journal", "journal u x", "run"} {
		_, err := d.Execute(context.Background(), line)
		assert.Error(t, err, line)
	}

	_, err := d.Execute(context.Background(), "tail")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "tail [-n N]")
}

func TestRuleCommands(t *testing.T) {
	d, cfg, _ := setup(t)

	exec(t, d, "match error")
	exec(t, d, "match warn y")
	exec(t, d, "highlight ssh.* blue")
	exec(t, d, "nmatch CRON")

	rules := cfg.Rules()
	require.Len(t, rules, 4)
	assert.Equal(t, colorize.KindMatch, rules[0].Kind)
	assert.Equal(t, colorize.ColorPlain, rules[0].Color)
	assert.Equal(t, "yellow", rules[1].Color)
	assert.Equal(t, colorize.KindHighlight, rules[2].Kind)
	assert.Equal(t, colorize.KindNegative, rules[3].Kind)
	assert.True(t, cfg.Snapshot().RequiresMatch)

	exec(t, d, "clear")
	assert.Empty(t, cfg.Rules())
	assert.False(t, cfg.Snapshot().RequiresMatch)
}

func TestRuleCommandErrors(t *testing.T) {
	d, cfg, _ := setup(t)

	_, err := d.Execute(context.Background(), "highlight onlypattern")
	assert.ErrorIs(t, err, ErrUsage)

	_, err = d.Execute(context.Background(), "match x nosuchcolor")
	assert.ErrorContains(t, err, "unknown color")

	_, err = d.Execute(context.Background(), "match (")
	var compileErr *colorize.PatternCompileError
	assert.ErrorAs(t, err, &compileErr)

	assert.Empty(t, cfg.Rules())
}

func TestColorCommand(t *testing.T) {
	d, cfg, _ := setup(t)
	exec(t, d, "color orange 38;5;208 o")

	c, ok := cfg.Colors().Lookup("orange")
	require.True(t, ok)
	assert.Equal(t, "\x1b[38;05;208m", c.Escape)

	exec(t, d, "highlight boot o")
	assert.Equal(t, "orange", cfg.Rules()[0].Color)

	_, err := d.Execute(context.Background(), "color bad 1;x")
	assert.Error(t, err)
}

func TestRemoveCommand(t *testing.T) {
	d, _, ctl := setup(t)
	exec(t, d, "tail /var/log/a")
	exec(t, d, "open /var/log/b")

	res := exec(t, d, "remove follow:/var/log/a")
	assert.Equal(t, "removed follow:/var/log/a", res.Output)

	res = exec(t, d, "close /var/log/b")
	assert.Equal(t, "removed file:/var/log/b", res.Output)
	assert.Equal(t, []string{"follow:/var/log/a", "file:/var/log/b"}, ctl.removed)

	_, err := d.Execute(context.Background(), "remove /nope")
	assert.ErrorIs(t, err, engine.ErrUnknownSource)
}

func TestListCommand(t *testing.T) {
	d, _, _ := setup(t)
	exec(t, d, "tail /var/log/a")
	exec(t, d, "highlight err red")

	out := exec(t, d, "list").Output
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "follow:/var/log/a")
	assert.Contains(t, out, "reading")
	assert.Contains(t, out, `1. highlight "err" red`)

	out = exec(t, d, "list colors").Output
	assert.Contains(t, out, "Colors:")
	assert.Contains(t, out, "(g)")
	assert.NotContains(t, out, "reset")

	_, err := d.Execute(context.Background(), "list nonsense")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestUnknownCommand(t *testing.T) {
	d, _, _ := setup(t)
	_, err := d.Execute(context.Background(), "frobnicate now")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, err.Error(), "frobnicate")

	res, err := d.Execute(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestQuitAndHelp(t *testing.T) {
	d, _, _ := setup(t)
	assert.True(t, exec(t, d, "quit").Quit)
	assert.True(t, exec(t, d, "exit").Quit)

	d.SetWidth(60)
	out := exec(t, d, "?").Output
	assert.True(t, strings.HasPrefix(out, "Commands:"))
	assert.Contains(t, out, "Aliases: follow.")
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 60, line)
	}
}

func TestComplete(t *testing.T) {
	d, _, _ := setup(t)
	assert.Equal(t, []string{"cat", "clear", "close", "color"}, d.Complete("c"))
	assert.Equal(t, []string{"negative", "nmatch"}, d.Complete("n"))
	assert.Empty(t, d.Complete("zzz"))
}

func TestColumns(t *testing.T) {
	out := Columns([][2]string{
		{"a", "short"},
		{"longer", "one two three four five six"},
	}, 20)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "a       short", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "longer  one"))
	for _, l := range lines[2:] {
		assert.True(t, strings.HasPrefix(l, "        "), l)
	}
}
