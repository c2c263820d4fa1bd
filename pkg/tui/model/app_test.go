package model

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petriborg/follow/pkg/commands"
	"github.com/petriborg/follow/pkg/core"
	"github.com/petriborg/follow/pkg/engine"
	"github.com/petriborg/follow/pkg/session"
)

type staticSources []engine.SourceStatus

func (s staticSources) Sources() []engine.SourceStatus { return s }

func newTestApp(t *testing.T) (App, *session.Config) {
	t.Helper()
	cfg := session.New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sources := staticSources{
		{ID: "follow:/a", State: engine.StateReading},
		{ID: "file:/b", State: engine.StateClosed},
	}
	app := New(context.Background(), commands.New(cfg, nil), sources, NewSink())
	m, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return m.(App), cfg
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func TestEnterRunsCommand(t *testing.T) {
	app, cfg := newTestApp(t)
	app.input.SetValue("highlight err red")

	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, "", app.input.Value())
	assert.Equal(t, []string{"highlight err red"}, app.history)

	app, _ = update(t, app, cmd())
	require.Len(t, cfg.Rules(), 1)
	assert.Contains(t, strings.Join(app.lines, "\n"), `added highlight "err" red`)
	assert.Equal(t, 1, app.active)
}

func TestCommandErrorShownInStatus(t *testing.T) {
	app, _ := newTestApp(t)
	app.input.SetValue("bogus")
	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	app, _ = update(t, app, cmd())
	assert.Contains(t, app.statusMsg, "unknown command")
}

func TestQuitCommand(t *testing.T) {
	app, _ := newTestApp(t)
	app.input.SetValue("quit")
	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd = update(t, app, cmd())
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestHistoryNavigation(t *testing.T) {
	app, _ := newTestApp(t)
	app.history = []string{"list", "clear"}
	app.histIdx = 2

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "clear", app.input.Value())
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "list", app.input.Value())
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "list", app.input.Value())
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "clear", app.input.Value())
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "", app.input.Value())
}

func TestTabCompletion(t *testing.T) {
	app, _ := newTestApp(t)

	app.input.SetValue("hi")
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "highlight ", app.input.Value())

	app.input.SetValue("cl")
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "cl", app.input.Value())
	assert.Equal(t, "clear close", app.statusMsg)
}

func TestLinesAreTrimmedToScrollback(t *testing.T) {
	app, _ := newTestApp(t)
	batch := make(linesMsg, MaxLines+10)
	for i := range batch {
		batch[i] = "x"
	}
	batch[len(batch)-1] = "last"

	app, cmd := update(t, app, batch)
	assert.NotNil(t, cmd)
	assert.Len(t, app.lines, MaxLines)
	assert.Equal(t, "last", app.lines[MaxLines-1])
	assert.True(t, app.output.AtBottom())
	assert.Contains(t, app.View(), "last")
}

func TestSinkEmitAndClose(t *testing.T) {
	s := NewSink()
	require.NoError(t, s.Emit(core.TimestampedLine{Rendered: "one"}))
	_, _ = s.Write([]byte("level=INFO msg=hi\n"))

	msg := s.wait()()
	batch, ok := msg.(linesMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)
	assert.Contains(t, batch, "one")

	s.Close()
	s.Close()
	assert.ErrorIs(t, s.Emit(core.TimestampedLine{Rendered: "late"}), engine.ErrSinkClosed)
	assert.Nil(t, s.wait()())
}

func TestSinkEmitTimesOutWhenFull(t *testing.T) {
	s := NewSink()
	for i := 0; i < cap(s.lines); i++ {
		s.lines <- "fill"
	}
	start := time.Now()
	err := s.Emit(core.TimestampedLine{Rendered: "overflow"})
	assert.ErrorIs(t, err, errConsoleBusy)
	assert.GreaterOrEqual(t, time.Since(start), emitTimeout)
}

func TestSinkWriteNeverBlocks(t *testing.T) {
	s := NewSink()
	for i := 0; i < cap(s.logs)+10; i++ {
		n, err := s.Write([]byte("x\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, "cl", commonPrefix([]string{"clear", "close"}))
	assert.Equal(t, "", commonPrefix([]string{"a", "b"}))
	assert.Equal(t, "only", commonPrefix([]string{"only"}))
}
