// Package model is the Bubble Tea console: a scrolling output pane, a
// command prompt and a status bar.
package model

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/petriborg/follow/pkg/commands"
	"github.com/petriborg/follow/pkg/engine"
)

// MaxLines is the number of output lines kept for scrollback.
const MaxLines = 5000

const prompt = ">>> "

// SourceLister reports the aggregator's sources for the status bar.
type SourceLister interface {
	Sources() []engine.SourceStatus
}

// App is the root Bubble Tea model.
type App struct {
	ctx        context.Context
	dispatcher *commands.Dispatcher
	sources    SourceLister
	sink       *Sink

	output viewport.Model
	input  textinput.Model
	lines  []string

	history []string
	histIdx int

	active    int
	statusMsg string
	width     int
	height    int
}

// New creates the console model.
func New(ctx context.Context, d *commands.Dispatcher, sources SourceLister, sink *Sink) App {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = "help"
	ti.CharLimit = 4096
	ti.Focus()

	return App{
		ctx:        ctx,
		dispatcher: d,
		sources:    sources,
		sink:       sink,
		output:     viewport.New(0, 0),
		input:      ti,
	}
}

// Run starts the console and blocks until the user quits or ctx ends.
func Run(ctx context.Context, d *commands.Dispatcher, sources SourceLister, sink *Sink) error {
	defer sink.Close()
	p := tea.NewProgram(New(ctx, d, sources, sink), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init starts waiting for lines.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.sink.wait(),
		textinput.Blink,
		tea.SetWindowTitle("follow"),
		tickCmd(),
	)
}

// tickMsg triggers a status bar refresh.
type tickMsg time.Time

// resultMsg carries the outcome of a console command.
type resultMsg struct {
	res commands.Result
	err error
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) executeCmd(line string) tea.Cmd {
	return func() tea.Msg {
		res, err := a.dispatcher.Execute(a.ctx, line)
		return resultMsg{res: res, err: err}
	}
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.output.Width = msg.Width
		a.output.Height = max(msg.Height-2, 1)
		a.input.Width = max(msg.Width-len(prompt)-1, 1)
		a.dispatcher.SetWidth(msg.Width)
		a.output.SetContent(strings.Join(a.lines, "\n"))
		a.output.GotoBottom()
		return a, nil

	case linesMsg:
		a.appendLines(msg...)
		return a, a.sink.wait()

	case tickMsg:
		a.active = countActive(a.sources)
		return a, tickCmd()

	case resultMsg:
		if msg.err != nil {
			a.statusMsg = "error: " + msg.err.Error()
			a.appendLines(errorStyle.Render(msg.err.Error()))
			return a, nil
		}
		if msg.res.Quit {
			return a, tea.Quit
		}
		a.statusMsg = ""
		if msg.res.Output != "" {
			a.appendLines(strings.Split(msg.res.Output, "\n")...)
		}
		a.active = countActive(a.sources)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+d":
		return a, tea.Quit

	case "enter":
		line := strings.TrimSpace(a.input.Value())
		a.input.Reset()
		a.histIdx = len(a.history)
		if line == "" {
			return a, nil
		}
		a.history = append(a.history, line)
		a.histIdx = len(a.history)
		a.appendLines(promptStyle.Render(prompt) + line)
		return a, a.executeCmd(line)

	case "tab":
		a.complete()
		return a, nil

	case "up":
		if a.histIdx > 0 {
			a.histIdx--
			a.input.SetValue(a.history[a.histIdx])
			a.input.CursorEnd()
		}
		return a, nil

	case "down":
		if a.histIdx < len(a.history)-1 {
			a.histIdx++
			a.input.SetValue(a.history[a.histIdx])
		} else {
			a.histIdx = len(a.history)
			a.input.Reset()
		}
		a.input.CursorEnd()
		return a, nil

	case "pgup":
		a.output.PageUp()
		return a, nil

	case "pgdown":
		a.output.PageDown()
		return a, nil

	case "end":
		if a.input.Value() == "" {
			a.output.GotoBottom()
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// complete expands the command name being typed.
func (a *App) complete() {
	value := a.input.Value()
	if strings.ContainsRune(value, ' ') {
		return
	}
	matches := a.dispatcher.Complete(value)
	switch len(matches) {
	case 0:
		a.statusMsg = "no completion"
	case 1:
		a.input.SetValue(matches[0] + " ")
		a.statusMsg = ""
	default:
		a.input.SetValue(commonPrefix(matches))
		a.statusMsg = strings.Join(matches, " ")
	}
	a.input.CursorEnd()
}

// appendLines adds output, trims scrollback and keeps following the tail
// unless the user has scrolled up.
func (a *App) appendLines(lines ...string) {
	follow := a.output.AtBottom()
	a.lines = append(a.lines, lines...)
	if len(a.lines) > MaxLines {
		a.lines = append(a.lines[:0:0], a.lines[len(a.lines)-MaxLines:]...)
	}
	a.output.SetContent(strings.Join(a.lines, "\n"))
	if follow {
		a.output.GotoBottom()
	}
}

func countActive(s SourceLister) int {
	if s == nil {
		return 0
	}
	n := 0
	for _, st := range s.Sources() {
		if st.State != engine.StateClosed {
			n++
		}
	}
	return n
}

func commonPrefix(words []string) string {
	if len(words) == 0 {
		return ""
	}
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
