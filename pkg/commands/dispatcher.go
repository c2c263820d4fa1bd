// Package commands implements the interactive console's command language.
package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/petriborg/follow/pkg/colorize"
	"github.com/petriborg/follow/pkg/core"
	"github.com/petriborg/follow/pkg/engine"
	"github.com/petriborg/follow/pkg/session"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Controller is the part of the aggregator the console drives directly.
type Controller interface {
	Remove(ctx context.Context, id string) error
	Sources() []engine.SourceStatus
}

// Result is the outcome of one command.
type Result struct {
	Output string
	Quit   bool
}

type handler func(ctx context.Context, d *Dispatcher, args []string, rest string) (Result, error)

type command struct {
	names []string
	usage string
	doc   string
	run   handler
}

// Dispatcher parses console input and applies it to the session and the
// aggregator.
type Dispatcher struct {
	cfg      *session.Config
	ctl      Controller
	width    int
	commands []command
	byName   map[string]*command
}

// New creates a dispatcher. ctl may be nil, in which case remove and
// list sources report nothing.
func New(cfg *session.Config, ctl Controller) *Dispatcher {
	d := &Dispatcher{cfg: cfg, ctl: ctl, width: 80}
	d.commands = []command{
		{[]string{"tail", "follow"}, "tail [-n N] [[USER@]HOST:]PATH", "Follow a local or remote file, starting with its last N lines.", doFollow},
		{[]string{"open", "file", "cat"}, "open [[USER@]HOST:]PATH", "Read a whole file once.", doOpen},
		{[]string{"journal"}, "journal [HOST:]UNIT [N]", "Follow the systemd journal of a unit.", doJournal},
		{[]string{"run"}, "run COMMAND...", "Run a shell command and read its combined output.", doRun},
		{[]string{"match"}, "match REGEX [COLOR]", "Only show lines matching REGEX, colored with COLOR.", ruleCmd(colorize.KindMatch)},
		{[]string{"highlight"}, "highlight REGEX COLOR", "Color REGEX without filtering lines.", ruleCmd(colorize.KindHighlight)},
		{[]string{"negative", "nmatch"}, "negative REGEX", "Hide every line matching REGEX.", ruleCmd(colorize.KindNegative)},
		{[]string{"color"}, "color NAME SGR [SHORT]", "Define a color from SGR parameters, e.g. color orange 38;5;208 o.", doColor},
		{[]string{"remove", "close"}, "remove ID", "Stop reading a source. ID is kind:target or just the target.", doRemove},
		{[]string{"list"}, "list [sources|rules|colors]", "List current sources, rules and/or colors.", doList},
		{[]string{"clear"}, "clear", "Remove every rule.", doClear},
		{[]string{"help", "?"}, "help", "Show this help message.", doHelp},
		{[]string{"quit", "exit"}, "quit", "Exit the application.", doQuit},
	}
	d.byName = make(map[string]*command)
	for i := range d.commands {
		for _, n := range d.commands[i].names {
			d.byName[n] = &d.commands[i]
		}
	}
	return d
}

// SetWidth sets the width help output wraps to.
func (d *Dispatcher) SetWidth(w int) {
	if w > 20 {
		d.width = w
	}
}

// Parse splits a line into a command name, its whitespace separated
// arguments and the raw text after the name. A leading "?" is help.
func Parse(line string) (name string, args []string, rest string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, ""
	}
	if strings.HasPrefix(line, "?") {
		line = "help " + line[1:]
	}
	fields := strings.Fields(line)
	name = fields[0]
	rest = strings.TrimSpace(line[len(name):])
	return name, fields[1:], rest
}

// Execute runs one console line. Empty lines are a no-op.
func (d *Dispatcher) Execute(ctx context.Context, line string) (Result, error) {
	name, args, rest := Parse(line)
	if name == "" {
		return Result{}, nil
	}
	cmd, ok := d.byName[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	res, err := cmd.run(ctx, d, args, rest)
	if errors.Is(err, ErrUsage) {
		return res, fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	return res, err
}

// Complete returns the sorted command names starting with prefix.
func (d *Dispatcher) Complete(prefix string) []string {
	var out []string
	for name := range d.byName {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func doFollow(_ context.Context, d *Dispatcher, args []string, _ string) (Result, error) {
	lines := core.DefaultLines
	if len(args) > 0 && strings.HasPrefix(args[0], "-n") {
		v := strings.TrimPrefix(args[0], "-n")
		args = args[1:]
		if v == "" {
			if len(args) == 0 {
				return Result{}, ErrUsage
			}
			v, args = args[0], args[1:]
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Result{}, fmt.Errorf("invalid line count %q", v)
		}
		lines = n
	}
	if len(args) != 1 {
		return Result{}, ErrUsage
	}
	return d.addSource(core.Source{Kind: core.KindFollow, Target: args[0], Lines: lines})
}

func doOpen(_ context.Context, d *Dispatcher, args []string, _ string) (Result, error) {
	if len(args) != 1 {
		return Result{}, ErrUsage
	}
	return d.addSource(core.Source{Kind: core.KindFile, Target: args[0]})
}

func doJournal(_ context.Context, d *Dispatcher, args []string, _ string) (Result, error) {
	if len(args) < 1 || len(args) > 2 {
		return Result{}, ErrUsage
	}
	src := core.Source{Kind: core.KindJournal, Target: args[0], Lines: core.DefaultLines}
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return Result{}, fmt.Errorf("invalid line count %q", args[1])
		}
		src.Lines = n
	}
	return d.addSource(src)
}

func doRun(_ context.Context, d *Dispatcher, _ []string, rest string) (Result, error) {
	if rest == "" {
		return Result{}, ErrUsage
	}
	return d.addSource(core.Source{Kind: core.KindCommand, Target: rest})
}

func (d *Dispatcher) addSource(src core.Source) (Result, error) {
	if err := d.cfg.AddSource(src); err != nil {
		return Result{}, err
	}
	return Result{Output: "added " + src.ID()}, nil
}

func ruleCmd(kind colorize.Kind) handler {
	return func(_ context.Context, d *Dispatcher, args []string, _ string) (Result, error) {
		var pattern, colorName string
		switch {
		case len(args) == 1 && kind != colorize.KindHighlight:
			pattern = args[0]
		case len(args) == 2 && kind != colorize.KindNegative:
			pattern = args[0]
			name, err := d.resolveColor(args[1])
			if err != nil {
				return Result{}, err
			}
			colorName = name
		default:
			return Result{}, ErrUsage
		}

		r, err := colorize.NewRule(kind, pattern, colorName)
		if err != nil {
			return Result{}, err
		}
		if err := d.cfg.AddRule(r); err != nil {
			return Result{}, err
		}
		return Result{Output: "added " + r.String()}, nil
	}
}

// resolveColor accepts a color name or its one letter shortcut.
func (d *Dispatcher) resolveColor(name string) (string, error) {
	colors := d.cfg.Colors()
	if colors.Has(name) {
		return name, nil
	}
	if c, ok := colors.ByShort(name); ok {
		return c.Name, nil
	}
	return "", fmt.Errorf("unknown color %q", name)
}

func doColor(_ context.Context, d *Dispatcher, args []string, _ string) (Result, error) {
	if len(args) < 2 || len(args) > 3 {
		return Result{}, ErrUsage
	}
	short := ""
	if len(args) == 3 {
		short = args[2]
	}
	c, err := colorize.ParseSGR(args[0], args[1], short)
	if err != nil {
		return Result{}, err
	}
	if err := d.cfg.AddColor(c); err != nil {
		return Result{}, err
	}
	return Result{Output: "added color " + d.cfg.Colors().Sample(c.Name)}, nil
}

func doRemove(ctx context.Context, d *Dispatcher, args []string, _ string) (Result, error) {
	if len(args) != 1 {
		return Result{}, ErrUsage
	}
	if d.ctl == nil {
		return Result{}, fmt.Errorf("%w: %s", engine.ErrUnknownSource, args[0])
	}
	id := d.resolveSource(args[0])
	if err := d.ctl.Remove(ctx, id); err != nil {
		return Result{}, err
	}
	return Result{Output: "removed " + id}, nil
}

// resolveSource maps a bare target to the ID of the active source reading it.
func (d *Dispatcher) resolveSource(arg string) string {
	if _, _, err := core.ParseSourceID(arg); err == nil {
		return arg
	}
	for _, st := range d.ctl.Sources() {
		if st.State == engine.StateClosed {
			continue
		}
		if _, target, err := core.ParseSourceID(st.ID); err == nil && target == arg {
			return st.ID
		}
	}
	return arg
}

func doList(_ context.Context, d *Dispatcher, args []string, _ string) (Result, error) {
	if len(args) == 0 {
		args = []string{"sources", "rules"}
	}
	var b strings.Builder
	for _, what := range args {
		switch what {
		case "sources", "files":
			d.listSources(&b)
		case "rules", "patterns":
			d.listRules(&b)
		case "colors":
			d.listColors(&b)
		default:
			return Result{}, ErrUsage
		}
	}
	return Result{Output: strings.TrimSuffix(b.String(), "\n")}, nil
}

func (d *Dispatcher) listSources(b *strings.Builder) {
	b.WriteString("Sources:\n")
	if d.ctl == nil {
		return
	}
	sources := d.ctl.Sources()
	width := 0
	for _, st := range sources {
		width = max(width, runewidth.StringWidth(st.ID))
	}
	for _, st := range sources {
		fmt.Fprintf(b, "  %s  %-8s %6d lines", runewidth.FillRight(st.ID, width), st.State, st.Lines)
		if st.Err != nil {
			fmt.Fprintf(b, "  %v", st.Err)
		}
		b.WriteByte('\n')
	}
}

func (d *Dispatcher) listRules(b *strings.Builder) {
	b.WriteString("Rules:\n")
	for i, r := range d.cfg.Rules() {
		fmt.Fprintf(b, "  %d. %s\n", i+1, r)
	}
}

func (d *Dispatcher) listColors(b *strings.Builder) {
	b.WriteString("Colors:\n")
	colors := d.cfg.Colors()
	for _, c := range colors.Colors() {
		if c.Name == colorize.ColorReset {
			continue
		}
		short := ""
		if c.Short != "" {
			short = " (" + c.Short + ")"
		}
		fmt.Fprintf(b, "  %s%s\n", colors.Sample(c.Name), short)
	}
}

func doClear(_ context.Context, d *Dispatcher, _ []string, _ string) (Result, error) {
	d.cfg.ClearRules()
	return Result{Output: "rules cleared"}, nil
}

func doHelp(_ context.Context, d *Dispatcher, _ []string, _ string) (Result, error) {
	rows := make([][2]string, 0, len(d.commands)+1)
	rows = append(rows, [2]string{"Commands:", ""})
	for _, c := range d.commands {
		doc := c.doc
		if len(c.names) > 1 {
			doc += " Aliases: " + strings.Join(c.names[1:], ", ") + "."
		}
		rows = append(rows, [2]string{c.usage, doc})
	}
	return Result{Output: Columns(rows, d.width)}, nil
}

func doQuit(context.Context, *Dispatcher, []string, string) (Result, error) {
	return Result{Quit: true}, nil
}
