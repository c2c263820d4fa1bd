package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petriborg/follow/internal/buildinfo"
	"github.com/petriborg/follow/pkg/colorize"
	"github.com/petriborg/follow/pkg/commands"
	"github.com/petriborg/follow/pkg/core"
	"github.com/petriborg/follow/pkg/engine"
	"github.com/petriborg/follow/pkg/manifest"
	"github.com/petriborg/follow/pkg/manifest/presets"
	"github.com/petriborg/follow/pkg/providers"
	"github.com/petriborg/follow/pkg/session"
	"github.com/petriborg/follow/pkg/sink"
	tuimodel "github.com/petriborg/follow/pkg/tui/model"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	config   string
	groups   []string
	follow   bool
	lines    int
	rules    []cliRule
	debug    bool
	noTUI    bool
	output   string
	color    string
	interval time.Duration
}

var opts options

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "follow [flags] [[USER@]HOST:]FILE...",
	Short: "Merge, filter and colorize log files, journals and commands",
	Long: `follow reads local files, remote files over ssh, systemd journals and
shell commands concurrently, merges their lines in timestamp order and
colors them with regular expression rules.

On a terminal it opens an interactive console where sources and rules can
be added while running. Otherwise lines are written to stdout until every
source has ended.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		interactive := opts.output == "text" && !opts.noTUI &&
			term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		return run(ctx, &opts, args, cmd.Flags().Changed("config"), interactive, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&opts.config, "config", "c", manifest.DefaultPath, "configuration file")

	f := rootCmd.Flags()
	f.StringArrayVarP(&opts.groups, "group", "z", nil, "load group `Z` from the configuration file (repeatable)")
	f.BoolVarP(&opts.follow, "follow", "f", false, "follow FILE(s)")
	f.IntVarP(&opts.lines, "lines", "n", core.DefaultLines, "output the last `N` lines when following")
	f.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	f.BoolVar(&opts.noTUI, "no-tui", false, "never start the interactive console")
	f.StringVar(&opts.output, "output", "text", "output format: text or json")
	f.StringVar(&opts.color, "color", "auto", "color mode: auto, always or never")
	f.DurationVar(&opts.interval, "interval", engine.DefaultInterval, "how often merged lines are flushed")
	registerRuleFlags(f, &opts.rules)
	f.SortFlags = false

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(colorsCmd)
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// run wires configuration, rules and sources into an aggregator and drives
// either the console or the batch writer.
func run(ctx context.Context, o *options, args []string, explicitConfig, interactive bool, stdout, stderr io.Writer) error {
	switch o.output {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format %q (want text or json)", o.output)
	}
	if o.lines < 0 {
		return fmt.Errorf("invalid line count %d", o.lines)
	}
	colorOn, err := colorize.SetMode(o.color)
	if err != nil {
		return err
	}
	if o.output == "json" {
		colorOn = false
	}

	sel, err := loadSelection(o.config, explicitConfig, o.groups)
	if err != nil {
		return err
	}

	var console *tuimodel.Sink
	logOut := stderr
	if interactive {
		console = tuimodel.NewSink()
		logOut = console
	}
	logger := newLogger(logOut, o.debug)

	table := colorize.DefaultColors()
	for _, c := range sel.Colors {
		table.Add(c)
	}
	if !colorOn {
		table = table.Disabled()
	}

	cfg := session.New(table, logger)
	for _, r := range sel.Rules {
		if err := cfg.AddRule(r); err != nil {
			return err
		}
	}
	if err := applyRules(cfg, o.rules); err != nil {
		return err
	}

	sources := sel.Sources
	for _, arg := range args {
		src := core.Source{Kind: core.KindFile, Target: arg}
		if o.follow {
			src = core.Source{Kind: core.KindFollow, Target: arg, Lines: o.lines}
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 && !interactive {
		return errors.New("no sources: give a FILE or a -z group")
	}

	var out engine.Sink
	engineOpts := []engine.Option{engine.WithInterval(o.interval)}
	switch {
	case interactive:
		out = console
	case o.output == "json":
		out = sink.NewJSON(stdout)
		engineOpts = append(engineOpts, engine.WithExitWhenIdle())
	default:
		out = sink.NewWriter(stdout)
		engineOpts = append(engineOpts, engine.WithExitWhenIdle())
	}

	agg := engine.New(providers.NewRegistry(logger), cfg, out, logger, engineOpts...)
	for _, src := range sources {
		if err := agg.Add(src); err != nil {
			logger.Error("add source", "source", src.ID(), "err", err)
		}
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := agg.Shutdown(sctx); err != nil && !errors.Is(err, engine.ErrSinkClosed) {
			logger.Warn("shutdown", "err", err)
		}
	}()

	if !interactive {
		if err := agg.Run(ctx); err != nil {
			return err
		}
		if agg.Opened() == 0 && ctx.Err() == nil {
			return openFailure(agg.Sources())
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := agg.Run(ctx); err != nil && !errors.Is(err, engine.ErrSinkClosed) {
			logger.Error("drain stopped", "err", err)
		}
	}()
	return tuimodel.Run(ctx, commands.New(cfg, agg), agg, console)
}

// openFailure reports a batch run in which no source could be opened.
func openFailure(sources []engine.SourceStatus) error {
	var errs []error
	for _, st := range sources {
		if st.Err != nil {
			errs = append(errs, st.Err)
		}
	}
	if len(errs) == 0 {
		return errors.New("no source could be opened")
	}
	return fmt.Errorf("no source could be opened: %w", errors.Join(errs...))
}

// loadSelection reads the configuration file and resolves the requested
// groups. A missing default file is not an error.
func loadSelection(path string, explicit bool, groups []string) (*manifest.Selection, error) {
	m, err := manifest.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit && len(groups) == 0 {
			return &manifest.Selection{}, nil
		}
		return nil, err
	}
	if errs := manifest.Validate(m); len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	return m.Select(groups...)
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "follow %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	},
}

// --- Colors ---

var colorsCmd = &cobra.Command{
	Use:   "colors",
	Short: "List the built-in and configured colors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		table := colorize.DefaultColors()
		if m, err := manifest.Load(opts.config); err == nil {
			sel, err := m.Select()
			if err != nil {
				return err
			}
			for _, c := range sel.Colors {
				table.Add(c)
			}
		}
		out := cmd.OutOrStdout()
		for _, c := range table.Colors() {
			if c.Name == colorize.ColorReset {
				continue
			}
			short := ""
			if c.Short != "" {
				short = "-" + c.Short
			}
			fmt.Fprintf(out, "%-4s %s\n", short, table.Sample(c.Name))
		}
		return nil
	},
}

// --- Config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var (
	configInitRoot   string
	configInitOutput string
)

func init() {
	configInitCmd.Flags().StringVar(&configInitRoot, "root", "", "directory the preset inspects (default / for syslog, . for compose)")
	configInitCmd.Flags().StringVar(&configInitOutput, "output", manifest.DefaultPath, "output file path (.yaml or .toml)")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}

var configInitCmd = &cobra.Command{
	Use:   "init [preset]",
	Short: "Generate a configuration file",
	Long:  "Available presets: syslog (default), compose",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preset := "syslog"
		if len(args) > 0 {
			preset = args[0]
		}
		m, err := presets.Generate(preset, configInitRoot)
		if err != nil {
			return err
		}
		path := manifest.ExpandPath(configInitOutput)
		if err := manifest.Save(m, path); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Generated %s with %d group(s)\n", path, len(m.Groups))
		for _, name := range m.GroupNames() {
			g := m.Groups[name]
			fmt.Fprintf(out, "  %s (%d sources, %d rules)\n", name, len(g.Sources), len(g.Rules))
		}
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := opts.config
		if len(args) > 0 {
			path = args[0]
		}

		m, err := manifest.Load(path)
		if err != nil {
			return err
		}

		errs := manifest.Validate(m)
		if len(errs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d groups)\n", path, len(m.Groups))
			return nil
		}

		stderr := cmd.ErrOrStderr()
		fmt.Fprintf(stderr, "%s: %d error(s)\n", path, len(errs))
		for _, e := range errs {
			fmt.Fprintf(stderr, "  • %s\n", e)
		}
		return fmt.Errorf("%s: invalid", path)
	},
}
