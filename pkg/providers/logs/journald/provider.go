package journald

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/petriborg/follow/pkg/core"
	"github.com/petriborg/follow/pkg/providers/shell"
)

// UnitChecker reports whether a systemd unit is known to the manager.
type UnitChecker func(ctx context.Context, unit string) (bool, error)

// Provider streams the journal of systemd units through journalctl.
// Targets may be "unit" or "[user@]host:unit" for a remote journal.
type Provider struct {
	shell  *shell.Provider
	check  UnitChecker
	logger *slog.Logger
}

// New creates a new journald provider that runs journalctl through sh.
func New(sh *shell.Provider, logger *slog.Logger) *Provider {
	return &Provider{shell: sh, check: DBusUnitExists, logger: logger}
}

// WithUnitChecker replaces the D-Bus unit lookup.
func (p *Provider) WithUnitChecker(check UnitChecker) *Provider {
	p.check = check
	return p
}

// Command returns the journalctl argv for src.
func Command(src core.Source) []string {
	target := src.Path()
	argv := []string{"journalctl", "-f", "-u", target.File, "-n", strconv.Itoa(src.TailLines()), "-o", "short"}
	if target.Remote() {
		return shell.SSH(target.User, target.Host, argv)
	}
	return argv
}

// Open implements core.Opener.
func (p *Provider) Open(ctx context.Context, src core.Source) (core.Stream, error) {
	target := src.Path()
	if target.File == "" {
		return nil, core.OpenError(src, fmt.Errorf("unit is required"))
	}

	if !target.Remote() && p.check != nil {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		exists, err := p.check(checkCtx, target.File)
		cancel()
		switch {
		case err != nil:
			p.logger.Debug("unit lookup unavailable", "unit", target.File, "err", err)
		case !exists:
			return nil, core.OpenError(src, fmt.Errorf("unit %s: %w", target.File, core.ErrNotFound))
		}
	}

	s, err := p.shell.Start(ctx, src, Command(src))
	if err != nil {
		return nil, err
	}
	p.logger.Info("subscribed to journal", "unit", target.File, "host", target.Host)
	return s, nil
}

// DBusUnitExists asks systemd over D-Bus whether unit is loaded or loadable.
func DBusUnitExists(ctx context.Context, unit string) (bool, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("dbus connect: %w", err)
	}
	defer conn.Close()

	units, err := conn.ListUnitsByNamesContext(ctx, []string{unit})
	if err != nil {
		return false, fmt.Errorf("list units: %w", err)
	}
	for _, u := range units {
		if u.Name == unit && u.LoadState != "not-found" {
			return true, nil
		}
	}
	return false, nil
}
