// Package session holds the live, mutable runtime configuration shared by
// the read loops and the interactive console.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/petriborg/follow/pkg/colorize"
	"github.com/petriborg/follow/pkg/core"
)

// ErrNoStarter is returned by AddSource before an aggregator is attached.
var ErrNoStarter = errors.New("no source starter attached")

// SourceStarter starts reading a source. It is implemented by the aggregator.
type SourceStarter interface {
	Add(src core.Source) error
}

// Snapshot is an immutable view of the rules and colors at one instant.
type Snapshot struct {
	Rules         []colorize.Rule
	RequiresMatch bool
	Colors        *colorize.Table
}

// Config is the runtime configuration. Rule and color updates replace the
// underlying slices and tables, so a Snapshot is never modified after it
// has been handed out.
type Config struct {
	mu            sync.RWMutex
	rules         []colorize.Rule
	requiresMatch bool
	colors        *colorize.Table
	starter       SourceStarter
	logger        *slog.Logger
}

// New creates a runtime config using colors, or the default palette when nil.
func New(colors *colorize.Table, logger *slog.Logger) *Config {
	if colors == nil {
		colors = colorize.DefaultColors()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Config{colors: colors, logger: logger}
}

// Attach sets the component that AddSource forwards to.
func (c *Config) Attach(starter SourceStarter) {
	c.mu.Lock()
	c.starter = starter
	c.mu.Unlock()
}

// Snapshot returns the current rules and colors.
func (c *Config) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{Rules: c.rules, RequiresMatch: c.requiresMatch, Colors: c.colors}
}

// AddRule appends a rule. Rules referencing an undefined color are rejected.
func (c *Config) AddRule(r colorize.Rule) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.colors.Has(r.Color) {
		return fmt.Errorf("rule %s: unknown color %q", r, r.Color)
	}

	rules := make([]colorize.Rule, len(c.rules), len(c.rules)+1)
	copy(rules, c.rules)
	c.rules = append(rules, r)
	c.requiresMatch = colorize.RequiresMatch(c.rules)

	c.logger.Debug("rule added", "rule", r.String(), "requires_match", c.requiresMatch)
	return nil
}

// ClearRules removes every rule.
func (c *Config) ClearRules() {
	c.mu.Lock()
	c.rules = nil
	c.requiresMatch = false
	c.mu.Unlock()
}

// AddColor defines or redefines a named color.
func (c *Config) AddColor(col colorize.Color) error {
	if col.Name == "" {
		return fmt.Errorf("color name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	colors := c.colors.Clone()
	colors.Add(col)
	c.colors = colors

	c.logger.Debug("color added", "name", col.Name)
	return nil
}

// AddSource hands src to the attached starter.
func (c *Config) AddSource(src core.Source) error {
	c.mu.RLock()
	starter := c.starter
	c.mu.RUnlock()

	if starter == nil {
		return ErrNoStarter
	}
	return starter.Add(src)
}

// Rules returns the configured rules in order.
func (c *Config) Rules() []colorize.Rule {
	return c.Snapshot().Rules
}

// Colors returns the current color table.
func (c *Config) Colors() *colorize.Table {
	return c.Snapshot().Colors
}
