// Package providers dispatches sources to the reader that can open them.
package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/petriborg/follow/pkg/core"
	"github.com/petriborg/follow/pkg/providers/logs/filetail"
	"github.com/petriborg/follow/pkg/providers/logs/journald"
	"github.com/petriborg/follow/pkg/providers/shell"
)

// Registry is the core.Opener used by the aggregator.
type Registry struct {
	Files   *filetail.Provider
	Shell   *shell.Provider
	Journal *journald.Provider
}

// NewRegistry wires the default providers.
func NewRegistry(logger *slog.Logger) *Registry {
	sh := shell.New(logger)
	return &Registry{
		Files:   filetail.New(logger),
		Shell:   sh,
		Journal: journald.New(sh, logger),
	}
}

// Open implements core.Opener.
func (r *Registry) Open(ctx context.Context, src core.Source) (core.Stream, error) {
	switch src.Kind {
	case core.KindFile, core.KindFollow:
		if src.Path().Remote() {
			return r.Shell.Open(ctx, src)
		}
		return r.Files.Open(ctx, src)
	case core.KindJournal:
		return r.Journal.Open(ctx, src)
	case core.KindCommand:
		return r.Shell.Open(ctx, src)
	}
	return nil, core.OpenError(src, fmt.Errorf("unsupported source kind %q", src.Kind))
}
