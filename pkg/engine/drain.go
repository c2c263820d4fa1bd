package engine

import (
	"context"
	"errors"
	"time"

	"github.com/petriborg/follow/pkg/core"
)

// ErrSinkClosed is returned by a Sink that will accept no more lines.
// It stops the drain loop.
var ErrSinkClosed = errors.New("sink closed")

// Sink receives ordered lines from the drain loop. Emit must not block for
// more than a bounded interval.
type Sink interface {
	Emit(line core.TimestampedLine) error
}

// Run drains the ordering buffer to the sink every interval. It blocks
// until ctx is cancelled, the sink closes, or, with WithExitWhenIdle, every
// source has ended.
func (a *Aggregator) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.ctx.Done():
			return a.drain()
		case <-ticker.C:
			if err := a.drain(); err != nil {
				return err
			}
			if a.exitWhenIdle && a.active() == 0 && a.buf.len() == 0 {
				return nil
			}
		}
	}
}

// drain forwards every buffered line in order. Emit errors other than
// ErrSinkClosed are logged and the line dropped.
func (a *Aggregator) drain() error {
	a.drainMu.Lock()
	defer a.drainMu.Unlock()

	for _, line := range a.buf.popAll() {
		if err := a.sink.Emit(line); err != nil {
			if errors.Is(err, ErrSinkClosed) {
				return err
			}
			a.logger.Warn("sink emit failed", "source", line.SourceID, "err", err)
		}
	}
	return nil
}
