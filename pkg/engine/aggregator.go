// Package engine merges lines from concurrently read sources into one
// feed ordered by (timestamp, arrival sequence).
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/petriborg/follow/pkg/colorize"
	"github.com/petriborg/follow/pkg/core"
	"github.com/petriborg/follow/pkg/session"
)

const (
	DefaultInterval    = 100 * time.Millisecond
	DefaultPollTimeout = 100 * time.Millisecond

	maxEnded = 64
)

var (
	ErrShutdown        = errors.New("aggregator is shut down")
	ErrDuplicateSource = errors.New("source already active")
	ErrUnknownSource   = errors.New("unknown source")
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithInterval sets the drain cadence.
func WithInterval(d time.Duration) Option {
	return func(a *Aggregator) { a.interval = d }
}

// WithPollTimeout bounds each read from a source.
func WithPollTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.pollTimeout = d }
}

// WithClock replaces time.Now for arrival timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithExitWhenIdle makes Run return once every source has closed and the
// buffer is empty.
func WithExitWhenIdle() Option {
	return func(a *Aggregator) { a.exitWhenIdle = true }
}

// Aggregator owns the active sources, runs one read loop per source and
// drains their accepted lines to a sink.
type Aggregator struct {
	opener core.Opener
	cfg    *session.Config
	sink   Sink
	logger *slog.Logger

	interval     time.Duration
	pollTimeout  time.Duration
	now          func() time.Time
	exitWhenIdle bool

	seq     atomic.Uint64
	opened  atomic.Uint64
	buf     buffer
	drainMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	tasks    map[string]*task
	ended    []SourceStatus
	shutdown bool
}

// New creates an aggregator and attaches it to cfg so that runtime
// commands can add sources.
func New(opener core.Opener, cfg *session.Config, sink Sink, logger *slog.Logger, opts ...Option) *Aggregator {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Aggregator{
		opener:      opener,
		cfg:         cfg,
		sink:        sink,
		logger:      logger,
		interval:    DefaultInterval,
		pollTimeout: DefaultPollTimeout,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
		tasks:       make(map[string]*task),
	}
	for _, opt := range opts {
		opt(a)
	}
	cfg.Attach(a)
	return a
}

// task is the aggregator's handle on one source's read loop.
type task struct {
	src    core.Source
	cancel context.CancelFunc
	done   chan struct{}
	state  atomic.Int32
	lines  atomic.Uint64

	mu     sync.Mutex
	stream core.Stream
	err    error
}

func (t *task) setState(s SourceState) { t.state.Store(int32(s)) }

func (t *task) setStream(s core.Stream) {
	t.mu.Lock()
	t.stream = s
	t.mu.Unlock()
}

func (t *task) setErr(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}

func (t *task) closeStream() {
	t.mu.Lock()
	s := t.stream
	t.mu.Unlock()
	if s != nil {
		_ = s.Close()
	}
}

func (t *task) status() SourceStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return SourceStatus{
		ID:    t.src.ID(),
		Kind:  string(t.src.Kind),
		State: SourceState(t.state.Load()),
		Lines: t.lines.Load(),
		Err:   t.err,
	}
}

// Add starts reading src. The read loop opens the source itself, so open
// failures are logged rather than returned.
func (a *Aggregator) Add(src core.Source) error {
	id := src.ID()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.shutdown {
		return ErrShutdown
	}
	if _, ok := a.tasks[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, id)
	}

	ctx, cancel := context.WithCancel(a.ctx)
	t := &task{src: src, cancel: cancel, done: make(chan struct{})}
	a.tasks[id] = t

	a.logger.Info("source added", "source", id)
	go a.readLoop(ctx, t)
	return nil
}

// Remove stops the source and waits for its read loop to exit. After
// Remove returns the source produces no further lines.
func (a *Aggregator) Remove(ctx context.Context, id string) error {
	a.mu.Lock()
	t, ok := a.tasks[id]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}
	return a.stop(ctx, t)
}

func (a *Aggregator) stop(ctx context.Context, t *task) error {
	t.cancel()
	t.closeStream()
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop %s: %w", t.src.ID(), ctx.Err())
	}
}

// Shutdown rejects new sources, stops every read loop concurrently, waits
// for them and flushes the buffer to the sink.
func (a *Aggregator) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	a.shutdown = true
	tasks := make([]*task, 0, len(a.tasks))
	for _, t := range a.tasks {
		tasks = append(tasks, t)
	}
	a.mu.Unlock()

	g := new(errgroup.Group)
	for _, t := range tasks {
		g.Go(func() error { return a.stop(ctx, t) })
	}
	err := g.Wait()
	a.cancel()

	if ferr := a.drain(); ferr != nil && err == nil {
		err = ferr
	}
	a.logger.Debug("aggregator shut down", "sources", len(tasks))
	return err
}

// Sources lists active sources sorted by ID, followed by recently closed ones.
func (a *Aggregator) Sources() []SourceStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]SourceStatus, 0, len(a.tasks)+len(a.ended))
	for _, t := range a.tasks {
		out = append(out, t.status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return append(out, a.ended...)
}

// Opened returns how many sources have been opened successfully.
func (a *Aggregator) Opened() uint64 {
	return a.opened.Load()
}

func (a *Aggregator) active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tasks)
}

func (a *Aggregator) readLoop(ctx context.Context, t *task) {
	defer a.finish(t)
	id := t.src.ID()
	logger := a.logger.With("source", id)

	t.setState(StateOpening)
	st, err := a.opener.Open(ctx, t.src)
	if err != nil {
		t.setErr(err)
		logger.Error("source open failed", "err", err)
		return
	}
	t.setStream(st)
	defer st.Close()
	t.setState(StateReading)
	a.opened.Add(1)

	for ctx.Err() == nil {
		line, err := st.ReadLine(a.pollTimeout)
		if err != nil {
			if errors.Is(err, core.ErrTimeout) {
				continue
			}
			if errors.Is(err, io.EOF) {
				logger.Info("source ended")
			} else if ctx.Err() == nil {
				rerr := &core.SourceReadError{SourceID: id, Err: err}
				t.setErr(rerr)
				logger.Error("source read failed", "err", rerr)
			}
			break
		}
		if ctx.Err() != nil {
			break
		}
		a.accept(t, line)
	}
	t.setState(StateClosing)
}

// accept runs one line through the rules and enqueues it when emitted.
func (a *Aggregator) accept(t *task, line string) {
	snap := a.cfg.Snapshot()
	rendered, emit := colorize.Line(snap.Rules, snap.RequiresMatch, snap.Colors, line)
	if !emit {
		return
	}
	a.buf.push(core.TimestampedLine{
		SourceID:  t.src.ID(),
		Timestamp: ExtractTimestamp(line, a.now()),
		Seq:       a.seq.Add(1),
		Raw:       line,
		Rendered:  rendered,
	})
	t.lines.Add(1)
}

func (a *Aggregator) finish(t *task) {
	t.setState(StateClosed)
	st := t.status()

	a.mu.Lock()
	if a.tasks[st.ID] == t {
		delete(a.tasks, st.ID)
	}
	a.ended = append(a.ended, st)
	if len(a.ended) > maxEnded {
		a.ended = a.ended[len(a.ended)-maxEnded:]
	}
	a.mu.Unlock()

	t.cancel()
	close(t.done)
	a.logger.Debug("source closed", "source", st.ID, "lines", st.Lines)
}
