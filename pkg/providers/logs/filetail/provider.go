package filetail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/petriborg/follow/pkg/core"
	"github.com/petriborg/follow/pkg/providers/stream"
)

// DefaultPollInterval is the fallback re-check cadence when no file events arrive.
const DefaultPollInterval = 250 * time.Millisecond

// Provider reads and follows local files.
type Provider struct {
	logger *slog.Logger
	poll   time.Duration
}

// New creates a new local file provider.
func New(logger *slog.Logger) *Provider {
	return &Provider{logger: logger, poll: DefaultPollInterval}
}

// WithPollInterval overrides the fallback poll interval.
func (p *Provider) WithPollInterval(d time.Duration) *Provider {
	p.poll = d
	return p
}

// Open implements core.Opener for local file and follow sources.
func (p *Provider) Open(ctx context.Context, src core.Source) (core.Stream, error) {
	path := src.Path()
	if path.Remote() {
		return nil, core.OpenError(src, fmt.Errorf("%s is remote", path))
	}

	f, err := os.Open(path.File)
	if err != nil {
		return nil, core.OpenError(src, err)
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		f.Close()
		return nil, core.OpenError(src, fmt.Errorf("%s is a directory", path.File))
	}

	exited := make(chan struct{})
	s := stream.New(0, func() error {
		<-exited
		return nil
	})
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })

	switch src.Kind {
	case core.KindFile:
		go func() {
			defer close(exited)
			defer stop()
			defer f.Close()
			s.Finish(stream.Pump(f, s))
		}()
	case core.KindFollow:
		t := &tailer{path: path.File, file: f, stream: s, poll: p.poll, logger: p.logger.With("path", path.File)}
		go func() {
			defer close(exited)
			defer stop()
			s.Finish(t.run(src.TailLines()))
		}()
	default:
		stop()
		f.Close()
		return nil, core.OpenError(src, fmt.Errorf("unsupported source kind %q", src.Kind))
	}

	p.logger.Info("reading file", "path", path.File, "kind", src.Kind)
	return s, nil
}

// tailer follows one file, surviving truncation and rotation.
type tailer struct {
	path    string
	file    *os.File
	reader  *bufio.Reader
	offset  int64
	pending string
	stream  *stream.Stream
	poll    time.Duration
	logger  *slog.Logger
}

func (t *tailer) run(n int) error {
	defer func() { t.file.Close() }()

	t.reader = bufio.NewReader(t.file)
	if err := t.sendLast(n); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.logger.Debug("fsnotify unavailable, polling", "err", err)
	} else {
		defer watcher.Close()
		if err := watcher.Add(t.path); err != nil {
			t.logger.Debug("watch failed, polling", "err", err)
		}
	}

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}

	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		select {
		case <-t.stream.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			t.logger.Debug("watch error", "err", err)
			continue
		case <-ticker.C:
			t.checkRotation(watcher)
		}

		if err := t.readAvailable(); err != nil {
			return err
		}
	}
}

// sendLast reads the file to its current end and sends the last n lines.
func (t *tailer) sendLast(n int) error {
	ring := make([]string, 0, n)
	for {
		line, err := t.reader.ReadString('\n')
		t.offset += int64(len(line))
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.pending = line
				break
			}
			return err
		}
		if n == 0 {
			continue
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, trimEOL(line))
	}
	for _, line := range ring {
		if !t.stream.Send(line) {
			return nil
		}
	}
	return nil
}

// readAvailable sends every complete line appended since the last read.
func (t *tailer) readAvailable() error {
	for {
		line, err := t.reader.ReadString('\n')
		t.offset += int64(len(line))
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.pending += line
				return nil
			}
			return err
		}
		if !t.stream.Send(trimEOL(t.pending + line)) {
			return nil
		}
		t.pending = ""
	}
}

// checkRotation handles truncation and replacement of the followed file.
func (t *tailer) checkRotation(watcher *fsnotify.Watcher) {
	info, err := t.file.Stat()
	if err != nil {
		return
	}
	if info.Size() < t.offset {
		t.logger.Info("file truncated")
		if _, err := t.file.Seek(0, io.SeekStart); err == nil {
			t.reader.Reset(t.file)
			t.offset = 0
			t.pending = ""
		}
		return
	}

	current, err := os.Stat(t.path)
	if err != nil || os.SameFile(info, current) {
		return
	}
	// Drain what the old file still holds before switching
	if err := t.readAvailable(); err != nil {
		t.logger.Debug("read before reopen failed", "err", err)
	}

	f, err := os.Open(t.path)
	if err != nil {
		return
	}
	t.logger.Info("file replaced, reopening")
	t.file.Close()
	t.file = f
	t.reader.Reset(f)
	t.offset = 0
	t.pending = ""
	if watcher != nil {
		_ = watcher.Remove(t.path)
		_ = watcher.Add(t.path)
	}
}

func trimEOL(s string) string {
	return strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
}
