package model

import (
	"errors"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/petriborg/follow/pkg/core"
	"github.com/petriborg/follow/pkg/engine"
)

const (
	emitTimeout = 250 * time.Millisecond
	batchSize   = 256
)

var errConsoleBusy = errors.New("console is not keeping up")

// linesMsg carries a batch of output lines into the console.
type linesMsg []string

// Sink hands rendered lines to the console. It also implements io.Writer
// so log output can be shown inline.
type Sink struct {
	lines chan string
	logs  chan string
	done  chan struct{}
	once  sync.Once
}

func NewSink() *Sink {
	return &Sink{
		lines: make(chan string, 1024),
		logs:  make(chan string, 128),
		done:  make(chan struct{}),
	}
}

// Emit implements engine.Sink. It waits at most emitTimeout for the
// console and reports engine.ErrSinkClosed once the console has quit.
func (s *Sink) Emit(line core.TimestampedLine) error {
	select {
	case <-s.done:
		return engine.ErrSinkClosed
	default:
	}

	timer := time.NewTimer(emitTimeout)
	defer timer.Stop()

	select {
	case s.lines <- line.Rendered:
		return nil
	case <-s.done:
		return engine.ErrSinkClosed
	case <-timer.C:
		return errConsoleBusy
	}
}

// Write queues one log record. Records are dropped while the console is behind.
func (s *Sink) Write(p []byte) (int, error) {
	text := strings.TrimRight(string(p), "\n")
	select {
	case s.logs <- text:
	default:
	}
	return len(p), nil
}

// Close stops delivery. Later Emit calls return engine.ErrSinkClosed.
func (s *Sink) Close() {
	s.once.Do(func() { close(s.done) })
}

// wait blocks for the next line and returns it with whatever else is
// already queued, up to batchSize lines.
func (s *Sink) wait() tea.Cmd {
	return func() tea.Msg {
		var batch linesMsg
		select {
		case l := <-s.lines:
			batch = append(batch, l)
		case l := <-s.logs:
			batch = append(batch, logStyle.Render(l))
		case <-s.done:
			return nil
		}
		for len(batch) < batchSize {
			select {
			case l := <-s.lines:
				batch = append(batch, l)
			case l := <-s.logs:
				batch = append(batch, logStyle.Render(l))
			default:
				return batch
			}
		}
		return batch
	}
}
