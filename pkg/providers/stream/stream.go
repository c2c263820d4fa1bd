// Package stream provides the channel-backed core.Stream used by every provider.
package stream

import (
	"bufio"
	"io"
	"sync"
	"time"

	"github.com/petriborg/follow/pkg/core"
)

// DefaultBuffer is the number of lines a producer may run ahead of the reader.
const DefaultBuffer = 256

// Stream is a core.Stream fed by a single producer goroutine.
// The producer calls Send for each line and Finish once at the end.
type Stream struct {
	lines   chan string
	done    chan struct{}
	err     error
	onClose func() error

	closeOnce sync.Once
	closeErr  error
}

// New creates a stream. onClose, if set, runs once on Close and should stop
// the producer.
func New(buffer int, onClose func() error) *Stream {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Stream{
		lines:   make(chan string, buffer),
		done:    make(chan struct{}),
		onClose: onClose,
	}
}

// Send queues a line, blocking while the buffer is full.
// It returns false once the stream has been closed by the reader.
func (s *Stream) Send(line string) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.lines <- line:
		return true
	case <-s.done:
		return false
	}
}

// Finish marks the end of the producer's output. Buffered lines are still
// delivered; afterwards ReadLine returns err, or io.EOF when err is nil.
func (s *Stream) Finish(err error) {
	s.err = err
	close(s.lines)
}

// Done is closed when the reader closes the stream.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// ReadLine implements core.Stream.
func (s *Stream) ReadLine(timeout time.Duration) (string, error) {
	select {
	case <-s.done:
		return "", io.EOF
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case line, ok := <-s.lines:
		if !ok {
			if s.err != nil {
				return "", s.err
			}
			return "", io.EOF
		}
		return line, nil
	case <-s.done:
		return "", io.EOF
	case <-timer.C:
		return "", core.ErrTimeout
	}
}

// Close implements core.Stream.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.onClose != nil {
			s.closeErr = s.onClose()
		}
	})
	return s.closeErr
}

// Pump scans r line by line into s until r ends or s is closed.
// It returns the scanner error, if any.
func Pump(r io.Reader, s *Stream) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if !s.Send(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// FromLines returns a finished stream holding lines, mostly for tests.
func FromLines(lines ...string) *Stream {
	s := New(len(lines)+1, nil)
	for _, l := range lines {
		s.lines <- l
	}
	s.Finish(nil)
	return s
}
