// Package sink holds the non-interactive outputs of the aggregator.
package sink

import (
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/petriborg/follow/pkg/core"
)

// Writer prints rendered lines to an io.Writer, one per line.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Emit implements engine.Sink.
func (s *Writer) Emit(line core.TimestampedLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, line.Rendered+"\n")
	return err
}

// record is the NDJSON shape of one emitted line.
type record struct {
	Timestamp string `json:"timestamp"`
	Seq       uint64 `json:"seq"`
	Source    string `json:"source"`
	Line      string `json:"line"`
}

// JSON writes one JSON object per line. The raw line is written, not the
// rendered one.
type JSON struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

// Emit implements engine.Sink.
func (s *JSON) Emit(line core.TimestampedLine) error {
	data, err := sonic.Marshal(record{
		Timestamp: line.Timestamp.Format(time.RFC3339),
		Seq:       line.Seq,
		Source:    line.SourceID,
		Line:      line.Raw,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(data, '\n'))
	return err
}
