package core

import "time"

// TimestampedLine is one accepted, rendered line waiting for display.
// Lines are ordered by (Timestamp, Seq).
type TimestampedLine struct {
	SourceID  string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Seq       uint64    `json:"seq"`
	Raw       string    `json:"line"`
	Rendered  string    `json:"-"`
}

// Before reports whether l sorts ahead of o.
func (l TimestampedLine) Before(o TimestampedLine) bool {
	if l.Timestamp.Equal(o.Timestamp) {
		return l.Seq < o.Seq
	}
	return l.Timestamp.Before(o.Timestamp)
}
