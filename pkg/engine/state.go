package engine

import "fmt"

// SourceState is the lifecycle state of one source's read loop.
type SourceState int32

const (
	StateOpening SourceState = iota
	StateReading
	StateClosing
	StateClosed
)

func (s SourceState) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateReading:
		return "reading"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("SourceState(%d)", int32(s))
	}
}

// SourceStatus describes a source for listing.
type SourceStatus struct {
	ID    string      `json:"id"`
	Kind  string      `json:"kind"`
	State SourceState `json:"state"`
	Lines uint64      `json:"lines"`
	Err   error       `json:"-"`
}
