package core

import (
	"context"
	"time"
)

// Opener acquires a line stream for a source.
type Opener interface {
	// Open starts reading the source. Failures are reported as *SourceOpenError.
	Open(ctx context.Context, src Source) (Stream, error)
}

// Stream is an opened line source.
type Stream interface {
	// ReadLine returns the next line without its terminator.
	// It returns io.EOF at end-of-stream and ErrTimeout when no line
	// arrived within timeout.
	ReadLine(timeout time.Duration) (string, error)

	// Close releases the stream. It is idempotent.
	Close() error
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, src Source) (Stream, error)

func (f OpenerFunc) Open(ctx context.Context, src Source) (Stream, error) {
	return f(ctx, src)
}
