package core

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("read timeout")
)

// SourceOpenError reports a source that could not be opened.
type SourceOpenError struct {
	SourceID string
	Err      error
}

func (e *SourceOpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.SourceID, e.Err)
}

func (e *SourceOpenError) Unwrap() error { return e.Err }

// SourceReadError reports an I/O failure while reading an opened source.
type SourceReadError struct {
	SourceID string
	Err      error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.SourceID, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// OpenError wraps err for src, classifying well-known OS errors.
func OpenError(src Source, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrConnectionFailed):
	case errors.Is(err, fs.ErrNotExist):
		err = fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		err = fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return &SourceOpenError{SourceID: src.ID(), Err: err}
}
