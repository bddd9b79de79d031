package code_analyzer

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a durable store does not exist yet; callers treat it as empty state.
	ErrNotFound = errors.New("store not found")
	// ErrCorruptSnapshot means the snapshot file exists but cannot be parsed.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
	// ErrCorruptDocumentation means the documentation store exists but cannot be parsed.
	ErrCorruptDocumentation = errors.New("corrupt documentation store")
	// ErrLocked means another process holds the workspace lock.
	ErrLocked = errors.New("workspace is locked by another process")
)

// IOError reports a failed read or write of a tracked file or durable store.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort a batch instead of a single file.
func IsFatal(err error) bool {
	return errors.Is(err, ErrCorruptSnapshot) || errors.Is(err, ErrCorruptDocumentation)
}

// GenerationError reports that the text generator failed or returned nothing usable for a file.
type GenerationError struct {
	Path string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for %s: %v", e.Path, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
