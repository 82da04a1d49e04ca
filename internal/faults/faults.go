package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLocked marks a file held open by another process; the move is retried.
	ErrLocked = errors.New("file locked")
	// ErrRead marks a file that vanished or shrank mid-read; the move is retried.
	ErrRead = errors.New("read failure")
	// ErrUnreachable marks a network mount that stopped responding.
	ErrUnreachable = errors.New("folder unreachable")
	// ErrPermission marks an access failure that retrying will not fix.
	ErrPermission = errors.New("permission denied")
	// ErrDiskFull marks a destination without enough space.
	ErrDiskFull = errors.New("disk full")
	// ErrConfiguration marks invalid configuration; the engine fails fast.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing record or credential reference.
	ErrNotFound = errors.New("not found")
	// ErrDestinationMissing marks an undo whose file is no longer at the
	// recorded destination.
	ErrDestinationMissing = errors.New("destination missing")
	// ErrConflict marks an undo whose destination content no longer matches.
	ErrConflict = errors.New("content conflict")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrRead
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the error should be handed to the retry queue
// instead of being dropped as a permanent failure.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrLocked), errors.Is(err, ErrRead), errors.Is(err, ErrUnreachable):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "engine failure"
	}
	return strings.Join(parts, ": ")
}
