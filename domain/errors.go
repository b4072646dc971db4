package domain

import "errors"

// ErrNotFound marks the expected absence of an optional file, branch, or
// project. Providers wrap their platform's 404 into this sentinel so callers
// can skip silently instead of logging a warning.
var ErrNotFound = errors.New("not found")

// ErrTimeout marks a repository scan that exceeded its wall-clock budget.
var ErrTimeout = errors.New("scan timed out")

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
