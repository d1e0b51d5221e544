package datapack

import (
	"errors"
	"fmt"
)

var (
	// ErrElementNotFound is returned when an action targets an unknown element
	ErrElementNotFound = errors.New("element not found")
	// ErrInvalidPath is returned when an action path does not resolve
	ErrInvalidPath = errors.New("invalid value path")
)

// ValidationError reports an upload the analyser refuses to read
type ValidationError struct {
	Reason string
	Path   string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid datapack: %s", e.Reason)
	}
	return fmt.Sprintf("invalid datapack %s: %s", e.Path, e.Reason)
}

func invalid(path, format string, args ...any) error {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
