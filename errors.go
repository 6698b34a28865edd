package cryo

import (
	"errors"
	"fmt"
)

// InvalidNameError reports a kind or name unusable as a filesystem path
// segment.
type InvalidNameError struct {
	Name   string // the rejected value
	Reason string // why it was rejected
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Name, e.Reason)
}

// DirectoryCreationError reports a directory that could not be created for a
// reason other than already existing, such as permission denial.
type DirectoryCreationError struct {
	Path string
	Err  error
}

func (e *DirectoryCreationError) Error() string {
	return fmt.Sprintf("create directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryCreationError) Unwrap() error { return e.Err }

// ErrCyclicHierarchy is returned when registering a child that is already an
// ancestor of its would-be parent.
var ErrCyclicHierarchy = errors.New("cryo: object cannot be its own ancestor")

// IsInvalidName reports whether err is or wraps an *InvalidNameError.
func IsInvalidName(err error) bool {
	var ie *InvalidNameError
	return errors.As(err, &ie)
}

// IsDirectoryCreation reports whether err is or wraps a
// *DirectoryCreationError.
func IsDirectoryCreation(err error) bool {
	var de *DirectoryCreationError
	return errors.As(err, &de)
}
