// Package object reads symbol tables from compiled binaries and demangles
// the Rust symbols they contain.
package object

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrUnknownFormat indicates the file is not a supported binary.
	ErrUnknownFormat = errors.New("object: unknown binary format")

	// ErrFatBinary indicates a universal Mach-O, which holds several images.
	ErrFatBinary = errors.New("object: fat Mach-O binaries are not supported")

	// ErrFileClosed indicates the file has been closed.
	ErrFileClosed = errors.New("object: file is closed")
)

// FormatError provides detailed information about loading failures.
type FormatError struct {
	Format  Format // Format being read when the error occurred
	Message string // Description of the error
	Err     error  // Underlying error, if any
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("object: %s: %s: %v", e.Format, e.Message, e.Err)
	}
	return fmt.Sprintf("object: %s: %s", e.Format, e.Message)
}

func (e *FormatError) Unwrap() error { return e.Err }
