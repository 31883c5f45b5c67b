package backend

import "fmt"

// ErrTransient wraps a retriable backend failure (connection drop,
// deadlock). Drivers retry internally up to a bounded count before
// surfacing it; callers that see it should count it and continue.
type ErrTransient struct {
	Op  string
	Err error
}

func (e *ErrTransient) Error() string { return fmt.Sprintf("backend: transient error in %s: %v", e.Op, e.Err) }
func (e *ErrTransient) Unwrap() error { return e.Err }

// ErrFatal wraps a non-retriable backend failure (schema mismatch,
// consistency violation). It terminates the active command.
type ErrFatal struct {
	Op  string
	Err error
}

func (e *ErrFatal) Error() string { return fmt.Sprintf("backend: fatal error in %s: %v", e.Op, e.Err) }
func (e *ErrFatal) Unwrap() error { return e.Err }
