package oppressor

import "errors"

var (
	// ErrEmptyCandidateSet is returned when a class exposes no methods, so there is nothing to suppress.
	ErrEmptyCandidateSet = errors.New("no methods to choose a suppression target from")

	// ErrMethodNotFound is returned when dispatching or overriding a method the class does not define.
	ErrMethodNotFound = errors.New("method not found")
)
