package core

import (
	"github.com/go-faster/errors"
)

// Error kinds of a search. All of them are terminal for the current search;
// callers decide whether to retry with adjusted parameters.
var (
	ErrOutOfRange           = errors.New("index out of range")
	ErrCapacityExceeded     = errors.New("register capacity exceeded")
	ErrEmptyCandidateSet    = errors.New("empty candidate set")
	ErrNoMarkedStates       = errors.New("no marked states")
	ErrNumericalInstability = errors.New("numerical instability")
	ErrUncoveredTarget      = errors.New("target not covered by candidate set")

	ErrJobIDConflict = errors.New("jobID is already used")
)
