package santa

import (
	"errors"
	"fmt"
)

var (
	// ErrSelfAssignment is the expected outcome that invalidates a whole attempt.
	ErrSelfAssignment = errors.New("self assignment detected")
	// ErrInvalidConfig is returned before any attempt starts.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrMalformedTokens reports a token list that breaks the protocol invariants.
	ErrMalformedTokens = errors.New("malformed token list")
	// ErrDivergentTranscript reports peers that observed different broadcasts.
	ErrDivergentTranscript = errors.New("divergent transcript")
)

// SelfAssignmentError names the participant whose own token ended up at their own position.
type SelfAssignmentError struct {
	Participant int
}

func (e *SelfAssignmentError) Error() string {
	return fmt.Sprintf("participant %d: %s", e.Participant, ErrSelfAssignment)
}

func (e *SelfAssignmentError) Is(target error) bool {
	return target == ErrSelfAssignment
}
