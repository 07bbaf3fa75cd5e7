package santa

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/luca-patrignani/mental-santa/domain/elgamal"
	"github.com/luca-patrignani/mental-santa/ledger"
)

// AttemptReport describes a finished attempt using public data only.
type AttemptReport struct {
	ID         uuid.UUID
	Number     int
	Group      string
	Transcript *ledger.Transcript
	// Err is nil for the accepted attempt and wraps ErrSelfAssignment for a
	// discarded one.
	Err error
}

func (r AttemptReport) Accepted() bool {
	return r.Err == nil
}

// Outcome is the result of an accepted attempt.
type Outcome struct {
	id          uuid.UUID
	attempts    int
	assignments map[int]Assignment
}

func (o *Outcome) AttemptID() uuid.UUID { return o.id }

// Attempts is the number of attempts run, the accepted one included.
func (o *Outcome) Attempts() int { return o.attempts }

func (o *Outcome) Participants() int { return len(o.assignments) }

// For returns the edge of a single participant.
func (o *Outcome) For(id int) (Assignment, error) {
	a, ok := o.assignments[id]
	if !ok {
		return Assignment{}, fmt.Errorf("no participant with id %d", id)
	}
	return a, nil
}

// Reveal exposes the full mapping. It is not part of the privacy preserving
// contract and exists for testing and for the reveal mode of the binary.
func (o *Outcome) Reveal() Derangement {
	d := make(Derangement, len(o.assignments))
	for id, a := range o.assignments {
		d[id] = a.Recipient
	}
	return d
}

type attempt struct {
	id     uuid.UUID
	n      int
	s      *settings
	logger *slog.Logger
}

// run performs one full attempt: setup, N rounds, extraction. Nothing it
// creates outlives the call except the returned outcome and transcript.
func (a attempt) run() (*Outcome, *ledger.Transcript, error) {
	gp, err := elgamal.GenerateGroupParameters(a.s.suite)
	if err != nil {
		return nil, nil, err
	}

	participants, err := generateKeys(gp, a.n)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := NewTokenList(gp, participants)
	if err != nil {
		return nil, nil, err
	}
	data, err := tokens.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("encode initial tokens: %w", err)
	}
	transcript := ledger.New(a.id.String(), data)

	for _, actor := range participants {
		out, err := a.s.shuffler.ShuffleRound(gp, actor.ID(), tokens.Clone())
		if err != nil {
			return nil, transcript, err
		}
		if err := out.Validate(a.n); err != nil {
			return nil, transcript, fmt.Errorf("round of participant %d: %w", actor.ID(), err)
		}
		data, err := out.MarshalBinary()
		if err != nil {
			return nil, transcript, fmt.Errorf("encode round %d: %w", actor.ID(), err)
		}
		if _, err := transcript.Append("round", actor.ID(), data); err != nil {
			return nil, transcript, err
		}
		a.logger.Debug("round done", "actor", actor.ID())
		tokens = out
	}

	assignments := make(map[int]Assignment, a.n)
	for _, p := range participants {
		as, err := p.Extract(gp, tokens)
		if err != nil {
			return nil, transcript, err
		}
		assignments[p.ID()] = as
	}
	outcome := &Outcome{id: a.id, assignments: assignments}
	if err := outcome.Reveal().Validate(); err != nil {
		return nil, transcript, fmt.Errorf("%w: %w", ErrMalformedTokens, err)
	}
	return outcome, transcript, nil
}

// generateKeys creates participants 1..n and their key pairs concurrently.
func generateKeys(gp *elgamal.GroupParameters, n int) ([]*KeyedParticipant, error) {
	participants := make([]*KeyedParticipant, n)
	errChan := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			kp, err := NewParticipant(i + 1).GenerateKeys(gp)
			participants[i] = kp
			errChan <- err
		}()
	}
	var errs []error
	for i := 0; i < n; i++ {
		if err := <-errChan; err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return participants, nil
}
