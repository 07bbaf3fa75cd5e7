package santa

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/luca-patrignani/mental-santa/domain/elgamal"
)

type OrchestratorState int

const (
	Running OrchestratorState = iota
	Done
)

func (s OrchestratorState) String() string {
	if s == Done {
		return "done"
	}
	return "running"
}

// Orchestrator repeats full attempts until one yields a derangement.
//
// Retries are unbounded. A uniform permutation of N elements has no fixed
// point with probability D(N)/N!, about 1/e, so the expected number of
// attempts is ExpectedAttempts(N), which lies between 2 and 3 and tends to e.
type Orchestrator struct {
	n        int
	s        settings
	state    OrchestratorState
	attempts int
	outcome  *Outcome
}

// NewOrchestrator validates the configuration before any attempt begins.
func NewOrchestrator(participants int, opts ...Option) (*Orchestrator, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if err := validateSettings(participants, s); err != nil {
		return nil, err
	}
	return &Orchestrator{n: participants, s: s, state: Running}, nil
}

func validateSettings(participants int, s settings) error {
	if participants < 2 {
		return fmt.Errorf("%w: at least 2 participants are needed, got %d", ErrInvalidConfig, participants)
	}
	if _, err := elgamal.GenerateGroupParameters(s.suite); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if s.shuffler == nil {
		return fmt.Errorf("%w: no shuffler", ErrInvalidConfig)
	}
	if s.logger == nil {
		return fmt.Errorf("%w: no logger", ErrInvalidConfig)
	}
	return nil
}

func (o *Orchestrator) State() OrchestratorState { return o.state }

func (o *Orchestrator) Attempts() int { return o.attempts }

// Run drives attempts until one is accepted. Any error other than a
// self-assignment aborts the run. Once Done, Run returns the same outcome.
func (o *Orchestrator) Run() (*Outcome, error) {
	if o.state == Done {
		return o.outcome, nil
	}
	for {
		o.attempts++
		a := attempt{id: uuid.New(), n: o.n, s: &o.s}
		a.logger = o.s.logger.With("attempt", o.attempts, "id", a.id.String())
		a.logger.Info("attempt started", "participants", o.n, "group", o.s.suite)

		outcome, transcript, err := a.run()
		o.s.report(AttemptReport{
			ID:         a.id,
			Number:     o.attempts,
			Group:      o.s.suite,
			Transcript: transcript,
			Err:        err,
		})
		if errors.Is(err, ErrSelfAssignment) {
			a.logger.Info("attempt discarded", "reason", err.Error())
			continue
		}
		if err != nil {
			a.logger.Error("attempt failed", "error", err)
			return nil, fmt.Errorf("attempt %d: %w", o.attempts, err)
		}

		outcome.attempts = o.attempts
		o.outcome = outcome
		o.state = Done
		a.logger.Info("derangement accepted")
		return outcome, nil
	}
}
