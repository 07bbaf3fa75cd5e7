package santa

import (
	"io"
	"log/slog"

	"github.com/luca-patrignani/mental-santa/domain/elgamal"
)

type settings struct {
	suite    string
	shuffler Shuffler
	logger   *slog.Logger
	observer func(AttemptReport)
}

func defaultSettings() settings {
	return settings{
		suite:    elgamal.DefaultSuite,
		shuffler: RandomShuffler{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

type Option func(*settings)

// WithSuite selects the kyber suite backing the group parameters.
func WithSuite(name string) Option {
	return func(s *settings) {
		s.suite = name
	}
}

// WithShuffler replaces the round performed by every participant.
func WithShuffler(shuffler Shuffler) Option {
	return func(s *settings) {
		s.shuffler = shuffler
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithObserver is called once for every finished attempt, accepted or not.
func WithObserver(observer func(AttemptReport)) Option {
	return func(s *settings) {
		s.observer = observer
	}
}

func (s *settings) report(r AttemptReport) {
	if s.observer != nil {
		s.observer(r)
	}
}
