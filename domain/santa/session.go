package santa

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/luca-patrignani/mental-santa/domain/elgamal"
	"github.com/luca-patrignani/mental-santa/ledger"
	"go.dedis.ch/protobuf"
)

// NetworkLayer is the synchronous broadcast the protocol relies on.
// Ranks go from 0 to GetPeerCount()-1.
type NetworkLayer interface {
	// Broadcast sends data from root to every peer and returns what root sent.
	Broadcast(data []byte, root int) ([]byte, error)

	// AllToAll returns, at index i, the data sent by the peer with rank i.
	AllToAll(data []byte) ([][]byte, error)

	GetRank() int

	GetPeerCount() int

	Close() error
}

// Session runs the protocol for the single local participant whose id is
// rank+1. Every peer must run its own Session over the same network.
type Session struct {
	Peer     NetworkLayer
	s        settings
	attempts int
}

func NewSession(peer NetworkLayer, opts ...Option) (*Session, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if peer == nil {
		return nil, fmt.Errorf("%w: no network layer", ErrInvalidConfig)
	}
	if err := validateSettings(peer.GetPeerCount(), s); err != nil {
		return nil, err
	}
	return &Session{Peer: peer, s: s}, nil
}

func (ss *Session) Attempts() int { return ss.attempts }

type announcement struct {
	SelfAssigned bool
	// Aborted is set by a peer whose extraction failed for any other reason.
	Aborted bool
	Head    string
}

// Run repeats attempts until no peer announces a self-assignment and returns
// the local participant's edge only.
func (ss *Session) Run() (Assignment, error) {
	for {
		ss.attempts++
		a, id, transcript, err := ss.runOneAttempt()
		ss.s.report(AttemptReport{
			ID:         id,
			Number:     ss.attempts,
			Group:      ss.s.suite,
			Transcript: transcript,
			Err:        err,
		})
		if errors.Is(err, ErrSelfAssignment) {
			ss.s.logger.Info("attempt discarded", "attempt", ss.attempts)
			continue
		}
		if err != nil {
			return Assignment{}, fmt.Errorf("attempt %d: %w", ss.attempts, err)
		}
		ss.s.logger.Info("assignment accepted", "attempt", ss.attempts)
		return a, nil
	}
}

func (ss *Session) runOneAttempt() (Assignment, uuid.UUID, *ledger.Transcript, error) {
	n := ss.Peer.GetPeerCount()
	rank := ss.Peer.GetRank()

	// rank 0 names the attempt so that every transcript has the same genesis
	var idData []byte
	if rank == 0 {
		idData = []byte(uuid.New().String())
	}
	idData, err := ss.Peer.Broadcast(idData, 0)
	if err != nil {
		return Assignment{}, uuid.Nil, nil, err
	}
	id, err := uuid.ParseBytes(idData)
	if err != nil {
		return Assignment{}, uuid.Nil, nil, fmt.Errorf("attempt id: %w", err)
	}
	logger := ss.s.logger.With("attempt", ss.attempts, "id", id.String(), "rank", rank)
	logger.Info("attempt started", "participants", n, "group", ss.s.suite)

	gp, err := elgamal.GenerateGroupParameters(ss.s.suite)
	if err != nil {
		return Assignment{}, id, nil, err
	}
	me, err := NewParticipant(rank + 1).GenerateKeys(gp)
	if err != nil {
		return Assignment{}, id, nil, err
	}
	tokens, err := ss.collectInitialTokens(gp, me)
	if err != nil {
		return Assignment{}, id, nil, err
	}
	data, err := tokens.MarshalBinary()
	if err != nil {
		return Assignment{}, id, nil, err
	}
	transcript := ledger.New(id.String(), data)

	for root := 0; root < n; root++ {
		tokens, err = ss.round(gp, logger, root, tokens, transcript)
		if err != nil {
			return Assignment{}, id, transcript, err
		}
	}

	assignment, extractErr := me.Extract(gp, tokens)
	var selfAssigned *SelfAssignmentError
	aborted := extractErr != nil && !errors.As(extractErr, &selfAssigned)
	err = ss.announce(announcement{
		SelfAssigned: selfAssigned != nil,
		Aborted:      aborted,
		Head:         transcript.Head(),
	})
	if aborted {
		// the other peers stop on the announcement, whatever it returned here
		if err != nil {
			logger.Debug("announcement after abort", "error", err)
		}
		return Assignment{}, id, transcript, extractErr
	}
	if err != nil {
		return Assignment{}, id, transcript, err
	}
	return assignment, id, transcript, nil
}

func (ss *Session) collectInitialTokens(gp *elgamal.GroupParameters, me *KeyedParticipant) (TokenList, error) {
	token, err := me.InitialToken(gp)
	if err != nil {
		return nil, err
	}
	data, err := TokenList{token}.MarshalBinary()
	if err != nil {
		return nil, err
	}
	recv, err := ss.Peer.AllToAll(data)
	if err != nil {
		return nil, err
	}
	n := ss.Peer.GetPeerCount()
	if len(recv) != n {
		return nil, fmt.Errorf("%w: received %d initial tokens from %d peers", ErrMalformedTokens, len(recv), n)
	}
	tokens := make(TokenList, n)
	for i, b := range recv {
		single, err := UnmarshalTokenList(gp, b)
		if err != nil {
			return nil, fmt.Errorf("initial token of rank %d: %w", i, err)
		}
		if len(single) != 1 {
			return nil, fmt.Errorf("%w: rank %d sent %d initial tokens", ErrMalformedTokens, i, len(single))
		}
		tokens[i] = single[0]
	}
	if err := tokens.Validate(n); err != nil {
		return nil, err
	}
	return tokens, nil
}

// round lets the peer with rank root shuffle, then delivers its output to everyone.
func (ss *Session) round(gp *elgamal.GroupParameters, logger *slog.Logger, root int, tokens TokenList, transcript *ledger.Transcript) (TokenList, error) {
	var data []byte
	if root == ss.Peer.GetRank() {
		out, err := ss.s.shuffler.ShuffleRound(gp, root+1, tokens.Clone())
		if err != nil {
			return nil, err
		}
		data, err = out.MarshalBinary()
		if err != nil {
			return nil, err
		}
		logger.Debug("shuffled", "actor", root+1)
	}
	data, err := ss.Peer.Broadcast(data, root)
	if err != nil {
		return nil, err
	}
	out, err := UnmarshalTokenList(gp, data)
	if err != nil {
		return nil, fmt.Errorf("round of participant %d: %w", root+1, err)
	}
	if err := out.Validate(ss.Peer.GetPeerCount()); err != nil {
		return nil, fmt.Errorf("round of participant %d: %w", root+1, err)
	}
	if _, err := transcript.Append("round", root+1, data); err != nil {
		return nil, err
	}
	return out, nil
}

// announce tells every peer whether the local participant drew themselves or
// aborted, and checks that all peers saw the same broadcasts.
func (ss *Session) announce(local announcement) error {
	data, err := protobuf.Encode(&local)
	if err != nil {
		return err
	}
	recv, err := ss.Peer.AllToAll(data)
	if err != nil {
		return err
	}
	var restart []int
	var errs []error
	for i, b := range recv {
		var a announcement
		if err := protobuf.Decode(b, &a); err != nil {
			return fmt.Errorf("announcement of rank %d: %w", i, err)
		}
		if a.Aborted && i != ss.Peer.GetRank() {
			errs = append(errs, fmt.Errorf("%w: participant %d aborted the attempt", ErrMalformedTokens, i+1))
		}
		if a.Head != local.Head {
			errs = append(errs, fmt.Errorf("%w: rank %d has head %s, local head %s", ErrDivergentTranscript, i, a.Head, local.Head))
		}
		if a.SelfAssigned {
			restart = append(restart, i+1)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if len(restart) > 0 {
		return &SelfAssignmentError{Participant: restart[0]}
	}
	return nil
}
