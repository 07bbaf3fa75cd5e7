package santa

import (
	"errors"
	"testing"

	"github.com/luca-patrignani/mental-santa/domain/elgamal"
	"github.com/stretchr/testify/require"
)

// rerandomizeOnly is a dishonest round that never moves a token.
var rerandomizeOnly = ShufflerFunc(func(gp *elgamal.GroupParameters, actor int, in TokenList) (TokenList, error) {
	y, err := gp.RandomScalar()
	if err != nil {
		return nil, err
	}
	return in.Rerandomize(gp, y)
})

func runRounds(t *testing.T, gp *elgamal.GroupParameters, participants []*KeyedParticipant, s Shuffler) TokenList {
	t.Helper()
	tl, err := NewTokenList(gp, participants)
	require.NoError(t, err)
	for _, p := range participants {
		tl, err = s.ShuffleRound(gp, p.ID(), tl)
		require.NoError(t, err)
	}
	return tl
}

func TestExtractFindsOwnToken(t *testing.T) {
	gp := newGroup(t)
	participants := newParticipants(t, gp, 7)
	tl := runRounds(t, gp, participants, RandomShuffler{})

	for j, token := range tl {
		id := owner(t, gp, participants, token)
		a, err := participants[id-1].Extract(gp, tl)
		if j+1 == id {
			var sa *SelfAssignmentError
			require.True(t, errors.As(err, &sa))
			require.Equal(t, id, sa.Participant)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, Assignment{Giver: id, Recipient: j + 1}, a)
	}
}

func TestExtractDetectsSelfAssignment(t *testing.T) {
	gp := newGroup(t)
	participants := newParticipants(t, gp, 4)
	tl := runRounds(t, gp, participants, rerandomizeOnly)

	for _, p := range participants {
		_, err := p.Extract(gp, tl)
		require.ErrorIs(t, err, ErrSelfAssignment)
		var sa *SelfAssignmentError
		require.True(t, errors.As(err, &sa))
		require.Equal(t, p.ID(), sa.Participant)
	}
}

func TestExtractMissingToken(t *testing.T) {
	gp := newGroup(t)
	participants := newParticipants(t, gp, 3)
	tl := runRounds(t, gp, participants, RandomShuffler{})

	for j, token := range tl {
		if owner(t, gp, participants, token) == 1 {
			tl[j] = tl[(j+1)%len(tl)]
			break
		}
	}
	_, err := participants[0].Extract(gp, tl)
	require.ErrorIs(t, err, ErrMalformedTokens)
}

func TestExtractDuplicatedToken(t *testing.T) {
	gp := newGroup(t)
	participants := newParticipants(t, gp, 3)
	tl := runRounds(t, gp, participants, RandomShuffler{})

	for j, token := range tl {
		if owner(t, gp, participants, token) == 2 {
			tl[(j+1)%len(tl)] = token
			break
		}
	}
	_, err := participants[1].Extract(gp, tl)
	require.ErrorIs(t, err, ErrMalformedTokens)
}

func TestExtractWithoutKeys(t *testing.T) {
	gp := newGroup(t)
	tl := runRounds(t, gp, newParticipants(t, gp, 2), RandomShuffler{})
	_, err := (&KeyedParticipant{id: 1}).Extract(gp, tl)
	require.ErrorIs(t, err, elgamal.ErrCryptoFailure)
}
