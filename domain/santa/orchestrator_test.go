package santa

import (
	"errors"
	"fmt"
	"testing"

	"github.com/luca-patrignani/mental-santa/domain/elgamal"
	"github.com/stretchr/testify/require"
)

func TestNewOrchestratorRejectsInvalidConfig(t *testing.T) {
	for _, n := range []int{-1, 0, 1} {
		_, err := NewOrchestrator(n)
		require.ErrorIs(t, err, ErrInvalidConfig, "n=%d", n)
	}
	_, err := NewOrchestrator(3, WithSuite("NoSuchGroup"))
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewOrchestrator(3, WithShuffler(nil))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunProducesDerangement(t *testing.T) {
	o, err := NewOrchestrator(10)
	require.NoError(t, err)
	require.Equal(t, Running, o.State())

	outcome, err := o.Run()
	require.NoError(t, err)
	require.Equal(t, Done, o.State())
	require.Equal(t, o.Attempts(), outcome.Attempts())
	require.Equal(t, 10, outcome.Participants())

	d := outcome.Reveal()
	require.Len(t, d, 10)
	require.NoError(t, d.Validate())
	for id := 1; id <= 10; id++ {
		a, err := outcome.For(id)
		require.NoError(t, err)
		require.Equal(t, id, a.Giver)
		require.Equal(t, d[id], a.Recipient)
	}
	_, err = outcome.For(11)
	require.Error(t, err)

	again, err := o.Run()
	require.NoError(t, err)
	require.Same(t, outcome, again)
}

func TestTwoParticipantsAlwaysSwap(t *testing.T) {
	for i := 0; i < 30; i++ {
		o, err := NewOrchestrator(2)
		require.NoError(t, err)
		outcome, err := o.Run()
		require.NoError(t, err)
		require.Equal(t, Derangement{1: 2, 2: 1}, outcome.Reveal())
	}
}

func TestThreeParticipantsOnlyThreeCycles(t *testing.T) {
	for i := 0; i < 60; i++ {
		var reports []AttemptReport
		o, err := NewOrchestrator(3, WithObserver(func(r AttemptReport) {
			reports = append(reports, r)
		}))
		require.NoError(t, err)
		outcome, err := o.Run()
		require.NoError(t, err)
		require.Contains(t, []string{"2 3 1", "3 1 2"}, outcome.Reveal().String())

		require.Len(t, reports, outcome.Attempts())
		for _, r := range reports[:len(reports)-1] {
			require.ErrorIs(t, r.Err, ErrSelfAssignment)
			require.False(t, r.Accepted())
		}
		require.True(t, reports[len(reports)-1].Accepted())
	}
}

func TestAcceptedDerangementsAreUniform(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	for _, n := range []int{3, 4, 5} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			categories := int(CountDerangements(n).Int64())
			samples := 30 * categories
			counts := map[string]float64{}
			for i := 0; i < samples; i++ {
				o, err := NewOrchestrator(n)
				require.NoError(t, err)
				outcome, err := o.Run()
				require.NoError(t, err)
				d := outcome.Reveal()
				require.NoError(t, d.Validate())
				counts[d.String()]++
			}
			require.LessOrEqual(t, len(counts), categories)
			p := chiSquarePValue(counts, categories, samples)
			require.Greater(t, p, 0.001, "counts %v", counts)
		})
	}
}

// The first attempt is rigged so that nobody's token moves. Nothing from it
// may survive into the accepted attempt.
func TestSelfAssignmentDiscardsWholeAttempt(t *testing.T) {
	n := 5
	rounds := 0
	rigged := ShufflerFunc(func(gp *elgamal.GroupParameters, actor int, in TokenList) (TokenList, error) {
		rounds++
		if rounds <= n {
			return rerandomizeOnly(gp, actor, in)
		}
		return RandomShuffler{}.ShuffleRound(gp, actor, in)
	})
	var reports []AttemptReport
	o, err := NewOrchestrator(n, WithShuffler(rigged), WithObserver(func(r AttemptReport) {
		reports = append(reports, r)
	}))
	require.NoError(t, err)

	outcome, err := o.Run()
	require.NoError(t, err)
	require.GreaterOrEqual(t, outcome.Attempts(), 2)
	require.NoError(t, outcome.Reveal().Validate())

	first := reports[0]
	var sa *SelfAssignmentError
	require.True(t, errors.As(first.Err, &sa))
	require.Equal(t, 1, sa.Participant)
	require.Equal(t, n+1, first.Transcript.Len())
	require.NoError(t, first.Transcript.Verify())

	last := reports[len(reports)-1]
	require.True(t, last.Accepted())
	require.Equal(t, outcome.AttemptID(), last.ID)
	require.NotEqual(t, first.ID, last.ID)

	gp := newGroup(t)
	initialKeys := func(r AttemptReport) TokenList {
		genesis, err := r.Transcript.ByIndex(0)
		require.NoError(t, err)
		tl, err := UnmarshalTokenList(gp, genesis.Payload)
		require.NoError(t, err)
		require.Len(t, tl, n)
		return tl
	}
	stale := initialKeys(first)
	fresh := initialKeys(last)
	for _, old := range stale {
		for _, cur := range fresh {
			require.False(t, old.C2.Equal(cur.C2), "public key reused across attempts")
		}
	}

	// the accepted transcript contains no list from the discarded attempt
	for i := 0; i < last.Transcript.Len(); i++ {
		b, err := last.Transcript.ByIndex(i)
		require.NoError(t, err)
		for j := 0; j < first.Transcript.Len(); j++ {
			old, err := first.Transcript.ByIndex(j)
			require.NoError(t, err)
			require.NotEqual(t, old.Payload, b.Payload)
		}
	}
}

func TestCryptoFailureAbortsRun(t *testing.T) {
	failing := ShufflerFunc(func(gp *elgamal.GroupParameters, actor int, in TokenList) (TokenList, error) {
		return nil, fmt.Errorf("%w: no randomness", elgamal.ErrCryptoFailure)
	})
	o, err := NewOrchestrator(4, WithShuffler(failing))
	require.NoError(t, err)
	_, err = o.Run()
	require.ErrorIs(t, err, elgamal.ErrCryptoFailure)
	require.Equal(t, 1, o.Attempts())
	require.Equal(t, Running, o.State())
}

func TestMalformedRoundAbortsRun(t *testing.T) {
	dropping := ShufflerFunc(func(gp *elgamal.GroupParameters, actor int, in TokenList) (TokenList, error) {
		return in[1:], nil
	})
	o, err := NewOrchestrator(4, WithShuffler(dropping))
	require.NoError(t, err)
	_, err = o.Run()
	require.ErrorIs(t, err, ErrMalformedTokens)
	require.Equal(t, 1, o.Attempts())
}
