package santa

import (
	"crypto/cipher"
	"fmt"
	"math/big"

	"github.com/luca-patrignani/mental-santa/domain/elgamal"
	"go.dedis.ch/kyber/v4/util/random"
)

// Shuffler performs the round of one participant: it consumes the previous
// round's list and returns the list handed to the next round.
type Shuffler interface {
	ShuffleRound(gp *elgamal.GroupParameters, actor int, in TokenList) (TokenList, error)
}

// ShufflerFunc adapts a function to the Shuffler interface.
type ShufflerFunc func(gp *elgamal.GroupParameters, actor int, in TokenList) (TokenList, error)

func (f ShufflerFunc) ShuffleRound(gp *elgamal.GroupParameters, actor int, in TokenList) (TokenList, error) {
	return f(gp, actor, in)
}

// RandomShuffler applies a uniform permutation and re-randomizes every token
// with a fresh private scalar.
type RandomShuffler struct{}

func (RandomShuffler) ShuffleRound(gp *elgamal.GroupParameters, actor int, in TokenList) (TokenList, error) {
	y, err := gp.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("round of participant %d: %w", actor, err)
	}
	permuted, err := in.Permute(Permutation(len(in), gp.Suite.RandomStream()))
	if err != nil {
		return nil, fmt.Errorf("round of participant %d: %w", actor, err)
	}
	out, err := permuted.Rerandomize(gp, y)
	if err != nil {
		return nil, fmt.Errorf("round of participant %d: %w", actor, err)
	}
	return out, nil
}

// Permutation returns a uniformly random permutation of [0, n) drawn with
// Fisher-Yates from rand.
func Permutation(n int, rand cipher.Stream) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		// random.Int never returns 0, so draw from [1, i+2) and shift down
		j := int(random.Int(big.NewInt(int64(i+2)), rand).Int64()) - 1
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
