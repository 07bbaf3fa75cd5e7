package santa

import (
	"fmt"

	"github.com/luca-patrignani/mental-santa/domain/elgamal"
	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/protobuf"
)

// TokenList is the list of ciphertexts passed from round to round.
type TokenList []elgamal.Ciphertext

// NewTokenList builds [token_1, ..., token_N] in participant order.
func NewTokenList(gp *elgamal.GroupParameters, participants []*KeyedParticipant) (TokenList, error) {
	tl := make(TokenList, len(participants))
	for i, p := range participants {
		if p.ID() != i+1 {
			return nil, fmt.Errorf("participant at position %d has id %d", i+1, p.ID())
		}
		t, err := p.InitialToken(gp)
		if err != nil {
			return nil, err
		}
		tl[i] = t
	}
	return tl, nil
}

func (tl TokenList) Clone() TokenList {
	out := make(TokenList, len(tl))
	for i, t := range tl {
		out[i] = t.Clone()
	}
	return out
}

// Shared returns the c1 component common to every token.
func (tl TokenList) Shared() (kyber.Point, error) {
	if len(tl) == 0 || tl[0].C1 == nil {
		return nil, fmt.Errorf("%w: empty list", ErrMalformedTokens)
	}
	return tl[0].C1, nil
}

// Validate checks the length invariant and that all tokens share c1.
func (tl TokenList) Validate(n int) error {
	if len(tl) != n {
		return fmt.Errorf("%w: expected %d tokens, got %d", ErrMalformedTokens, n, len(tl))
	}
	shared, err := tl.Shared()
	if err != nil {
		return err
	}
	for i, t := range tl {
		if t.C1 == nil || t.C2 == nil {
			return fmt.Errorf("%w: token %d is incomplete", ErrMalformedTokens, i+1)
		}
		if !t.C1.Equal(shared) {
			return fmt.Errorf("%w: token %d does not share c1", ErrMalformedTokens, i+1)
		}
	}
	return nil
}

// Permute returns out with out[i] = tl[perm[i]].
func (tl TokenList) Permute(perm []int) (TokenList, error) {
	if len(perm) != len(tl) {
		return nil, fmt.Errorf("permutation of size %d for %d tokens", len(perm), len(tl))
	}
	seen := make([]bool, len(tl))
	out := make(TokenList, len(tl))
	for i, j := range perm {
		if j < 0 || j >= len(tl) || seen[j] {
			return nil, fmt.Errorf("not a permutation: %v", perm)
		}
		seen[j] = true
		out[i] = tl[j].Clone()
	}
	return out, nil
}

// Rerandomize raises every token to the same scalar y.
func (tl TokenList) Rerandomize(gp *elgamal.GroupParameters, y kyber.Scalar) (TokenList, error) {
	out := make(TokenList, len(tl))
	for i, t := range tl {
		r, err := elgamal.Rerandomize(gp, t, y)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i+1, err)
		}
		out[i] = r
	}
	return out, nil
}

type wireToken struct {
	C1 []byte
	C2 []byte
}

type wireTokenList struct {
	Tokens []wireToken
}

func (tl TokenList) MarshalBinary() ([]byte, error) {
	msg := wireTokenList{Tokens: make([]wireToken, len(tl))}
	for i, t := range tl {
		c1, err := t.C1.MarshalBinary()
		if err != nil {
			return nil, err
		}
		c2, err := t.C2.MarshalBinary()
		if err != nil {
			return nil, err
		}
		msg.Tokens[i] = wireToken{C1: c1, C2: c2}
	}
	return protobuf.Encode(&msg)
}

// UnmarshalTokenList decodes a list produced by TokenList.MarshalBinary.
func UnmarshalTokenList(gp *elgamal.GroupParameters, data []byte) (TokenList, error) {
	var msg wireTokenList
	if err := protobuf.Decode(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTokens, err)
	}
	tl := make(TokenList, len(msg.Tokens))
	for i, w := range msg.Tokens {
		c1 := gp.Suite.Point()
		if err := c1.UnmarshalBinary(w.C1); err != nil {
			return nil, fmt.Errorf("%w: token %d: %w", ErrMalformedTokens, i+1, err)
		}
		c2 := gp.Suite.Point()
		if err := c2.UnmarshalBinary(w.C2); err != nil {
			return nil, fmt.Errorf("%w: token %d: %w", ErrMalformedTokens, i+1, err)
		}
		tl[i] = elgamal.Ciphertext{C1: c1, C2: c2}
	}
	return tl, nil
}
