package elgamal

import (
	"crypto/cipher"
	"errors"
	"fmt"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/suites"
)

// ErrCryptoFailure is wrapped by every error returned by this package.
var ErrCryptoFailure = errors.New("crypto failure")

// DefaultSuite is the group used when no suite is configured.
const DefaultSuite = "Ed25519"

// GroupParameters is the cyclic group shared read-only by all participants
// of one attempt. The group order plays the role of q and G the generator g.
type GroupParameters struct {
	Suite suites.Suite
	G     kyber.Point
}

// KeyPair is a secret scalar x and its public key g^x.
type KeyPair struct {
	Secret kyber.Scalar
	Public kyber.Point
}

// Ciphertext is an ElGamal pair (c1, c2).
type Ciphertext struct {
	C1 kyber.Point
	C2 kyber.Point
}

// GenerateGroupParameters looks up the named kyber suite.
// The result is deterministic for a given name, so it may be cached.
func GenerateGroupParameters(name string) (*GroupParameters, error) {
	suite, err := suites.Find(name)
	if err != nil {
		return nil, fmt.Errorf("%w: group parameters: %w", ErrCryptoFailure, err)
	}
	return &GroupParameters{
		Suite: suite,
		G:     suite.Point().Base(),
	}, nil
}

func (gp *GroupParameters) String() string {
	return gp.Suite.String()
}

func (gp *GroupParameters) check() error {
	if gp == nil || gp.Suite == nil || gp.G == nil {
		return fmt.Errorf("%w: group parameters not initialised", ErrCryptoFailure)
	}
	return nil
}

// RandomScalar samples a scalar uniformly from [1, q).
func (gp *GroupParameters) RandomScalar() (kyber.Scalar, error) {
	if err := gp.check(); err != nil {
		return nil, err
	}
	return gp.randomScalar(gp.Suite.RandomStream()), nil
}

func (gp *GroupParameters) randomScalar(rand cipher.Stream) kyber.Scalar {
	zero := gp.Suite.Scalar().Zero()
	s := gp.Suite.Scalar().Pick(rand)
	for s.Equal(zero) {
		s = gp.Suite.Scalar().Pick(rand)
	}
	return s
}

// GenerateKeyPair samples x uniformly and returns (x, g^x).
func GenerateKeyPair(gp *GroupParameters) (KeyPair, error) {
	x, err := gp.RandomScalar()
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{
		Secret: x,
		Public: gp.Suite.Point().Mul(x, gp.G),
	}, nil
}

// Identity is the encoding of the plaintext 1.
func (gp *GroupParameters) Identity() kyber.Point {
	return gp.Suite.Point().Null()
}

// ModPow returns base^exponent in multiplicative notation,
// which for a kyber group is the scalar multiplication exponent*base.
func ModPow(gp *GroupParameters, base kyber.Point, exponent kyber.Scalar) (kyber.Point, error) {
	if err := gp.check(); err != nil {
		return nil, err
	}
	if base == nil || exponent == nil {
		return nil, fmt.Errorf("%w: modpow of nil operand", ErrCryptoFailure)
	}
	return gp.Suite.Point().Mul(exponent, base), nil
}

// EncryptWithRandomness encrypts m under pk with caller supplied randomness r:
// c1 = g^r, c2 = m * pk^r.
func EncryptWithRandomness(gp *GroupParameters, m kyber.Point, pk kyber.Point, r kyber.Scalar) (Ciphertext, error) {
	if err := gp.check(); err != nil {
		return Ciphertext{}, err
	}
	if m == nil || pk == nil || r == nil {
		return Ciphertext{}, fmt.Errorf("%w: encrypt with nil operand", ErrCryptoFailure)
	}
	c1 := gp.Suite.Point().Mul(r, gp.G)
	c2 := gp.Suite.Point().Mul(r, pk)
	c2.Add(c2, m)
	return Ciphertext{C1: c1, C2: c2}, nil
}

// Decrypt returns c2 / c1^x.
func Decrypt(gp *GroupParameters, x kyber.Scalar, c Ciphertext) (kyber.Point, error) {
	if err := gp.check(); err != nil {
		return nil, err
	}
	if x == nil || c.C1 == nil || c.C2 == nil {
		return nil, fmt.Errorf("%w: decrypt with nil operand", ErrCryptoFailure)
	}
	s := gp.Suite.Point().Mul(x, c.C1)
	return gp.Suite.Point().Sub(c.C2, s), nil
}

// Rerandomize raises both components to y. For an encryption of 1 the
// result is again an encryption of 1 under the same key.
func Rerandomize(gp *GroupParameters, c Ciphertext, y kyber.Scalar) (Ciphertext, error) {
	c1, err := ModPow(gp, c.C1, y)
	if err != nil {
		return Ciphertext{}, err
	}
	c2, err := ModPow(gp, c.C2, y)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{C1: c1, C2: c2}, nil
}

func (c Ciphertext) Equal(o Ciphertext) bool {
	return c.C1.Equal(o.C1) && c.C2.Equal(o.C2)
}

func (c Ciphertext) Clone() Ciphertext {
	return Ciphertext{C1: c.C1.Clone(), C2: c.C2.Clone()}
}

func (c Ciphertext) String() string {
	return fmt.Sprintf("(%s, %s)", c.C1, c.C2)
}
