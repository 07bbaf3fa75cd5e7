package elgamal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/kyber/v4"
)

func newGroup(t *testing.T) *GroupParameters {
	t.Helper()
	gp, err := GenerateGroupParameters(DefaultSuite)
	require.NoError(t, err)
	return gp
}

func TestGenerateGroupParametersUnknownSuite(t *testing.T) {
	_, err := GenerateGroupParameters("NoSuchGroup")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCryptoFailure))
}

func TestGenerateGroupParametersDeterministic(t *testing.T) {
	a := newGroup(t)
	b := newGroup(t)
	require.True(t, a.G.Equal(b.G))
	require.Equal(t, a.String(), b.String())
}

func TestKeyPairPublicIsGeneratorToSecret(t *testing.T) {
	gp := newGroup(t)
	kp, err := GenerateKeyPair(gp)
	require.NoError(t, err)
	pk, err := ModPow(gp, gp.G, kp.Secret)
	require.NoError(t, err)
	require.True(t, pk.Equal(kp.Public))
	require.False(t, kp.Secret.Equal(gp.Suite.Scalar().Zero()))
}

func TestEncryptWithRandomnessOne(t *testing.T) {
	gp := newGroup(t)
	kp, err := GenerateKeyPair(gp)
	require.NoError(t, err)
	c, err := EncryptWithRandomness(gp, gp.Identity(), kp.Public, gp.Suite.Scalar().One())
	require.NoError(t, err)
	require.True(t, c.C1.Equal(gp.G))
	require.True(t, c.C2.Equal(kp.Public))

	m, err := Decrypt(gp, kp.Secret, c)
	require.NoError(t, err)
	require.True(t, m.Equal(gp.Identity()))
}

func TestEncryptDecryptMessage(t *testing.T) {
	gp := newGroup(t)
	kp, err := GenerateKeyPair(gp)
	require.NoError(t, err)
	m := gp.Suite.Point().Pick(gp.Suite.RandomStream())
	r, err := gp.RandomScalar()
	require.NoError(t, err)
	c, err := EncryptWithRandomness(gp, m, kp.Public, r)
	require.NoError(t, err)
	got, err := Decrypt(gp, kp.Secret, c)
	require.NoError(t, err)
	require.True(t, got.Equal(m))
}

func TestRerandomizeRoundTrip(t *testing.T) {
	gp := newGroup(t)
	for i := 0; i < 20; i++ {
		kp, err := GenerateKeyPair(gp)
		require.NoError(t, err)
		r, err := gp.RandomScalar()
		require.NoError(t, err)
		y, err := gp.RandomScalar()
		require.NoError(t, err)

		// the random message shows the exponent relation, not only 1^y = 1
		for _, m := range []kyber.Point{gp.Identity(), gp.Suite.Point().Pick(gp.Suite.RandomStream())} {
			c, err := EncryptWithRandomness(gp, m, kp.Public, r)
			require.NoError(t, err)
			rc, err := Rerandomize(gp, c, y)
			require.NoError(t, err)
			require.False(t, rc.Equal(c))

			before, err := Decrypt(gp, kp.Secret, c)
			require.NoError(t, err)
			after, err := Decrypt(gp, kp.Secret, rc)
			require.NoError(t, err)
			want, err := ModPow(gp, before, y)
			require.NoError(t, err)
			require.True(t, after.Equal(want))
		}
	}
}

func TestNilOperands(t *testing.T) {
	gp := newGroup(t)
	_, err := ModPow(gp, nil, gp.Suite.Scalar().One())
	require.ErrorIs(t, err, ErrCryptoFailure)
	_, err = EncryptWithRandomness(gp, gp.Identity(), nil, gp.Suite.Scalar().One())
	require.ErrorIs(t, err, ErrCryptoFailure)
	_, err = GenerateKeyPair(nil)
	require.ErrorIs(t, err, ErrCryptoFailure)
	_, err = Decrypt(gp, gp.Suite.Scalar().One(), Ciphertext{})
	require.ErrorIs(t, err, ErrCryptoFailure)
}
