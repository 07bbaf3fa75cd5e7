package santa

import (
	"fmt"

	"github.com/luca-patrignani/mental-santa/domain/elgamal"
	"go.dedis.ch/kyber/v4"
)

// State tags the lifecycle of a participant within one attempt.
type State int

const (
	Initialized State = iota
	KeyGenerated
	Assigned
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case KeyGenerated:
		return "key-generated"
	case Assigned:
		return "assigned"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Participant is a party that has an identity but no key material yet.
type Participant struct {
	ID int
}

func NewParticipant(id int) Participant {
	return Participant{ID: id}
}

func (p Participant) State() State { return Initialized }

// GenerateKeys moves the participant to the KeyGenerated state.
func (p Participant) GenerateKeys(gp *elgamal.GroupParameters) (*KeyedParticipant, error) {
	if p.ID < 1 {
		return nil, fmt.Errorf("participant id must be positive, got %d", p.ID)
	}
	keys, err := elgamal.GenerateKeyPair(gp)
	if err != nil {
		return nil, fmt.Errorf("participant %d: %w", p.ID, err)
	}
	return &KeyedParticipant{id: p.ID, keys: keys}, nil
}

// KeyedParticipant owns a key pair for the current attempt. It can only be
// obtained from Participant.GenerateKeys.
type KeyedParticipant struct {
	id   int
	keys elgamal.KeyPair
}

func (kp *KeyedParticipant) ID() int { return kp.id }

func (kp *KeyedParticipant) State() State { return KeyGenerated }

func (kp *KeyedParticipant) PublicKey() kyber.Point {
	return kp.keys.Public
}

// InitialToken encrypts 1 under the participant's key with randomness 1,
// which yields (g, pk).
func (kp *KeyedParticipant) InitialToken(gp *elgamal.GroupParameters) (elgamal.Ciphertext, error) {
	if kp == nil || kp.keys.Public == nil {
		return elgamal.Ciphertext{}, fmt.Errorf("%w: participant has no key pair", elgamal.ErrCryptoFailure)
	}
	return elgamal.EncryptWithRandomness(gp, gp.Identity(), kp.keys.Public, gp.Suite.Scalar().One())
}

// Assignment is the single edge known to its giver.
type Assignment struct {
	Giver     int
	Recipient int
}

func (a Assignment) State() State { return Assigned }

func (a Assignment) String() string {
	return fmt.Sprintf("%d -> %d", a.Giver, a.Recipient)
}
