package santa

import (
	"fmt"

	"github.com/luca-patrignani/mental-santa/domain/elgamal"
)

// Extract recovers the participant's recipient from the final broadcast list:
// the 1-indexed position j where c2 equals shared^x.
// A self-assignment is reported as *SelfAssignmentError.
func (kp *KeyedParticipant) Extract(gp *elgamal.GroupParameters, tl TokenList) (Assignment, error) {
	if kp == nil || kp.keys.Secret == nil {
		return Assignment{}, fmt.Errorf("%w: participant has no key pair", elgamal.ErrCryptoFailure)
	}
	shared, err := tl.Shared()
	if err != nil {
		return Assignment{}, err
	}
	target, err := elgamal.ModPow(gp, shared, kp.keys.Secret)
	if err != nil {
		return Assignment{}, fmt.Errorf("participant %d: %w", kp.id, err)
	}

	position := 0
	for j, t := range tl {
		if t.C2 == nil || !t.C2.Equal(target) {
			continue
		}
		if position != 0 {
			return Assignment{}, fmt.Errorf("%w: token of participant %d found twice", ErrMalformedTokens, kp.id)
		}
		position = j + 1
	}
	if position == 0 {
		return Assignment{}, fmt.Errorf("%w: token of participant %d not found", ErrMalformedTokens, kp.id)
	}
	if position == kp.id {
		return Assignment{}, &SelfAssignmentError{Participant: kp.id}
	}
	return Assignment{Giver: kp.id, Recipient: position}, nil
}
