// Package elgamal provides the group primitives consumed by the secret santa
// protocol: group parameters, key pairs, encryption under caller supplied
// randomness, decryption and exponentiation.
//
// The group is a kyber suite written in multiplicative notation: q is the
// group order, g the standard base point, and "b^e" is the scalar
// multiplication e*b. The plaintext 1 is the identity element.
//
// Every failure is reported as an error wrapping ErrCryptoFailure.
package elgamal
