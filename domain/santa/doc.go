// Package santa implements a coordinator-free secret santa: N participants
// jointly draw a derangement in which everyone learns only their own recipient.
//
// # Protocol
//
// Each participant i generates a key pair (x_i, g^x_i) and contributes the
// token Enc(1; r=1) = (g, g^x_i). The token list then goes through N rounds,
// one per participant in id order. In their round a participant permutes the
// list uniformly at random and raises every component of every token to the
// same private scalar y. After all rounds every token has the form
// (g^Y, g^(x_i*Y)) for the product Y of all scalars, so participant p finds
// their own token as the one whose c2 equals c1^x_p. Its 1-indexed position is
// their recipient.
//
// If any participant lands on their own position the whole attempt is thrown
// away, keys and tokens included, and a new attempt starts from scratch.
// A single round is never retried on its own.
//
// # Trust Assumption
//
// Rounds are not verifiable: nothing proves that a participant applied a
// genuinely random permutation. A participant who performs the identity
// permutation, or any permutation of their choice, is not detected. Every
// participant is trusted to shuffle honestly.
//
// # Core Components
//
// Orchestrator: runs every participant in process and retries attempts until
// one is accepted.
//
// Session: runs a single participant over a NetworkLayer, one process per
// participant, announcing self-assignments to all peers.
//
// Outcome: exposes each participant's edge separately; Reveal gives the full
// mapping for testing.
package santa
