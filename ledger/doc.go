// Package ledger implements an append-only, hash-chained transcript of the
// public broadcasts of one protocol attempt.
//
// # Core Components
//
// Transcript: the chain of blocks for one attempt. The genesis block holds the
// initial token list, every following block the output of one shuffle round.
//
// Block: a single broadcast with its actor and its links to the previous block.
//
// # Comparing Views
//
// Timestamps are local to the observer and are not hashed, so two participants
// that saw the same sequence of broadcasts hold transcripts with the same head
// hash. Comparing heads detects a peer that was sent a different list.
//
// A transcript lives only as long as its attempt: nothing is persisted.
package ledger
