// Package network provides the synchronous broadcast that the secret santa
// protocol assumes: every peer observes every round's output in full before
// the next round starts.
//
// # Core Components
//
// Peer: low-level node that exchanges messages over HTTP. Each message carries
// the sender's logical clock and is only accepted by a receiver waiting for
// that same clock, so messages of different collective operations never mix.
//
// P2P: adapter implementing santa.NetworkLayer.
//
// # Communication Patterns
//
// Broadcast: one node sends data to all other nodes.
//
// AllToAll: each node sends data to all other nodes, in rank order.
//
// # Synchronization
//
// Broadcast ends with a barrier, so no peer can leave it before every peer
// has entered it. Senders retry until the receiver accepts or the peer
// timeout expires.
package network
