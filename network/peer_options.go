package network

import (
	"log/slog"
	"time"
)

type PeerOption func(*Peer)

// WithLogger sets the logger of the peer and of its handler.
func WithLogger(logger *slog.Logger) PeerOption {
	return func(p *Peer) {
		p.logger = logger
	}
}

// WithRetryInterval sets the pause between two delivery attempts.
func WithRetryInterval(interval time.Duration) PeerOption {
	return func(p *Peer) {
		p.retryInterval = interval
	}
}
