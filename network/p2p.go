package network

// P2P adapts a Peer to the santa.NetworkLayer interface.
type P2P struct {
	peer *Peer
}

// NewP2P wraps a started Peer. Closing the P2P shuts the peer down.
func NewP2P(peer *Peer) *P2P {
	return &P2P{peer: peer}
}

func (p *P2P) Broadcast(data []byte, root int) ([]byte, error) {
	return p.peer.Broadcast(data, root)
}

func (p *P2P) AllToAll(data []byte) ([][]byte, error) {
	return p.peer.AllToAll(data)
}

func (p *P2P) GetRank() int {
	return p.peer.Rank
}

func (p *P2P) GetPeerCount() int {
	return len(p.peer.Addresses)
}

// GetAddresses returns a copy of the rank to address map.
func (p *P2P) GetAddresses() map[int]string {
	return copyMap(p.peer.Addresses)
}

func (p *P2P) Close() error {
	return p.peer.Close()
}
