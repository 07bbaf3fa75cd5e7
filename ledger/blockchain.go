package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

const genesisPrevHash = "0"

type Transcript struct {
	mu     sync.RWMutex
	blocks []Block
}

// New creates a transcript whose genesis block carries payload.
func New(label string, payload []byte) *Transcript {
	genesis := Block{
		Index:     0,
		Timestamp: time.Now().Unix(),
		PrevHash:  genesisPrevHash,
		Label:     label,
		Actor:     0,
		Payload:   bytes.Clone(payload),
	}
	genesis.Hash = calculateHash(genesis)
	return &Transcript{blocks: []Block{genesis}}
}

// Append links a new block after the latest one.
func (t *Transcript) Append(label string, actor int, payload []byte) (Block, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	latest := t.blocks[len(t.blocks)-1]
	b := Block{
		Index:     latest.Index + 1,
		Timestamp: time.Now().Unix(),
		PrevHash:  latest.Hash,
		Label:     label,
		Actor:     actor,
		Payload:   bytes.Clone(payload),
	}
	b.Hash = calculateHash(b)

	if err := validateBlock(b, latest); err != nil {
		return Block{}, fmt.Errorf("invalid block: %w", err)
	}
	t.blocks = append(t.blocks, b)
	return b, nil
}

// Latest returns the head of the chain.
func (t *Transcript) Latest() Block {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.blocks[len(t.blocks)-1]
}

// Head is the hash of the latest block.
func (t *Transcript) Head() string {
	return t.Latest().Hash
}

func (t *Transcript) ByIndex(index int) (Block, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index < 0 || index >= len(t.blocks) {
		return Block{}, fmt.Errorf("index %d out of range [0, %d)", index, len(t.blocks))
	}
	return t.blocks[index], nil
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.blocks)
}

// Verify checks the genesis block and every link of the chain.
func (t *Transcript) Verify() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.blocks) == 0 {
		return fmt.Errorf("empty transcript")
	}
	genesis := t.blocks[0]
	if genesis.Index != 0 || genesis.PrevHash != genesisPrevHash {
		return fmt.Errorf("invalid genesis block")
	}
	if genesis.Hash != calculateHash(genesis) {
		return fmt.Errorf("invalid genesis hash")
	}
	for i := 1; i < len(t.blocks); i++ {
		if err := validateBlock(t.blocks[i], t.blocks[i-1]); err != nil {
			return fmt.Errorf("block %d invalid: %w", i, err)
		}
	}
	return nil
}

func validateBlock(current, previous Block) error {
	if current.Index != previous.Index+1 {
		return fmt.Errorf("invalid index: expected %d, got %d", previous.Index+1, current.Index)
	}
	if current.PrevHash != previous.Hash {
		return fmt.Errorf("invalid prev hash: expected %s, got %s", previous.Hash, current.PrevHash)
	}
	expected := calculateHash(current)
	if current.Hash != expected {
		return fmt.Errorf("invalid hash: expected %s, got %s", expected, current.Hash)
	}
	return nil
}

// calculateHash covers every field except Hash and Timestamp.
// Variable length fields are length prefixed.
func calculateHash(b Block) string {
	h := sha256.New()
	var buf [8]byte
	writeInt := func(v int) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeBytes := func(data []byte) {
		writeInt(len(data))
		h.Write(data)
	}
	writeInt(b.Index)
	writeBytes([]byte(b.PrevHash))
	writeBytes([]byte(b.Label))
	writeInt(b.Actor)
	writeBytes(b.Payload)
	return hex.EncodeToString(h.Sum(nil))
}
