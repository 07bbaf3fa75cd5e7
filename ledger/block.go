package ledger

// Block records one public broadcast of an attempt.
type Block struct {
	Index     int    `json:"index"`
	Timestamp int64  `json:"timestamp"`
	PrevHash  string `json:"prev_hash"`
	Hash      string `json:"hash"`
	Label     string `json:"label"`
	Actor     int    `json:"actor"` // participant id that produced the payload, 0 for genesis
	Payload   []byte `json:"payload"`
}
