package core

import (
	"encoding/binary"
	"time"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/crypto"
)

// GenesisPrevHash is the sentinel parent reference carried by block 0.
const GenesisPrevHash = "0"

// Block is one element of the hash-linked chain. Hash caches the most recent
// ComputeHash result for display; it is never an independent source of truth,
// so anything that needs the real digest recomputes it.
type Block struct {
	Index        uint64        `json:"index"`
	Timestamp    int64         `json:"timestamp"`
	PrevHash     string        `json:"prev_hash"`
	Transactions []Transaction `json:"transactions"`
	Nonce        uint64        `json:"nonce"`
	Hash         string        `json:"hash"`
}

// NewBlock assembles an unmined block on top of prevHash, timestamped now,
// with nonce 0. The hash is left empty until the nonce search runs.
func NewBlock(index uint64, prevHash string, transactions []Transaction) *Block {
	return &Block{
		Index:        index,
		Timestamp:    time.Now().UnixNano(),
		PrevHash:     prevHash,
		Transactions: transactions,
	}
}

// HeaderBytes encodes every hashed field in a fixed order: index, timestamp,
// previous hash, nonce, then each transaction's core bytes and signature.
// The nonce sits inside the encoding, so incrementing it changes the digest.
func (b *Block) HeaderBytes() []byte {
	buf := make([]byte, 0, 32+len(b.PrevHash)+len(b.Transactions)*160)
	buf = binary.BigEndian.AppendUint64(buf, b.Index)
	buf = binary.BigEndian.AppendUint64(buf, uint64(b.Timestamp))
	buf = append(buf, b.PrevHash...)
	buf = binary.BigEndian.AppendUint64(buf, b.Nonce)
	for i := range b.Transactions {
		buf = append(buf, b.Transactions[i].CoreBytes()...)
		buf = append(buf, b.Transactions[i].Signature...)
	}
	return buf
}

// ComputeHash computes the hex SHA-256 digest of HeaderBytes and refreshes
// the cached Hash. Idempotent for unchanged fields.
func (b *Block) ComputeHash() string {
	b.Hash = crypto.HashHex(b.HeaderBytes())
	return b.Hash
}

// ValidUnder reports whether the block's recomputed hash satisfies the
// difficulty predicate. Not a retry loop; the node owns the nonce search.
func (b *Block) ValidUnder(p HashPredicate) bool {
	return p.Admits(b.ComputeHash())
}
