package core

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/account"
	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/db"
)

// Snapshot key layout: blocks live under 'b' + big-endian index so that
// iteration order matches chain order; the block count lives under 'h'.
var heightKey = []byte("h")

func blockKey(index uint64) []byte {
	key := make([]byte, 9)
	key[0] = 'b'
	binary.BigEndian.PutUint64(key[1:], index)
	return key
}

// ChainStore persists chain snapshots in a key-value database. Blocks are
// JSON-encoded and written in one atomic batch.
type ChainStore struct {
	db db.Database
}

// NewChainStore wraps database as a snapshot store.
func NewChainStore(database db.Database) *ChainStore {
	return &ChainStore{db: database}
}

// Save writes the whole chain as one batch, replacing any previous snapshot.
func (s *ChainStore) Save(chain []Block) error {
	batch := s.db.Batch()
	for i := range chain {
		data, err := json.Marshal(&chain[i])
		if err != nil {
			return fmt.Errorf("encode block %d: %w", chain[i].Index, err)
		}
		if err := batch.Put(blockKey(chain[i].Index), data); err != nil {
			return err
		}
	}

	height := make([]byte, 8)
	binary.BigEndian.PutUint64(height, uint64(len(chain)))
	if err := batch.Put(heightKey, height); err != nil {
		return err
	}

	return batch.Write()
}

// Load reads the snapshot back in index order. It returns db.ErrKeyNotFound
// when no snapshot has been written.
func (s *ChainStore) Load() ([]Block, error) {
	heightBytes, err := s.db.Get(heightKey)
	if err != nil {
		return nil, err
	}
	if len(heightBytes) != 8 {
		return nil, errors.New("snapshot corrupt: malformed height record")
	}
	height := binary.BigEndian.Uint64(heightBytes)

	// Big-endian block keys sort inside ['b', 'c').
	iter, err := s.db.Iterator([]byte("b"), []byte("c"))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	chain := make([]Block, 0, height)
	for iter.Next() {
		var block Block
		if err := json.Unmarshal(iter.Value(), &block); err != nil {
			return nil, fmt.Errorf("decode block at key %x: %w", iter.Key(), err)
		}
		chain = append(chain, block)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	if uint64(len(chain)) != height {
		return nil, fmt.Errorf("snapshot corrupt: height records %d blocks, found %d", height, len(chain))
	}
	return chain, nil
}

// NewNodeFromSnapshot restores a node from a previously saved chain instead
// of mining a fresh genesis. The restored chain must pass validation before
// the node adopts it; the pool is reseeded with the reward transaction for
// the last mined block, matching the state right after that mine.
func NewNodeFromSnapshot(miner account.Address, store *ChainStore, opts ...Option) (*Node, error) {
	chain, err := store.Load()
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, errors.New("snapshot holds an empty chain")
	}

	n := newNode(miner, opts...)
	n.chain = chain
	if ok, fault := n.ValidateChain(); !ok {
		return nil, fmt.Errorf("restored chain rejected: %w", fault)
	}
	n.pending = []Transaction{NewRewardTransaction(n.miner, n.reward)}

	n.log.Info("chain restored from snapshot", "height", len(chain))
	return n, nil
}
