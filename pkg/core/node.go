package core

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/account"
)

// DefaultReward is the value credited to the miner after each mined block.
const DefaultReward = 1.0

// Node is a single-node ledger: a hash-linked chain of mined blocks plus a
// pool of transactions awaiting inclusion. One lock guards chain and pool, so
// a concurrent submission can never interleave its balance check with a
// mid-mining mutation.
type Node struct {
	mu        sync.RWMutex
	miner     account.Address
	chain     []Block
	pending   []Transaction
	predicate HashPredicate
	reward    float64

	workers     int
	maxAttempts uint64
	log         *slog.Logger
}

// Option configures a Node at construction.
type Option func(*Node)

// WithPredicate replaces the default difficulty rule.
func WithPredicate(p HashPredicate) Option {
	return func(n *Node) {
		if p != nil {
			n.predicate = p
		}
	}
}

// WithReward sets the mining reward value.
func WithReward(reward float64) Option {
	return func(n *Node) {
		n.reward = reward
	}
}

// WithWorkers sets how many goroutines share the nonce search. Values below
// 2 keep the sequential search.
func WithWorkers(workers int) Option {
	return func(n *Node) {
		if workers > 0 {
			n.workers = workers
		}
	}
}

// WithMaxAttempts bounds the nonce space searched per block. 0 searches
// forever, matching the reference behavior of the unbounded loop.
func WithMaxAttempts(limit uint64) Option {
	return func(n *Node) {
		n.maxAttempts = limit
	}
}

// WithLogger routes the node's logging.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		if logger != nil {
			n.log = logger
		}
	}
}

func newNode(miner account.Address, opts ...Option) *Node {
	n := &Node{
		miner:     miner,
		predicate: NewSuffixPredicate(DefaultSuffix),
		reward:    DefaultReward,
		workers:   1,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewNode creates a node crediting rewards to miner and synthesizes the
// genesis block by running the normal mining procedure once at sequence 0.
// The chain is never observed empty.
func NewNode(miner account.Address, opts ...Option) (*Node, error) {
	n := newNode(miner, opts...)
	if _, err := n.MineBlock(context.Background()); err != nil {
		return nil, fmt.Errorf("mine genesis block: %w", err)
	}
	return n, nil
}

// SubmitTransaction checks tx and appends it to the pending pool. The
// signature is verified first, then the sender's chain-derived balance must
// cover the value. Rejections return a *TxError carrying the transaction and
// reason; the pool is mutated only on success.
//
// Pooled transactions are not re-checked at mining time: a transaction
// accepted here is trusted as-is when it is later mined into a block.
func (n *Node) SubmitTransaction(tx Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := tx.Validate(); err != nil {
		n.log.Warn("transaction rejected",
			"reason", ReasonSignatureInvalid,
			"sender", tx.Sender.Display(),
			"recipient", tx.Recipient.Display(),
			"value", tx.Value)
		return &TxError{Tx: tx, Reason: ReasonSignatureInvalid, Err: err}
	}

	balance := n.balanceLocked(tx.Sender)
	if balance < tx.Value {
		n.log.Warn("transaction rejected",
			"reason", ReasonInsufficientFunds,
			"sender", tx.Sender.Display(),
			"balance", balance,
			"value", tx.Value)
		return &TxError{
			Tx:     tx,
			Reason: ReasonInsufficientFunds,
			Err: fmt.Errorf("balance %s below value %s",
				strconv.FormatFloat(balance, 'f', -1, 64),
				strconv.FormatFloat(tx.Value, 'f', -1, 64)),
		}
	}

	n.pending = append(n.pending, tx)
	n.log.Debug("transaction pooled",
		"sender", tx.Sender.Display(),
		"recipient", tx.Recipient.Display(),
		"value", tx.Value,
		"pool_size", len(n.pending))
	return nil
}

// ValidateChain walks every adjacent block pair from index 1 upward. For
// each pair it checks the later block's stored parent reference against the
// predecessor's recomputed hash, then the later block's own recomputed hash
// against the difficulty predicate. It reports the first fault found and
// never panics. Genesis is not checked against a predecessor; its own proof
// of work is guaranteed by construction.
func (n *Node) ValidateChain() (bool, *ChainFault) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for i := 1; i < len(n.chain); i++ {
		prev := n.chain[i-1]
		cur := n.chain[i]

		if cur.PrevHash != prev.ComputeHash() {
			return false, &ChainFault{Index: cur.Index, Reason: FaultLinkageMismatch}
		}
		if !cur.ValidUnder(n.predicate) {
			return false, &ChainFault{Index: cur.Index, Reason: FaultPowInvalid}
		}
	}
	return true, nil
}

// Balance derives addr's balance by scanning every transaction in the chain
// in order: value is subtracted where addr is the sender and added where it
// is the recipient. Balances are never cached; the chain is the only source
// of truth. Pending transactions do not count until mined.
func (n *Node) Balance(addr account.Address) float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.balanceLocked(addr)
}

func (n *Node) balanceLocked(addr account.Address) float64 {
	var balance float64
	for i := range n.chain {
		for j := range n.chain[i].Transactions {
			tx := &n.chain[i].Transactions[j]
			if tx.Sender == addr {
				balance -= tx.Value
			}
			if tx.Recipient == addr {
				balance += tx.Value
			}
		}
	}
	return balance
}

// Chain returns a copy of the chain. Blocks are read-only once appended, so
// the copied headers can safely share their transaction slices.
func (n *Node) Chain() []Block {
	n.mu.RLock()
	defer n.mu.RUnlock()

	chain := make([]Block, len(n.chain))
	copy(chain, n.chain)
	return chain
}

// Pending returns a copy of the pending pool.
func (n *Node) Pending() []Transaction {
	n.mu.RLock()
	defer n.mu.RUnlock()

	pending := make([]Transaction, len(n.pending))
	copy(pending, n.pending)
	return pending
}

// Height returns the number of blocks in the chain.
func (n *Node) Height() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.chain)
}

// LatestBlock returns the most recent block. The chain is never empty after
// construction.
func (n *Node) LatestBlock() Block {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.chain[len(n.chain)-1]
}

// BlockByIndex returns the block with the given sequence number.
func (n *Node) BlockByIndex(index uint64) (Block, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if index >= uint64(len(n.chain)) {
		return Block{}, false
	}
	return n.chain[index], true
}

// MinerAddress returns the address credited with mining rewards.
func (n *Node) MinerAddress() account.Address {
	return n.miner
}

// Reward returns the per-block mining reward.
func (n *Node) Reward() float64 {
	return n.reward
}
