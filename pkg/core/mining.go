package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrMineCancelled is returned when the context ends before an
	// admissible nonce is found. Chain and pool are left untouched.
	ErrMineCancelled = errors.New("mining cancelled")

	// ErrNonceExhausted is returned when the configured attempt bound is
	// reached without an admissible nonce.
	ErrNonceExhausted = errors.New("nonce search exhausted its attempt bound")
)

// ctxCheckInterval controls how often the search loops poll the context.
const ctxCheckInterval = 1 << 10

// MineBlock assembles the next block from the pending pool and brute-forces
// its nonce until the difficulty predicate admits the header hash. On
// success the block is appended to the chain, the pool is cleared and one
// unsigned reward transaction is enqueued for the next mine. The node's lock
// is held for the whole search, so mining never interleaves with submissions
// or reads.
//
// The search honors ctx cancellation and the configured attempt bound; on
// either, chain and pool are left exactly as they were.
func (n *Node) MineBlock(ctx context.Context) (*Block, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var index uint64
	prevHash := GenesisPrevHash
	if len(n.chain) > 0 {
		tail := n.chain[len(n.chain)-1]
		index = tail.Index + 1
		prevHash = tail.ComputeHash()
	}

	transactions := make([]Transaction, len(n.pending))
	copy(transactions, n.pending)

	block := NewBlock(index, prevHash, transactions)

	start := time.Now()
	nonce, hash, err := n.searchNonce(ctx, block)
	if err != nil {
		return nil, err
	}
	block.Nonce = nonce
	block.Hash = hash

	n.chain = append(n.chain, *block)
	n.pending = []Transaction{NewRewardTransaction(n.miner, n.reward)}

	n.log.Info("block mined",
		"index", block.Index,
		"nonce", block.Nonce,
		"hash", block.Hash,
		"transactions", len(block.Transactions),
		"elapsed", time.Since(start))

	return block, nil
}

func (n *Node) searchNonce(ctx context.Context, block *Block) (uint64, string, error) {
	if n.workers <= 1 {
		return n.sequentialSearch(ctx, block)
	}
	return n.parallelSearch(ctx, block)
}

// sequentialSearch is the single-threaded reference search: nonce 0 upward,
// recomputing the hash at each step.
func (n *Node) sequentialSearch(ctx context.Context, block *Block) (uint64, string, error) {
	candidate := *block
	for nonce := uint64(0); ; nonce++ {
		if n.maxAttempts > 0 && nonce >= n.maxAttempts {
			return 0, "", ErrNonceExhausted
		}
		if nonce%ctxCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return 0, "", fmt.Errorf("%w: %v", ErrMineCancelled, ctx.Err())
			default:
			}
		}
		candidate.Nonce = nonce
		if hash := candidate.ComputeHash(); n.predicate.Admits(hash) {
			return nonce, hash, nil
		}
	}
}

// parallelSearch splits the nonce space into disjoint strides, one per
// worker. Exactly one winning nonce is committed; the remaining workers are
// cancelled and any late finds discarded.
func (n *Node) parallelSearch(ctx context.Context, block *Block) (uint64, string, error) {
	type find struct {
		nonce uint64
		hash  string
	}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	found := make(chan find, 1)
	var wg sync.WaitGroup

	stride := uint64(n.workers)
	for w := uint64(0); w < stride; w++ {
		wg.Add(1)
		go func(first uint64) {
			defer wg.Done()
			candidate := *block
			var attempts uint64
			for nonce := first; ; nonce += stride {
				if n.maxAttempts > 0 && nonce >= n.maxAttempts {
					return
				}
				if attempts%ctxCheckInterval == 0 {
					select {
					case <-searchCtx.Done():
						return
					default:
					}
				}
				attempts++

				candidate.Nonce = nonce
				if hash := candidate.ComputeHash(); n.predicate.Admits(hash) {
					select {
					case found <- find{nonce: nonce, hash: hash}:
						cancel()
					default:
					}
					return
				}
			}
		}(w)
	}

	go func() {
		wg.Wait()
		close(found)
	}()

	if result, ok := <-found; ok {
		return result.nonce, result.hash, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrMineCancelled, err)
	}
	return 0, "", ErrNonceExhausted
}
