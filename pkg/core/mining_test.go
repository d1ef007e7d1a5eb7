package core

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

func TestEveryMinedBlockSatisfiesPredicate(t *testing.T) {
	alice := testAccount(t)
	node := easyNode(t, alice.Address)

	for i := 0; i < 3; i++ {
		mustMine(t, node)
	}

	predicate := NewSuffixPredicate("0")
	chain := node.Chain()
	for i := range chain {
		if !chain[i].ValidUnder(predicate) {
			t.Errorf("block %d hash %q misses the difficulty rule", chain[i].Index, chain[i].Hash)
		}
	}
	for i := 1; i < len(chain); i++ {
		if chain[i].PrevHash != chain[i-1].ComputeHash() {
			t.Errorf("block %d parent reference broken", chain[i].Index)
		}
		if chain[i].Index != chain[i-1].Index+1 {
			t.Errorf("sequence gap between blocks %d and %d", chain[i-1].Index, chain[i].Index)
		}
	}
}

func TestDefaultDifficultySuffix(t *testing.T) {
	alice := testAccount(t)
	node, err := NewNode(alice.Address, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	block := mustMine(t, node)
	if !strings.HasSuffix(block.ComputeHash(), DefaultSuffix) {
		t.Errorf("hash %q does not end in the default suffix %q", block.Hash, DefaultSuffix)
	}
}

func TestMineBlockIncludesWholePool(t *testing.T) {
	alice := testAccount(t)
	bob := testAccount(t)
	node := easyNode(t, alice.Address)
	mustMine(t, node)

	for _, value := range []float64{0.125, 0.25} {
		tx := NewTransaction(alice.Address, bob.Address, value)
		mustSign(t, &tx, alice)
		if err := node.SubmitTransaction(tx); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	block := mustMine(t, node)

	// One pooled reward plus the two transfers, in submission order.
	if len(block.Transactions) != 3 {
		t.Fatalf("mined block carries %d transactions, want 3", len(block.Transactions))
	}
	if !block.Transactions[0].IsReward() {
		t.Error("pooled reward not first in the mined block")
	}
	if block.Transactions[1].Value != 0.125 || block.Transactions[2].Value != 0.25 {
		t.Error("transfers not mined in submission order")
	}
}

func TestMineCancelledLeavesStateUntouched(t *testing.T) {
	alice := testAccount(t)
	node := easyNode(t, alice.Address)

	heightBefore := node.Height()
	poolBefore := len(node.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := node.MineBlock(ctx); !errors.Is(err, ErrMineCancelled) {
		t.Fatalf("error = %v, want ErrMineCancelled", err)
	}
	if got := node.Height(); got != heightBefore {
		t.Errorf("cancelled mine grew the chain to %d", got)
	}
	if got := len(node.Pending()); got != poolBefore {
		t.Errorf("cancelled mine changed the pool to %d transactions", got)
	}
}

func TestMineAttemptBound(t *testing.T) {
	alice := testAccount(t)

	admit := true
	gate := PredicateFunc(func(string) bool { return admit })

	node, err := NewNode(alice.Address,
		WithPredicate(gate),
		WithMaxAttempts(256),
		WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	admit = false
	if _, err := node.MineBlock(context.Background()); !errors.Is(err, ErrNonceExhausted) {
		t.Fatalf("error = %v, want ErrNonceExhausted", err)
	}
	if got := node.Height(); got != 1 {
		t.Errorf("exhausted search grew the chain to %d", got)
	}
}

func TestGenesisMiningFailureSurfaces(t *testing.T) {
	alice := testAccount(t)

	never := PredicateFunc(func(string) bool { return false })
	if _, err := NewNode(alice.Address, WithPredicate(never), WithMaxAttempts(64),
		WithLogger(quietLogger())); err == nil {
		t.Fatal("constructing a node whose genesis cannot be mined must fail")
	}
}

func TestParallelSearchCommitsOneNonce(t *testing.T) {
	alice := testAccount(t)
	bob := testAccount(t)
	node := easyNode(t, alice.Address, WithWorkers(4))

	for i := 0; i < 3; i++ {
		mustMine(t, node)
	}

	tx := NewTransaction(alice.Address, bob.Address, 0.5)
	mustSign(t, &tx, alice)
	if err := node.SubmitTransaction(tx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	mustMine(t, node)

	if got := node.Height(); got != 5 {
		t.Fatalf("height = %d, want 5 (one committed block per mine)", got)
	}
	if ok, fault := node.ValidateChain(); !ok {
		t.Fatalf("parallel-mined chain invalid: %v", fault)
	}
}

func TestParallelSearchCancelled(t *testing.T) {
	alice := testAccount(t)
	node := easyNode(t, alice.Address, WithWorkers(4))
	heightBefore := node.Height()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := node.MineBlock(ctx); !errors.Is(err, ErrMineCancelled) {
		t.Fatalf("error = %v, want ErrMineCancelled", err)
	}
	if got := node.Height(); got != heightBefore {
		t.Errorf("cancelled parallel mine grew the chain to %d", got)
	}
}

func TestParallelAttemptBound(t *testing.T) {
	alice := testAccount(t)

	// Workers from a finished search can outlive MineBlock briefly, so the
	// gate must be safe for concurrent reads.
	var admit atomic.Bool
	admit.Store(true)
	gate := PredicateFunc(func(string) bool { return admit.Load() })

	node, err := NewNode(alice.Address,
		WithPredicate(gate),
		WithWorkers(4),
		WithMaxAttempts(4096),
		WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	admit.Store(false)
	if _, err := node.MineBlock(context.Background()); !errors.Is(err, ErrNonceExhausted) {
		t.Fatalf("error = %v, want ErrNonceExhausted", err)
	}
}
