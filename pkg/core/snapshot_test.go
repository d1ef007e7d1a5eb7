package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/db"
)

func TestSnapshotRoundTrip(t *testing.T) {
	alice := testAccount(t)
	bob := testAccount(t)
	node := easyNode(t, alice.Address)

	mustMine(t, node)
	tx := NewTransaction(alice.Address, bob.Address, 0.5)
	mustSign(t, &tx, alice)
	if err := node.SubmitTransaction(tx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	mustMine(t, node)

	database := db.NewMemoryDB()
	store := NewChainStore(database)
	if err := store.Save(node.Chain()); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	restored, err := NewNodeFromSnapshot(alice.Address, store,
		WithPredicate(NewSuffixPredicate("0")),
		WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if restored.Height() != node.Height() {
		t.Fatalf("restored height = %d, want %d", restored.Height(), node.Height())
	}
	restoredTip := restored.LatestBlock()
	savedTip := node.LatestBlock()
	if restoredTip.ComputeHash() != savedTip.ComputeHash() {
		t.Error("restored tip differs from the saved tip")
	}
	if restored.Balance(bob.Address) != node.Balance(bob.Address) {
		t.Error("restored chain yields different balances")
	}
	if ok, fault := restored.ValidateChain(); !ok {
		t.Fatalf("restored chain invalid: %v", fault)
	}

	pending := restored.Pending()
	if len(pending) != 1 || !pending[0].IsReward() {
		t.Error("restore did not reseed the pool with the pending reward")
	}
}

func TestSnapshotOverwrite(t *testing.T) {
	alice := testAccount(t)
	node := easyNode(t, alice.Address)

	database := db.NewMemoryDB()
	store := NewChainStore(database)
	if err := store.Save(node.Chain()); err != nil {
		t.Fatalf("save: %v", err)
	}

	mustMine(t, node)
	if err := store.Save(node.Chain()); err != nil {
		t.Fatalf("second save: %v", err)
	}

	chain, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(chain) != node.Height() {
		t.Fatalf("loaded %d blocks, want %d", len(chain), node.Height())
	}
}

func TestSnapshotMissing(t *testing.T) {
	store := NewChainStore(db.NewMemoryDB())
	if _, err := store.Load(); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("error = %v, want db.ErrKeyNotFound", err)
	}
}

func TestRestoreRejectsTamperedSnapshot(t *testing.T) {
	alice := testAccount(t)
	node := easyNode(t, alice.Address)
	mustMine(t, node)
	mustMine(t, node)

	database := db.NewMemoryDB()
	store := NewChainStore(database)
	if err := store.Save(node.Chain()); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Corrupt a middle block in place. Its recomputed hash changes, so
	// either its own proof of work or the successor's linkage breaks.
	raw, err := database.Get(blockKey(1))
	if err != nil {
		t.Fatalf("read stored block: %v", err)
	}
	var block Block
	if err := json.Unmarshal(raw, &block); err != nil {
		t.Fatalf("decode stored block: %v", err)
	}
	block.Nonce += 1000
	mutated, err := json.Marshal(&block)
	if err != nil {
		t.Fatalf("encode mutated block: %v", err)
	}
	if err := database.Put(blockKey(1), mutated); err != nil {
		t.Fatalf("write mutated block: %v", err)
	}

	if _, err := NewNodeFromSnapshot(alice.Address, store,
		WithPredicate(NewSuffixPredicate("0")),
		WithLogger(quietLogger())); err == nil {
		t.Fatal("tampered snapshot accepted")
	}
}

func TestRestoreRejectsTruncatedSnapshot(t *testing.T) {
	alice := testAccount(t)
	node := easyNode(t, alice.Address)
	mustMine(t, node)

	database := db.NewMemoryDB()
	store := NewChainStore(database)
	if err := store.Save(node.Chain()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := database.Delete(blockKey(1)); err != nil {
		t.Fatalf("drop block: %v", err)
	}

	if _, err := store.Load(); err == nil {
		t.Fatal("snapshot with a missing block loaded cleanly")
	}
}
