package core

import "testing"

func TestNonceChangesDigest(t *testing.T) {
	block := NewBlock(1, "abc", nil)

	first := block.ComputeHash()
	block.Nonce++
	second := block.ComputeHash()

	if first == second {
		t.Fatal("nonce not mixed into the header hash")
	}
}

func TestComputeHashIdempotent(t *testing.T) {
	block := NewBlock(3, "prev", nil)
	block.Nonce = 42

	first := block.ComputeHash()
	second := block.ComputeHash()

	if first != second {
		t.Fatalf("hash drifted between identical computations: %q then %q", first, second)
	}
	if block.Hash != first {
		t.Error("cached hash not refreshed")
	}
	if len(first) != 64 {
		t.Errorf("hash %q is not a hex SHA-256 digest", first)
	}
}

func TestStaleCacheOverwritten(t *testing.T) {
	block := NewBlock(2, "prev", nil)
	stale := block.ComputeHash()

	block.Nonce++
	if got := block.ComputeHash(); got == stale {
		t.Fatal("recompute returned the stale cache")
	}
	if block.Hash == stale {
		t.Error("cache still holds the pre-mutation digest")
	}
}

func TestHeaderCoversTransactions(t *testing.T) {
	sender := testAccount(t)
	recipient := testAccount(t)

	tx := NewTransaction(sender.Address, recipient.Address, 0.5)
	if err := tx.Sign(sender.PrivateKey); err != nil {
		t.Fatalf("sign: %v", err)
	}

	block := NewBlock(1, "prev", []Transaction{tx})
	before := block.ComputeHash()

	block.Transactions[0].Value = 0.75
	if got := block.ComputeHash(); got == before {
		t.Fatal("transaction mutation did not change the header hash")
	}
}

func TestValidUnder(t *testing.T) {
	block := NewBlock(0, GenesisPrevHash, nil)

	admitAll := PredicateFunc(func(string) bool { return true })
	admitNone := PredicateFunc(func(string) bool { return false })

	if !block.ValidUnder(admitAll) {
		t.Error("block rejected by an admit-all predicate")
	}
	if block.ValidUnder(admitNone) {
		t.Error("block admitted by an admit-none predicate")
	}
}
