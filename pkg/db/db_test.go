package db

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestFactory(t *testing.T) {
	cases := []struct {
		name    string
		dbType  DBType
		wantErr bool
	}{
		{"memory", Memory, false},
		{"leveldb", LevelDB, false},
		{"pebble", PebbleDB, false},
		{"unsupported", DBType("rocksdb"), true},
		{"empty", DBType(""), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			database, err := NewDatabase(tc.dbType)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NewDatabase(%q) succeeded, want error", tc.dbType)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewDatabase(%q): %v", tc.dbType, err)
			}
			if database == nil {
				t.Fatalf("NewDatabase(%q) returned nil database", tc.dbType)
			}
		})
	}
}

func TestMemoryPutGetDelete(t *testing.T) {
	database := NewMemoryDB()

	key := []byte("block-1")
	value := []byte(`{"index":1}`)

	if err := database.Put(key, value); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := database.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Fatalf("get returned %q, want %q", got, value)
	}

	has, err := database.Has(key)
	if err != nil || !has {
		t.Fatalf("has = %v, %v, want true", has, err)
	}

	if err := database.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := database.Get(key); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("get after delete = %v, want ErrKeyNotFound", err)
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	database := NewMemoryDB()

	if err := database.Put([]byte("k"), []byte("abc")); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := database.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got[0] = 'z'

	again, err := database.Get([]byte("k"))
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if !bytes.Equal(again, []byte("abc")) {
		t.Fatal("stored value mutated through a returned slice")
	}
}

func TestMemoryIteratorRange(t *testing.T) {
	database := NewMemoryDB()

	for _, key := range []string{"b3", "a1", "b1", "c9", "b2"} {
		if err := database.Put([]byte(key), []byte("v-"+key)); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	iter, err := database.Iterator([]byte("b"), []byte("c"))
	if err != nil {
		t.Fatalf("iterator: %v", err)
	}
	defer iter.Close()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}

	want := []string{"b1", "b2", "b3"}
	if len(keys) != len(want) {
		t.Fatalf("iterated %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("iterated %v, want %v in order", keys, want)
		}
	}
}

func TestMemoryBatchAtomicWrite(t *testing.T) {
	database := NewMemoryDB()

	if err := database.Put([]byte("stale"), []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}

	batch := database.Batch()
	for i := 0; i < 3; i++ {
		key := []byte(fmt.Sprintf("k%d", i))
		if err := batch.Put(key, []byte{byte(i)}); err != nil {
			t.Fatalf("batch put: %v", err)
		}
	}
	if err := batch.Delete([]byte("stale")); err != nil {
		t.Fatalf("batch delete: %v", err)
	}

	// Nothing lands before Write.
	if has, _ := database.Has([]byte("k0")); has {
		t.Fatal("batch write leaked before commit")
	}

	if err := batch.Write(); err != nil {
		t.Fatalf("batch write: %v", err)
	}

	for i := 0; i < 3; i++ {
		if has, _ := database.Has([]byte(fmt.Sprintf("k%d", i))); !has {
			t.Errorf("k%d missing after batch write", i)
		}
	}
	if has, _ := database.Has([]byte("stale")); has {
		t.Error("batched delete not applied")
	}
}

func TestMemoryBatchReset(t *testing.T) {
	database := NewMemoryDB()

	batch := database.Batch()
	if err := batch.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("batch put: %v", err)
	}
	batch.Reset()
	if err := batch.Write(); err != nil {
		t.Fatalf("write after reset: %v", err)
	}

	if has, _ := database.Has([]byte("k")); has {
		t.Fatal("reset batch still wrote its operations")
	}
}

func TestMemoryClosed(t *testing.T) {
	database := NewMemoryDB()
	if err := database.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := database.Put([]byte("k"), []byte("v")); err == nil {
		t.Error("put on a closed database succeeded")
	}
	if _, err := database.Get([]byte("k")); err == nil {
		t.Error("get on a closed database succeeded")
	}
}
