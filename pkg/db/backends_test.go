package db

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

// TestDiskBackends runs the same contract checks against every on-disk
// backend the factory can produce.
func TestDiskBackends(t *testing.T) {
	for _, dbType := range []DBType{LevelDB, PebbleDB} {
		t.Run(string(dbType), func(t *testing.T) {
			database, err := NewDatabase(dbType)
			if err != nil {
				t.Fatalf("factory: %v", err)
			}

			path := filepath.Join(t.TempDir(), string(dbType))
			if err := database.Open(path); err != nil {
				t.Fatalf("open: %v", err)
			}
			defer database.Close()

			if err := database.Put([]byte("b1"), []byte("one")); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := database.Put([]byte("b2"), []byte("two")); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := database.Put([]byte("c1"), []byte("out of range")); err != nil {
				t.Fatalf("put: %v", err)
			}

			got, err := database.Get([]byte("b1"))
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !bytes.Equal(got, []byte("one")) {
				t.Fatalf("get returned %q, want %q", got, "one")
			}

			if _, err := database.Get([]byte("absent")); !errors.Is(err, ErrKeyNotFound) {
				t.Fatalf("get absent key = %v, want ErrKeyNotFound", err)
			}

			has, err := database.Has([]byte("b2"))
			if err != nil || !has {
				t.Fatalf("has = %v, %v, want true", has, err)
			}

			iter, err := database.Iterator([]byte("b"), []byte("c"))
			if err != nil {
				t.Fatalf("iterator: %v", err)
			}
			var keys []string
			for iter.Next() {
				keys = append(keys, string(iter.Key()))
			}
			if err := iter.Error(); err != nil {
				t.Fatalf("iterator error: %v", err)
			}
			iter.Close()
			if len(keys) != 2 || keys[0] != "b1" || keys[1] != "b2" {
				t.Fatalf("iterated %v, want [b1 b2]", keys)
			}

			batch := database.Batch()
			if err := batch.Put([]byte("b3"), []byte("three")); err != nil {
				t.Fatalf("batch put: %v", err)
			}
			if err := batch.Delete([]byte("b1")); err != nil {
				t.Fatalf("batch delete: %v", err)
			}
			if err := batch.Write(); err != nil {
				t.Fatalf("batch write: %v", err)
			}

			if has, _ := database.Has([]byte("b1")); has {
				t.Error("batched delete not applied")
			}
			if has, _ := database.Has([]byte("b3")); !has {
				t.Error("batched put not applied")
			}

			if err := database.Delete([]byte("c1")); err != nil {
				t.Fatalf("delete: %v", err)
			}
		})
	}
}
