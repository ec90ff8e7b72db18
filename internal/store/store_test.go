package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type rule struct {
	Pattern string `json:"pattern"`
	Risk    string `json:"risk"`
}

func testStores(t *testing.T) map[string]KVJSONStore {
	t.Helper()
	return map[string]KVJSONStore{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(t.TempDir(), "state")),
	}
}

func TestPutGetRoundTrips(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := rule{Pattern: "rm -rf", Risk: "Critical"}
			if err := s.Put(ctx, "tool-approval-rules", in); err != nil {
				t.Fatalf("Put: %v", err)
			}
			var out rule
			if err := s.Get(ctx, "tool-approval-rules", &out); err != nil {
				t.Fatalf("Get: %v", err)
			}
			if out != in {
				t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
			}
		})
	}
}

func TestGetMissingKeyReturnsErrNotFound(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			var out rule
			if err := s.Get(context.Background(), "nope", &out); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestKeysIsCaseInsensitiveOnGet(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Put(ctx, "settings", rule{Pattern: "x"}); err != nil {
				t.Fatalf("Put: %v", err)
			}
			var out rule
			if err := s.Get(ctx, "SETTINGS", &out); err != nil {
				t.Fatalf("expected case-insensitive Get to find the key, got %v", err)
			}
		})
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Put(ctx, "session-1", rule{Pattern: "x"}); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := s.Delete(ctx, "session-1"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			var out rule
			if err := s.Get(ctx, "session-1", &out); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestDeleteMissingKeyIsNotAnError(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Delete(context.Background(), "never-existed"); err != nil {
				t.Fatalf("expected no error deleting a missing key, got %v", err)
			}
		})
	}
}

func TestKeysListsEveryStoredKey(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = s.Put(ctx, "a", rule{Pattern: "1"})
			_ = s.Put(ctx, "b", rule{Pattern: "2"})

			keys, err := s.Keys(ctx)
			if err != nil {
				t.Fatalf("Keys: %v", err)
			}
			if len(keys) != 2 {
				t.Fatalf("expected 2 keys, got %v", keys)
			}
		})
	}
}

func TestFileStoreKeysOnMissingDirIsEmptyNotError(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "never-created"))
	keys, err := s.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys for a never-created directory, got %v", keys)
	}
}
