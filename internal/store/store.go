// Package store implements the key->JSON-blob persistence described in
// spec.md §6: the orchestrator persists its settings, per-session rule
// caches, and tool-approval rules as JSON blobs rather than a relational
// schema. Modeled on the teacher's internal/storage package shape
// (interfaces.go's small-surface Store interfaces, memory.go's in-memory
// implementation), adapted from domain-model CRUD to a generic key/value
// JSON blob contract.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when key has no stored value.
var ErrNotFound = errors.New("store: key not found")

// KVJSONStore persists arbitrary JSON-serializable values under string keys.
// Both implementations match keys case-insensitively on Get; callers should
// not rely on case-sensitive key collisions being preserved.
type KVJSONStore interface {
	// Get unmarshals the value stored under key into out. Returns ErrNotFound
	// if key has never been Put.
	Get(ctx context.Context, key string, out any) error

	// Put marshals value and stores it under key, overwriting any prior value.
	Put(ctx context.Context, key string, value any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every stored key, in no particular order.
	Keys(ctx context.Context) ([]string, error)
}

// marshalValue and unmarshalInto are shared by both implementations so Get
// and Put behave identically regardless of backend.
func marshalValue(value any) ([]byte, error) {
	return json.MarshalIndent(value, "", "  ")
}

func unmarshalInto(raw []byte, out any) error {
	return json.Unmarshal(raw, out)
}
