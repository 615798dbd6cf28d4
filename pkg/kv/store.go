// Package kv defines the minimal key-value contract the repositories are
// built on, the key encoding, and the backends that satisfy it.
package kv

import (
	"context"
	"errors"
	"sort"
)

// ErrNotFound is returned by Get when no entry exists for the key. It is
// distinct from backend failures, which are returned wrapped as-is.
var ErrNotFound = errors.New("kv: not found")

// Entry is one stored key/value pair as returned by Scan.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the backend contract: point get, upsert, delete and prefix scan
// over encoded string keys. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set inserts or replaces the value at key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Scan returns every entry whose key starts with prefix, in ascending key order.
	Scan(ctx context.Context, prefix string) ([]Entry, error)
	// Close releases the backend connection.
	Close() error
}

// upperBound returns the smallest string greater than every string with the
// given prefix, or "" when no such bound exists.
func upperBound(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
}
