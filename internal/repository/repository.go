// Package repository implements id-addressed entity collections on top of a
// kv.Store. Every record of a collection lives at kv.Key{collection, id}.
//
// Nothing here is transactional. Update and Delete read, then write, with no
// version check, so concurrent writers to the same id can lose updates.
// Callers that need stronger guarantees must serialize access themselves.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/akagifreeez/cookie-relay/internal/idgen"
	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

// Record is implemented by pointer types stored in a Repository.
type Record interface {
	RecordID() string
	RecordCreatedAt() time.Time
	// Stamp assigns the server-side id and creation timestamps.
	Stamp(id string, now time.Time)
	// Touch bumps the update timestamp, if the entity has one.
	Touch(now time.Time)
	// Protected reports whether the record must never be deleted.
	Protected() bool
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() (string, error)
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides the id source used by Add.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(o *options) { o.newID = newID }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: idgen.NewID,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Repository is a collection of T records addressed by id.
type Repository[T any, PT interface {
	*T
	Record
}] struct {
	store      kv.Store
	collection string
	opts       options
}

// New returns a repository for collection backed by store.
func New[T any, PT interface {
	*T
	Record
}](store kv.Store, collection string, opts ...Option) *Repository[T, PT] {
	return &Repository[T, PT]{
		store:      store,
		collection: collection,
		opts:       buildOptions(opts),
	}
}

// Now returns the repository clock's current time.
func (r *Repository[T, PT]) Now() time.Time {
	return r.opts.now()
}

func (r *Repository[T, PT]) key(id string) (string, error) {
	return kv.Encode(kv.Key{r.collection, id})
}

// GetAll returns every record, oldest first. Each call is a full prefix scan.
func (r *Repository[T, PT]) GetAll(ctx context.Context) ([]*T, error) {
	prefix, err := kv.Prefix(r.collection)
	if err != nil {
		return nil, err
	}
	entries, err := r.store.Scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.collection, err)
	}

	records := make([]*T, 0, len(entries))
	for _, e := range entries {
		rec := new(T)
		if err := json.Unmarshal(e.Value, rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := PT(records[i]), PT(records[j])
		if ca, cb := a.RecordCreatedAt(), b.RecordCreatedAt(); !ca.Equal(cb) {
			return ca.Before(cb)
		}
		return a.RecordID() < b.RecordID()
	})
	return records, nil
}

// Get returns the record with id, or nil when it does not exist. Backend
// failures are returned as errors and never reported as absence.
func (r *Repository[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	key, err := r.key(id)
	if err != nil {
		return nil, err
	}
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s %s: %w", r.collection, id, err)
	}
	rec := new(T)
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", r.collection, id, err)
	}
	return rec, nil
}

// Add assigns a fresh id and timestamps to rec, stores it and returns it.
// Caller-supplied ids and timestamps are overwritten.
func (r *Repository[T, PT]) Add(ctx context.Context, rec *T) (*T, error) {
	id, err := r.opts.newID()
	if err != nil {
		return nil, fmt.Errorf("add %s: %w", r.collection, err)
	}
	PT(rec).Stamp(id, r.opts.now())
	if err := r.Put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Put writes rec at its own id, replacing whatever is there.
func (r *Repository[T, PT]) Put(ctx context.Context, rec *T) error {
	id := PT(rec).RecordID()
	key, err := r.key(id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", r.collection, id, err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("put %s %s: %w", r.collection, id, err)
	}
	return nil
}

// Patch merges patch over the stored record and writes the result back,
// returning it. It returns nil when id does not exist. The record's id and
// creation time cannot be changed by a patch.
func (r *Repository[T, PT]) Patch(ctx context.Context, id string, patch any) (*T, error) {
	cur, err := r.Get(ctx, id)
	if err != nil || cur == nil {
		return nil, err
	}

	merged, err := Merge(cur, patch)
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", r.collection, id, err)
	}
	PT(merged).Stamp(id, PT(cur).RecordCreatedAt())
	PT(merged).Touch(r.opts.now())

	if err := r.Put(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Update is Patch reporting only whether the record existed.
func (r *Repository[T, PT]) Update(ctx context.Context, id string, patch any) (bool, error) {
	rec, err := r.Patch(ctx, id, patch)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Delete removes the record with id. It refuses, returning false without
// writing, when the record does not exist or is protected.
func (r *Repository[T, PT]) Delete(ctx context.Context, id string) (bool, error) {
	cur, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if cur == nil || PT(cur).Protected() {
		return false, nil
	}
	key, err := r.key(id)
	if err != nil {
		return false, err
	}
	if err := r.store.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("delete %s %s: %w", r.collection, id, err)
	}
	return true, nil
}

// Count returns the number of records in the collection.
func (r *Repository[T, PT]) Count(ctx context.Context) (int, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// ClockFrom returns the time source opts would give a repository, for
// stores that share a clock with repositories but are not one.
func ClockFrom(opts ...Option) func() time.Time {
	return buildOptions(opts).now
}
