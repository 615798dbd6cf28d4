// Package kvtest is a conformance suite every kv.Store backend must pass.
package kvtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) kv.Store

// Run exercises the backend contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, s kv.Store)
	}{
		{"GetMissing", testGetMissing},
		{"RoundTrip", testRoundTrip},
		{"Overwrite", testOverwrite},
		{"DeleteThenGet", testDeleteThenGet},
		{"DeleteMissing", testDeleteMissing},
		{"PrefixIsolation", testPrefixIsolation},
		{"SiblingPrefix", testSiblingPrefix},
		{"ScanOrder", testScanOrder},
		{"ScanEmpty", testScanEmpty},
		{"BinaryValues", testBinaryValues},
		{"EmptyValue", testEmptyValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tc.fn(t, s)
		})
	}
}

func testGetMissing(t *testing.T, s kv.Store) {
	_, err := s.Get(context.Background(), kv.MustEncode(kv.Key{"missing", "x"}))
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func testRoundTrip(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.MustEncode(kv.Key{"cookies", "c1"})
	value := []byte(`{"id":"c1","value":"session=abc"}`)

	require.NoError(t, s.Set(ctx, key, value))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func testOverwrite(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.MustEncode(kv.Key{"settings", "system"})

	require.NoError(t, s.Set(ctx, key, []byte("v1")))
	require.NoError(t, s.Set(ctx, key, []byte("v2")))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	entries, err := s.Scan(ctx, key)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func testDeleteThenGet(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.MustEncode(kv.Key{"api_keys", "k1"})

	require.NoError(t, s.Set(ctx, key, []byte("v")))
	require.NoError(t, s.Delete(ctx, key))

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func testDeleteMissing(t *testing.T, s kv.Store) {
	assert.NoError(t, s.Delete(context.Background(), kv.MustEncode(kv.Key{"nothing", "here"})))
}

func testPrefixIsolation(t *testing.T, s kv.Store) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, kv.MustEncode(kv.Key{"cookies", "a"}), []byte("1")))
	require.NoError(t, s.Set(ctx, kv.MustEncode(kv.Key{"cookies", "b"}), []byte("2")))
	require.NoError(t, s.Set(ctx, kv.MustEncode(kv.Key{"cookiesx", "c"}), []byte("3")))
	require.NoError(t, s.Set(ctx, kv.MustEncode(kv.Key{"api_keys", "d"}), []byte("4")))

	prefix, err := kv.Prefix("cookies")
	require.NoError(t, err)
	entries, err := s.Scan(ctx, prefix)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Truef(t, len(e.Key) >= len(prefix) && e.Key[:len(prefix)] == prefix,
			"key %q outside prefix %q", e.Key, prefix)
	}
}

func testSiblingPrefix(t *testing.T, s kv.Store) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, kv.MustEncode(kv.Key{"cookies", "1", "meta"}), []byte("one")))
	require.NoError(t, s.Set(ctx, kv.MustEncode(kv.Key{"cookies", "10", "meta"}), []byte("ten")))

	prefix, err := kv.Prefix("cookies", "1")
	require.NoError(t, err)
	entries, err := s.Scan(ctx, prefix)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, []byte("one"), entries[0].Value)
}

func testScanOrder(t *testing.T, s kv.Store) {
	ctx := context.Background()
	for _, ts := range []int64{30, 1000, 2, 400} {
		key := kv.MustEncode(kv.Key{"request_logs", ts, fmt.Sprintf("id%d", ts)})
		require.NoError(t, s.Set(ctx, key, []byte(fmt.Sprint(ts))))
	}

	prefix, err := kv.Prefix("request_logs")
	require.NoError(t, err)
	entries, err := s.Scan(ctx, prefix)
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, string(e.Value))
	}
	assert.Equal(t, []string{"2", "30", "400", "1000"}, got)
}

func testScanEmpty(t *testing.T, s kv.Store) {
	prefix, err := kv.Prefix("empty")
	require.NoError(t, err)
	entries, err := s.Scan(context.Background(), prefix)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func testBinaryValues(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.MustEncode(kv.Key{"blob", "x"})
	value := []byte{0x00, 0xff, 0x10, 0x00}

	require.NoError(t, s.Set(ctx, key, value))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func testEmptyValue(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.MustEncode(kv.Key{"settings", "empty"})

	require.NoError(t, s.Set(ctx, key, nil))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)

	prefix, err := kv.Prefix("settings")
	require.NoError(t, err)
	entries, err := s.Scan(ctx, prefix)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key, entries[0].Key)
	assert.Empty(t, entries[0].Value)
}
