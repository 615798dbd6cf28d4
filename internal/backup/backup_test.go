package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

func seededStore(t *testing.T) *kv.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kv.MustEncode(kv.Key{"cookies", "b"}), []byte(`{"id":"b"}`)))
	require.NoError(t, store.Set(ctx, kv.MustEncode(kv.Key{"cookies", "a"}), []byte(`{"id":"a"}`)))
	require.NoError(t, store.Set(ctx, kv.MustEncode(kv.Key{"settings", "system"}), []byte{0x00, 0xff}))
	return store
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func TestExportJSONL(t *testing.T) {
	var buf bytes.Buffer
	n, err := ExportJSONL(context.Background(), seededStore(t), &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	lines := nonEmptyLines(buf.String())
	require.Len(t, lines, 4)

	var h header
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &h))
	assert.Equal(t, "header", h.Type)
	assert.Equal(t, 3, h.EntryCount)

	var first record
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &first))
	assert.Equal(t, "entry", first.Type)
	assert.Equal(t, "cookies/a/", first.Key)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t)

	var buf bytes.Buffer
	_, err := ExportJSONL(ctx, src, &buf)
	require.NoError(t, err)

	dst := kv.NewMemoryStore()
	n, err := ImportJSONL(ctx, dst, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	want, err := src.Scan(ctx, "")
	require.NoError(t, err)
	got, err := dst.Scan(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestImportRejectsMissingHeader(t *testing.T) {
	_, err := ImportJSONL(context.Background(), kv.NewMemoryStore(), strings.NewReader(""))
	assert.ErrorIs(t, err, ErrBadHeader)

	_, err = ImportJSONL(context.Background(), kv.NewMemoryStore(), strings.NewReader(`{"type":"entry","key":"x/"}`+"\n"))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestFileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "relay.jsonl")
	dest := NewFileDestination(path)

	require.NoError(t, dest.Write(context.Background(), []byte("one\n")))
	require.NoError(t, dest.Write(context.Background(), []byte("two\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(got))
}

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	mu     sync.Mutex
	last   []byte
	err    error
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = append([]byte(nil), data...)
	return d.err
}

func TestRunOnceContinuesPastFailingDestination(t *testing.T) {
	bad := &mockDestination{err: errors.New("bucket gone")}
	good := &mockDestination{}

	sched := NewScheduler(seededStore(t), []Destination{bad, good}, time.Hour)
	assert.Equal(t, 1, sched.RunOnce(context.Background()))
	assert.EqualValues(t, 1, bad.writes.Load())
	assert.EqualValues(t, 1, good.writes.Load())
	assert.Len(t, nonEmptyLines(string(good.last)), 4)
}

func TestSchedulerStartStop(t *testing.T) {
	dest := &mockDestination{}
	sched := NewScheduler(seededStore(t), []Destination{dest}, 50*time.Millisecond)
	sched.Start(context.Background())

	require.Eventually(t, func() bool { return dest.writes.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	sched.Stop()

	after := dest.writes.Load()
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, after, dest.writes.Load())
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t)
	dst := kv.NewMemoryStore()
	require.NoError(t, dst.Set(ctx, kv.MustEncode(kv.Key{"cookies", "a"}), []byte("stale")))

	n, err := Copy(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := dst.Get(ctx, kv.MustEncode(kv.Key{"cookies", "a"}))
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a"}`, string(got))
	assert.Equal(t, 3, dst.Len())
}

var testSealKey = []byte("0123456789abcdef0123456789abcdef")

func TestExportKeepsSealedValuesEncrypted(t *testing.T) {
	ctx := context.Background()
	sealed, err := kv.NewSealedStore(kv.NewMemoryStore(), testSealKey)
	require.NoError(t, err)
	key := kv.MustEncode(kv.Key{"api_keys", "x"})
	require.NoError(t, sealed.Set(ctx, key, []byte(`{"key":"sk-SUPERSECRET"}`)))

	var buf bytes.Buffer
	n, err := ExportJSONL(ctx, sealed, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotContains(t, buf.String(), "sk-SUPERSECRET")

	lines := nonEmptyLines(buf.String())
	require.Len(t, lines, 2)
	var rec record
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, key, rec.Key)
	assert.NotContains(t, string(rec.Value), "sk-SUPERSECRET")

	// Restoring under the same key yields the original value.
	restored, err := kv.NewSealedStore(kv.NewMemoryStore(), testSealKey)
	require.NoError(t, err)
	_, err = ImportJSONL(ctx, restored, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	got, err := restored.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"key":"sk-SUPERSECRET"}`, string(got))
}

func TestSchedulerUploadsSealedValues(t *testing.T) {
	ctx := context.Background()
	sealed, err := kv.NewSealedStore(kv.NewMemoryStore(), testSealKey)
	require.NoError(t, err)
	require.NoError(t, sealed.Set(ctx, kv.MustEncode(kv.Key{"cookies", "c"}), []byte(`{"value":"session=hunter2"}`)))

	dest := &mockDestination{}
	require.Equal(t, 1, NewScheduler(sealed, []Destination{dest}, time.Hour).RunOnce(ctx))
	assert.NotContains(t, string(dest.last), "hunter2")
	for _, line := range nonEmptyLines(string(dest.last))[1:] {
		var rec record
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		assert.NotContains(t, string(rec.Value), "hunter2")
	}
}
