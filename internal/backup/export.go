// Package backup snapshots every stored entry as JSONL and ships the
// snapshot to one or more destinations.
package backup

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

const formatVersion = "1"

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	EntryCount int       `json:"entry_count"`
}

// record wraps a single stored entry.
type record struct {
	Type  string `json:"type"`
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// ErrBadHeader is returned by ImportJSONL when the input does not start
// with a header this version understands.
var ErrBadHeader = errors.New("backup: missing or unsupported header")

// ExportJSONL writes every entry of the store to w, one JSON object per
// line, in key order. Values of a sealed store are written as stored, still
// encrypted.
func ExportJSONL(ctx context.Context, store kv.Store, w io.Writer) (int, error) {
	entries, err := kv.Unwrap(store).Scan(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:    formatVersion,
		Type:       "header",
		Timestamp:  time.Now().UTC(),
		EntryCount: len(entries),
	}); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	for _, e := range entries {
		if err := enc.Encode(record{Type: "entry", Key: e.Key, Value: e.Value}); err != nil {
			return 0, fmt.Errorf("write entry %s: %w", e.Key, err)
		}
	}
	return len(entries), nil
}

// ImportJSONL writes every entry read from r into the store, replacing
// existing values at the same keys. It returns the number of entries written.
// Values go to a sealed store as-is, so a snapshot restores only under the
// encryption key it was exported with.
func ImportJSONL(ctx context.Context, store kv.Store, r io.Reader) (int, error) {
	store = kv.Unwrap(store)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("read header: %w", err)
		}
		return 0, ErrBadHeader
	}
	var h header
	if err := json.Unmarshal(scanner.Bytes(), &h); err != nil || h.Type != "header" || h.Version != formatVersion {
		return 0, ErrBadHeader
	}

	n := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return n, fmt.Errorf("decode line %d: %w", n+2, err)
		}
		if rec.Type != "entry" {
			continue
		}
		if err := store.Set(ctx, rec.Key, rec.Value); err != nil {
			return n, fmt.Errorf("restore %s: %w", rec.Key, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("read entries: %w", err)
	}
	return n, nil
}

// Copy writes every entry of src into dst, replacing values at the same
// keys. Values pass through both stores' sealing, so src and dst may use
// different encryption keys. It returns the number of entries copied.
func Copy(ctx context.Context, src, dst kv.Store) (int, error) {
	entries, err := src.Scan(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list source entries: %w", err)
	}
	for i, e := range entries {
		if err := dst.Set(ctx, e.Key, e.Value); err != nil {
			return i, fmt.Errorf("copy %s: %w", e.Key, err)
		}
	}
	return len(entries), nil
}
