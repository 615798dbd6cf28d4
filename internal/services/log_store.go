package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/idgen"
	"github.com/akagifreeez/cookie-relay/internal/models"
	"github.com/akagifreeez/cookie-relay/internal/repository"
	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

// DefaultMaxLogEntries is used when no cap is configured.
const DefaultMaxLogEntries = 1000

// LogStore keeps the most recent request logs, at most maxEntries of them.
// Logs live at {request_logs, timestamp, id} so a prefix scan returns them
// oldest first.
type LogStore struct {
	store      kv.Store
	maxEntries int
	now        func() time.Time
	newID      func() (string, error)
}

func NewLogStore(store kv.Store, maxEntries int, opts ...repository.Option) *LogStore {
	if maxEntries < 1 {
		maxEntries = DefaultMaxLogEntries
	}
	return &LogStore{
		store:      store,
		maxEntries: maxEntries,
		now:        repository.ClockFrom(opts...),
		newID:      idgen.NewLogID,
	}
}

// MaxEntries returns the retention cap.
func (s *LogStore) MaxEntries() int {
	return s.maxEntries
}

// Add stores entry with a fresh id (and the current time when Timestamp is
// zero), then evicts the oldest logs beyond the cap.
func (s *LogStore) Add(ctx context.Context, entry *models.RequestLog) (*models.RequestLog, error) {
	rec := *entry
	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	rec.ID = id
	if rec.Timestamp <= 0 {
		rec.Timestamp = s.now().UnixMilli()
	}

	key, err := kv.Encode(kv.Key{CollectionRequestLogs, rec.Timestamp, rec.ID})
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("encode request log: %w", err)
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		return nil, fmt.Errorf("put request log: %w", err)
	}

	if err := s.evict(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to evict old request logs")
		return &rec, err
	}
	return &rec, nil
}

// Trim applies the retention cap without adding a log, for when the cap
// was lowered since the last write.
func (s *LogStore) Trim(ctx context.Context) error {
	return s.evict(ctx)
}

// evict deletes everything but the newest maxEntries logs. Scan order is
// key order, which is timestamp order, so the oldest come first.
func (s *LogStore) evict(ctx context.Context) error {
	entries, err := s.scan(ctx)
	if err != nil {
		return err
	}
	excess := len(entries) - s.maxEntries
	for i := 0; i < excess; i++ {
		if err := s.store.Delete(ctx, entries[i].Key); err != nil {
			return fmt.Errorf("evict %s: %w", entries[i].Key, err)
		}
	}
	return nil
}

func (s *LogStore) scan(ctx context.Context) ([]kv.Entry, error) {
	prefix, err := kv.Prefix(CollectionRequestLogs)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list request logs: %w", err)
	}
	return entries, nil
}

func (s *LogStore) all(ctx context.Context) ([]*models.RequestLog, error) {
	entries, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	logs := make([]*models.RequestLog, 0, len(entries))
	for _, e := range entries {
		var l models.RequestLog
		if err := json.Unmarshal(e.Value, &l); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		logs = append(logs, &l)
	}
	return logs, nil
}

// GetRecent returns up to limit logs, newest first. A limit below one means
// the retention cap.
func (s *LogStore) GetRecent(ctx context.Context, limit int) ([]*models.RequestLog, error) {
	if limit < 1 {
		limit = s.maxEntries
	}
	logs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	recent := make([]*models.RequestLog, 0, min(limit, len(logs)))
	for i := len(logs) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, logs[i])
	}
	return recent, nil
}

// Count returns the number of stored logs.
func (s *LogStore) Count(ctx context.Context) (int, error) {
	entries, err := s.scan(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// CountByPath returns the number of stored logs for path.
func (s *LogStore) CountByPath(ctx context.Context, path string) (int, error) {
	logs, err := s.all(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range logs {
		if l.Path == path {
			n++
		}
	}
	return n, nil
}
