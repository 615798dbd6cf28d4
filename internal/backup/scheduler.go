package backup

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

// Scheduler runs periodic backups to one or more destinations.
type Scheduler struct {
	store        kv.Store
	destinations []Destination
	interval     time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(store kv.Store, destinations []Destination, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:        store,
		destinations: destinations,
		interval:     interval,
	}
}

// Start runs one backup immediately, then one per interval until Stop or
// until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce exports the store and writes it to every destination. Failures
// are logged; one failing destination does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	var buf bytes.Buffer
	n, err := ExportJSONL(ctx, s.store, &buf)
	if err != nil {
		log.Error().Err(err).Msg("Backup export failed")
		return 0
	}
	data := buf.Bytes()

	written := 0
	for i, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			log.Error().Err(err).Int("destination", i).Msg("Backup destination write failed")
			continue
		}
		written++
	}

	log.Info().
		Int("entries", n).
		Int("bytes", len(data)).
		Int("destinations", written).
		Msg("Backup completed")
	return written
}
