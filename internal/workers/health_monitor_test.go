package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akagifreeez/cookie-relay/internal/models"
	"github.com/akagifreeez/cookie-relay/internal/services"
	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

func TestHealthMonitorRunOnce(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	// Logs written under a larger cap, then read back with a smaller one.
	wide := services.NewLogStore(store, 10)
	for ts := int64(1); ts <= 5; ts++ {
		_, err := wide.Add(ctx, &models.RequestLog{Timestamp: ts})
		require.NoError(t, err)
	}

	svc := services.New(store, services.Options{MaxFailCount: 1, MaxLogEntries: 3})
	a, err := svc.Cookies.Add(ctx, "a", "")
	require.NoError(t, err)
	_, err = svc.Cookies.Add(ctx, "b", "")
	require.NoError(t, err)
	_, err = svc.Cookies.IncrementFailCount(ctx, a.ID)
	require.NoError(t, err)

	snap, err := NewHealthMonitor(svc, time.Minute).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, &HealthSnapshot{Cookies: 2, ValidCookies: 1, Logs: 3}, snap)

	recent, err := svc.Logs.GetRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.EqualValues(t, 3, recent[2].Timestamp)
}

func TestHealthMonitorStopsWithContext(t *testing.T) {
	svc := services.New(kv.NewMemoryStore(), services.Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewHealthMonitor(svc, 10*time.Millisecond).Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("health monitor did not stop")
	}
}
