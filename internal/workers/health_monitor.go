package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/services"
)

// HealthSnapshot is what one HealthMonitor pass observed.
type HealthSnapshot struct {
	Cookies      int
	ValidCookies int
	Logs         int
}

// HealthMonitor periodically reports cookie health and re-applies the log
// retention cap.
type HealthMonitor struct {
	cookies  *services.CookieService
	logs     *services.LogStore
	interval time.Duration
}

// NewHealthMonitor creates a new HealthMonitor worker
func NewHealthMonitor(svc *services.Services, interval time.Duration) *HealthMonitor {
	return &HealthMonitor{
		cookies:  svc.Cookies,
		logs:     svc.Logs,
		interval: interval,
	}
}

// Start runs a pass immediately, then one per interval until ctx is done.
func (h *HealthMonitor) Start(ctx context.Context) {
	log.Info().Dur("interval", h.interval).Msg("Starting Health Monitor worker")

	if _, err := h.check(ctx); err != nil {
		log.Error().Err(err).Msg("Initial health check failed")
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Health Monitor worker stopped")
			return
		case <-ticker.C:
			if _, err := h.check(ctx); err != nil {
				log.Error().Err(err).Msg("Periodic health check failed")
			}
		}
	}
}

func (h *HealthMonitor) check(ctx context.Context) (*HealthSnapshot, error) {
	all, err := h.cookies.List(ctx)
	if err != nil {
		return nil, err
	}
	snap := &HealthSnapshot{Cookies: len(all)}
	for _, c := range all {
		if c.IsValid {
			snap.ValidCookies++
		}
	}

	if err := h.logs.Trim(ctx); err != nil {
		return nil, err
	}
	if snap.Logs, err = h.logs.Count(ctx); err != nil {
		return nil, err
	}

	level := zerolog.InfoLevel
	if snap.Cookies > 0 && snap.ValidCookies == 0 {
		level = zerolog.WarnLevel
	}
	log.WithLevel(level).
		Int("cookies", snap.Cookies).
		Int("valid_cookies", snap.ValidCookies).
		Int("invalid_cookies", snap.Cookies-snap.ValidCookies).
		Int("request_logs", snap.Logs).
		Msg("Cookie health")

	return snap, nil
}

// RunOnce performs a single pass (useful for testing)
func (h *HealthMonitor) RunOnce(ctx context.Context) (*HealthSnapshot, error) {
	return h.check(ctx)
}
