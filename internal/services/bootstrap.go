package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/models"
)

// SeedReport says what InitializeDatabase inserted.
type SeedReport struct {
	Cookies int
	APIKeys int
}

// InitializeDatabase seeds the default cookies and API keys. Each collection
// is seeded only while it is completely empty, so running this again is a
// no-op, and a collection holding only non-default records is never
// re-seeded. Call it once at startup before serving traffic.
func (s *Services) InitializeDatabase(ctx context.Context) (*SeedReport, error) {
	report := &SeedReport{}

	cookies, err := s.Cookies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("check cookies: %w", err)
	}
	if len(cookies) == 0 && len(s.defaultCookies) > 0 {
		for _, value := range s.defaultCookies {
			if _, err := s.Cookies.add(ctx, &models.Cookie{Value: value, IsDefault: true}); err != nil {
				return report, fmt.Errorf("seed cookie: %w", err)
			}
			report.Cookies++
		}
		log.Info().Int("count", report.Cookies).Msg("Seeded default cookies")
	}

	keys, err := s.Keys.GetKeys(ctx)
	if err != nil {
		return report, fmt.Errorf("check api keys: %w", err)
	}
	if len(keys) == 0 {
		for _, key := range s.defaultAPIKeys {
			if _, err := s.Keys.add(ctx, &models.ApiKey{Key: key, IsDefault: true}); err != nil {
				return report, fmt.Errorf("seed api key: %w", err)
			}
			report.APIKeys++
		}
		if report.APIKeys > 0 {
			log.Info().Int("count", report.APIKeys).Msg("Seeded default API keys")
		}
	}

	return report, nil
}
