package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/events"
	"github.com/akagifreeez/cookie-relay/internal/models"
	"github.com/akagifreeez/cookie-relay/internal/repository"
	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

// ErrNoValidCookies is returned by Next when every cookie is invalid.
var ErrNoValidCookies = errors.New("no valid cookies available")

// CookieService stores upstream cookies and tracks their health. A cookie
// is valid while its fail count stays below maxFailCount; ResetFailCount is
// the only way back once it crosses.
type CookieService struct {
	repo         *repository.Repository[models.Cookie, *models.Cookie]
	maxFailCount int
	events       events.Publisher

	rotation atomic.Uint64
}

func NewCookieService(store kv.Store, maxFailCount int, publisher events.Publisher, opts ...repository.Option) *CookieService {
	if maxFailCount < 1 {
		maxFailCount = 1
	}
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	return &CookieService{
		repo:         repository.New[models.Cookie](store, CollectionCookies, opts...),
		maxFailCount: maxFailCount,
		events:       publisher,
	}
}

// MaxFailCount returns the configured failure threshold.
func (s *CookieService) MaxFailCount() int {
	return s.maxFailCount
}

// List returns every cookie, oldest first.
func (s *CookieService) List(ctx context.Context) ([]*models.Cookie, error) {
	return s.repo.GetAll(ctx)
}

// Get returns the cookie with id, or nil.
func (s *CookieService) Get(ctx context.Context, id string) (*models.Cookie, error) {
	return s.repo.Get(ctx, id)
}

// Add stores a new healthy cookie.
func (s *CookieService) Add(ctx context.Context, value, label string) (*models.Cookie, error) {
	return s.add(ctx, &models.Cookie{Value: value, Label: label})
}

func (s *CookieService) add(ctx context.Context, c *models.Cookie) (*models.Cookie, error) {
	c.IsValid = true
	c.FailCount = 0
	added, err := s.repo.Add(ctx, c)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, events.TopicCookieCreated, events.CookieChanged{Cookie: added})
	return added, nil
}

// Update merges patch into the cookie. It reports false when id does not
// exist. IsValid in patch is ignored; validity follows the resulting fail
// count.
func (s *CookieService) Update(ctx context.Context, id string, patch models.CookiePatch) (bool, error) {
	cur, err := s.repo.Get(ctx, id)
	if err != nil || cur == nil {
		return false, err
	}

	failCount := cur.FailCount
	if patch.FailCount != nil {
		failCount = max(*patch.FailCount, 0)
		patch.FailCount = &failCount
	}
	isValid := failCount < s.maxFailCount
	patch.IsValid = &isValid
	return s.repo.Update(ctx, id, patch)
}

// Delete removes a non-default cookie.
func (s *CookieService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	publish(ctx, s.events, events.TopicCookieDeleted, events.CookieDeleted{CookieID: id})
	return true, nil
}

// GetValidCookies returns the usable cookies, oldest first.
func (s *CookieService) GetValidCookies(ctx context.Context) ([]*models.Cookie, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	valid := make([]*models.Cookie, 0, len(all))
	for _, c := range all {
		if c.IsValid {
			valid = append(valid, c)
		}
	}
	return valid, nil
}

// IncrementFailCount records one failed upstream use of the cookie and
// recomputes its validity. It returns nil when id does not exist.
func (s *CookieService) IncrementFailCount(ctx context.Context, id string) (*models.Cookie, error) {
	cur, err := s.repo.Get(ctx, id)
	if err != nil || cur == nil {
		return nil, err
	}

	failCount := cur.FailCount + 1
	isValid := failCount < s.maxFailCount
	updated, err := s.repo.Patch(ctx, id, models.CookiePatch{FailCount: &failCount, IsValid: &isValid})
	if err != nil || updated == nil {
		return updated, err
	}

	if cur.IsValid && !updated.IsValid {
		log.Warn().
			Str("cookie_id", id).
			Int("fail_count", updated.FailCount).
			Int("threshold", s.maxFailCount).
			Msg("Cookie marked invalid")
		publish(ctx, s.events, events.TopicCookieInvalidated, events.CookieChanged{Cookie: updated})
	}
	return updated, nil
}

// ResetFailCount makes the cookie valid again. It returns nil when id does not exist.
func (s *CookieService) ResetFailCount(ctx context.Context, id string) (*models.Cookie, error) {
	failCount := 0
	isValid := true
	updated, err := s.repo.Patch(ctx, id, models.CookiePatch{FailCount: &failCount, IsValid: &isValid})
	if err != nil || updated == nil {
		return updated, err
	}
	log.Info().Str("cookie_id", id).Msg("Cookie fail count reset")
	publish(ctx, s.events, events.TopicCookieReset, events.CookieChanged{Cookie: updated})
	return updated, nil
}

// Next returns the next valid cookie in round-robin order and stamps its
// last use.
func (s *CookieService) Next(ctx context.Context) (*models.Cookie, error) {
	valid, err := s.GetValidCookies(ctx)
	if err != nil {
		return nil, err
	}
	if len(valid) == 0 {
		return nil, ErrNoValidCookies
	}

	idx := s.rotation.Add(1) - 1
	picked := valid[idx%uint64(len(valid))]

	now := s.repo.Now()
	updated, err := s.repo.Patch(ctx, picked.ID, models.CookiePatch{LastUsedAt: &now})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Deleted between the scan and the write; hand out what we read.
		return picked, nil
	}
	return updated, nil
}
