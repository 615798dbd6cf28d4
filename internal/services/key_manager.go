package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/events"
	"github.com/akagifreeez/cookie-relay/internal/idgen"
	"github.com/akagifreeez/cookie-relay/internal/models"
	"github.com/akagifreeez/cookie-relay/internal/repository"
	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

// KeyManager stores the API keys callers authenticate with and counts their use.
type KeyManager struct {
	repo   *repository.Repository[models.ApiKey, *models.ApiKey]
	events events.Publisher
}

func NewKeyManager(store kv.Store, publisher events.Publisher, opts ...repository.Option) *KeyManager {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	return &KeyManager{
		repo:   repository.New[models.ApiKey](store, CollectionAPIKeys, opts...),
		events: publisher,
	}
}

// AddKey stores an enabled key. An empty key is replaced by a generated secret.
func (km *KeyManager) AddKey(ctx context.Context, key, label string) (*models.ApiKey, error) {
	return km.add(ctx, &models.ApiKey{Key: strings.TrimSpace(key), Label: label})
}

func (km *KeyManager) add(ctx context.Context, k *models.ApiKey) (*models.ApiKey, error) {
	if k.Key == "" {
		secret, err := idgen.NewSecret()
		if err != nil {
			return nil, err
		}
		k.Key = secret
	}
	k.IsEnabled = true
	k.RequestCount = 0
	added, err := km.repo.Add(ctx, k)
	if err != nil {
		return nil, err
	}
	publish(ctx, km.events, events.TopicAPIKeyCreated, events.APIKeyCreated{KeyID: added.ID, Label: added.Label})
	return added, nil
}

// GetKeys returns every key, oldest first.
func (km *KeyManager) GetKeys(ctx context.Context) ([]*models.ApiKey, error) {
	return km.repo.GetAll(ctx)
}

// GetKeyByID returns the key with id, or nil.
func (km *KeyManager) GetKeyByID(ctx context.Context, id string) (*models.ApiKey, error) {
	return km.repo.Get(ctx, id)
}

// GetByKey finds a key by its secret value. This is a linear scan; when
// duplicates exist the oldest wins.
func (km *KeyManager) GetByKey(ctx context.Context, key string) (*models.ApiKey, error) {
	all, err := km.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range all {
		if k.Key == key {
			return k, nil
		}
	}
	return nil, nil
}

// GetEnabledKeys returns the keys currently accepted, oldest first.
func (km *KeyManager) GetEnabledKeys(ctx context.Context) ([]*models.ApiKey, error) {
	all, err := km.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	enabled := make([]*models.ApiKey, 0, len(all))
	for _, k := range all {
		if k.IsEnabled {
			enabled = append(enabled, k)
		}
	}
	return enabled, nil
}

// UpdateKey merges patch into the key. It reports false when id does not exist.
func (km *KeyManager) UpdateKey(ctx context.Context, id string, patch models.ApiKeyPatch) (bool, error) {
	return km.repo.Update(ctx, id, patch)
}

// SetEnabled enables or disables a key without deleting it.
func (km *KeyManager) SetEnabled(ctx context.Context, id string, enabled bool) (bool, error) {
	ok, err := km.repo.Update(ctx, id, models.ApiKeyPatch{IsEnabled: &enabled})
	if err == nil && ok && !enabled {
		log.Warn().Str("key_id", id).Msg("API key disabled")
	}
	return ok, err
}

// usagePatch advances the counters ApiKeyPatch leaves out.
type usagePatch struct {
	RequestCount int64     `json:"request_count"`
	LastUsedAt   time.Time `json:"last_used_at"`
}

// IncrementRequestCount adds one use to the key with the given secret value.
// It reports false when no key matches.
func (km *KeyManager) IncrementRequestCount(ctx context.Context, key string) (bool, error) {
	k, err := km.GetByKey(ctx, key)
	if err != nil || k == nil {
		return false, err
	}
	return km.recordUsage(ctx, k)
}

// RecordUsage adds one use to the key with id. It reports false when id
// does not exist.
func (km *KeyManager) RecordUsage(ctx context.Context, id string) (bool, error) {
	k, err := km.repo.Get(ctx, id)
	if err != nil || k == nil {
		return false, err
	}
	return km.recordUsage(ctx, k)
}

func (km *KeyManager) recordUsage(ctx context.Context, k *models.ApiKey) (bool, error) {
	return km.repo.Update(ctx, k.ID, usagePatch{RequestCount: k.RequestCount + 1, LastUsedAt: km.repo.Now()})
}

// DeleteKey removes a non-default key.
func (km *KeyManager) DeleteKey(ctx context.Context, id string) (bool, error) {
	ok, err := km.repo.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	publish(ctx, km.events, events.TopicAPIKeyDeleted, events.APIKeyDeleted{KeyID: id})
	return true, nil
}
