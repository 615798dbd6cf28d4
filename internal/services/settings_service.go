package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akagifreeez/cookie-relay/internal/events"
	"github.com/akagifreeez/cookie-relay/internal/models"
	"github.com/akagifreeez/cookie-relay/internal/repository"
	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

var (
	settingsKey      = kv.MustEncode(kv.Key{CollectionSettings, "system"})
	modelMappingsKey = kv.MustEncode(kv.Key{CollectionSettings, "model_mappings"})
)

// SettingsService holds the system settings record and the model mapping
// list. Until first written each reads as its static default; the default
// is never written back on read.
type SettingsService struct {
	store  kv.Store
	events events.Publisher
	now    func() time.Time
}

// NewSettingsService creates a new service over store
func NewSettingsService(store kv.Store, publisher events.Publisher, opts ...repository.Option) *SettingsService {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	return &SettingsService{
		store:  store,
		events: publisher,
		now:    repository.ClockFrom(opts...),
	}
}

// GetSettings returns the stored settings or the defaults.
func (s *SettingsService) GetSettings(ctx context.Context) (*models.SystemSettings, error) {
	settings := models.DefaultSystemSettings()
	found, err := s.load(ctx, settingsKey, &settings)
	if err != nil {
		return nil, err
	}
	if !found {
		settings = models.DefaultSystemSettings()
	}
	return &settings, nil
}

// UpdateSettings merges patch over the current (or default) settings,
// stores and returns the result.
func (s *SettingsService) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.SystemSettings, error) {
	cur, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	merged, err := repository.Merge(cur, patch)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	merged.UpdatedAt = s.now()

	if err := s.save(ctx, settingsKey, merged); err != nil {
		return nil, err
	}
	publish(ctx, s.events, events.TopicSettingsUpdated, events.SettingsUpdated{Settings: merged})
	return merged, nil
}

// GetModelMappings returns the stored mappings or the defaults.
func (s *SettingsService) GetModelMappings(ctx context.Context) ([]models.ModelMapping, error) {
	var mappings []models.ModelMapping
	found, err := s.load(ctx, modelMappingsKey, &mappings)
	if err != nil {
		return nil, err
	}
	if !found || mappings == nil {
		return models.DefaultModelMappings(), nil
	}
	return mappings, nil
}

// UpdateModelMappings replaces the mapping list.
func (s *SettingsService) UpdateModelMappings(ctx context.Context, mappings []models.ModelMapping) ([]models.ModelMapping, error) {
	if mappings == nil {
		mappings = []models.ModelMapping{}
	}
	if err := s.save(ctx, modelMappingsKey, mappings); err != nil {
		return nil, err
	}
	publish(ctx, s.events, events.TopicModelMappingsUpdated, events.ModelMappingsUpdated{Mappings: mappings})
	return mappings, nil
}

// ResolveModel maps a requested model through the mapping list. An empty
// request resolves to the default model; unmapped names pass through.
func (s *SettingsService) ResolveModel(ctx context.Context, requested string) (string, error) {
	if requested == "" {
		settings, err := s.GetSettings(ctx)
		if err != nil {
			return "", err
		}
		requested = settings.DefaultModel
	}
	mappings, err := s.GetModelMappings(ctx)
	if err != nil {
		return "", err
	}
	for _, m := range mappings {
		if m.From == requested {
			return m.To, nil
		}
	}
	return requested, nil
}

func (s *SettingsService) load(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *SettingsService) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
