package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akagifreeez/cookie-relay/internal/events"
	"github.com/akagifreeez/cookie-relay/internal/models"
	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

func TestGetSettingsFallsBackWithoutWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	got, err := f.svc.Settings.GetSettings(ctx)
	require.NoError(t, err)
	want := models.DefaultSystemSettings()
	assert.Equal(t, &want, got)

	_, err = f.store.Get(ctx, settingsKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
	assert.Zero(t, f.store.Len())
}

func TestUpdateSettingsMergesOverDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	model := "claude-large"
	got, err := f.svc.Settings.UpdateSettings(ctx, models.SettingsPatch{DefaultModel: &model})
	require.NoError(t, err)
	assert.Equal(t, "claude-large", got.DefaultModel)
	assert.True(t, got.StreamEnabled)
	assert.Equal(t, 120, got.RequestTimeoutSeconds)
	assert.False(t, got.UpdatedAt.IsZero())

	stream := false
	_, err = f.svc.Settings.UpdateSettings(ctx, models.SettingsPatch{StreamEnabled: &stream})
	require.NoError(t, err)

	stored, err := f.svc.Settings.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "claude-large", stored.DefaultModel)
	assert.False(t, stored.StreamEnabled)
	assert.Equal(t, 2, f.pub.count(events.TopicSettingsUpdated))
}

func TestGetSettingsPropagatesBackendErrors(t *testing.T) {
	svc := NewSettingsService(brokenStore{}, nil)

	_, err := svc.GetSettings(context.Background())
	assert.ErrorIs(t, err, assert.AnError)

	_, err = svc.GetModelMappings(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestModelMappings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	mappings, err := f.svc.Settings.GetModelMappings(ctx)
	require.NoError(t, err)
	assert.Empty(t, mappings)
	assert.NotNil(t, mappings)

	_, err = f.svc.Settings.UpdateModelMappings(ctx, []models.ModelMapping{{From: "gpt-4", To: "claude-large"}})
	require.NoError(t, err)
	assert.Equal(t, 1, f.pub.count(events.TopicModelMappingsUpdated))

	resolved, err := f.svc.Settings.ResolveModel(ctx, "gpt-4")
	require.NoError(t, err)
	assert.Equal(t, "claude-large", resolved)

	resolved, err = f.svc.Settings.ResolveModel(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "other", resolved)

	resolved, err = f.svc.Settings.ResolveModel(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "default", resolved)
}

// brokenStore fails every operation.
type brokenStore struct{ kv.Store }

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, assert.AnError }
func (brokenStore) Set(context.Context, string, []byte) error   { return assert.AnError }
