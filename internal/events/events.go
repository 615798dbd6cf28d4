package events

import (
	"context"

	"github.com/akagifreeez/cookie-relay/internal/models"
)

// Event topic constants
const (
	TopicCookieCreated     = "relay.cookie.created"
	TopicCookieDeleted     = "relay.cookie.deleted"
	TopicCookieInvalidated = "relay.cookie.invalidated"
	TopicCookieReset       = "relay.cookie.reset"

	TopicAPIKeyCreated = "relay.api_key.created"
	TopicAPIKeyDeleted = "relay.api_key.deleted"

	TopicSettingsUpdated      = "relay.settings.updated"
	TopicModelMappingsUpdated = "relay.model_mappings.updated"
)

// Event types

type CookieChanged struct {
	Cookie *models.Cookie `json:"cookie"`
}

type CookieDeleted struct {
	CookieID string `json:"cookie_id"`
}

type APIKeyCreated struct {
	KeyID string `json:"key_id"`
	Label string `json:"label,omitempty"`
}

type APIKeyDeleted struct {
	KeyID string `json:"key_id"`
}

type SettingsUpdated struct {
	Settings *models.SystemSettings `json:"settings"`
}

type ModelMappingsUpdated struct {
	Mappings []models.ModelMapping `json:"mappings"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
