package models

import (
	"time"
)

// ApiKey authenticates a caller of the relay. RequestCount only grows.
type ApiKey struct {
	ID           string     `json:"id"`
	Key          string     `json:"key"`
	Label        string     `json:"label,omitempty"`
	IsEnabled    bool       `json:"is_enabled"`
	IsDefault    bool       `json:"is_default"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"` // Pointer to handle never used
	RequestCount int64      `json:"request_count"`
}

func (k *ApiKey) RecordID() string           { return k.ID }
func (k *ApiKey) RecordCreatedAt() time.Time { return k.CreatedAt }
func (k *ApiKey) Protected() bool            { return k.IsDefault }

func (k *ApiKey) Stamp(id string, now time.Time) {
	k.ID = id
	k.CreatedAt = now
}

// Touch is a no-op: keys carry no update timestamp.
func (k *ApiKey) Touch(time.Time) {}

// Masked returns a copy safe to show in listings.
func (k ApiKey) Masked() ApiKey {
	if len(k.Key) > 8 {
		k.Key = k.Key[:4] + "****" + k.Key[len(k.Key)-4:]
	} else {
		k.Key = "********"
	}
	return k
}

// ApiKeyPatch holds the key fields an admin update may replace. Usage
// counters are only advanced by KeyManager.RecordUsage.
type ApiKeyPatch struct {
	Label     *string `json:"label,omitempty"`
	IsEnabled *bool   `json:"is_enabled,omitempty"`
}
