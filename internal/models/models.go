package models

import (
	"time"
)

// Cookie is a rotating upstream session credential. IsValid always equals
// FailCount < the configured fail threshold.
type Cookie struct {
	ID         string     `json:"id"`
	Value      string     `json:"value"`
	Label      string     `json:"label,omitempty"`
	IsValid    bool       `json:"is_valid"`
	FailCount  int        `json:"fail_count"`
	IsDefault  bool       `json:"is_default"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"` // Pointer to handle never used
}

func (c *Cookie) RecordID() string           { return c.ID }
func (c *Cookie) RecordCreatedAt() time.Time { return c.CreatedAt }
func (c *Cookie) Protected() bool            { return c.IsDefault }

func (c *Cookie) Stamp(id string, now time.Time) {
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
}

func (c *Cookie) Touch(now time.Time) { c.UpdatedAt = now }

// CookiePatch holds the cookie fields an update may replace. Nil fields are left alone.
type CookiePatch struct {
	Value      *string    `json:"value,omitempty"`
	Label      *string    `json:"label,omitempty"`
	IsValid    *bool      `json:"is_valid,omitempty"`
	FailCount  *int       `json:"fail_count,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// RequestLog is one served request. Timestamp is Unix milliseconds.
type RequestLog struct {
	ID         string `json:"id"`
	Timestamp  int64  `json:"timestamp"`
	Path       string `json:"path"`
	Method     string `json:"method,omitempty"`
	Status     int    `json:"status,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Model      string `json:"model,omitempty"`
	APIKeyID   string `json:"api_key_id,omitempty"`
	ClientIP   string `json:"client_ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Time returns the log timestamp as a time.Time.
func (l *RequestLog) Time() time.Time {
	return time.UnixMilli(l.Timestamp)
}

// SystemSettings is the single mutable configuration record.
type SystemSettings struct {
	DefaultModel          string    `json:"default_model"`
	StreamEnabled         bool      `json:"stream_enabled"`
	RequestTimeoutSeconds int       `json:"request_timeout_seconds"`
	LogRequests           bool      `json:"log_requests"`
	UpdatedAt             time.Time `json:"updated_at,omitempty"`
}

// SettingsPatch holds the settings fields an update may replace.
type SettingsPatch struct {
	DefaultModel          *string `json:"default_model,omitempty"`
	StreamEnabled         *bool   `json:"stream_enabled,omitempty"`
	RequestTimeoutSeconds *int    `json:"request_timeout_seconds,omitempty"`
	LogRequests           *bool   `json:"log_requests,omitempty"`
}

// DefaultSystemSettings is served until settings are first written.
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{
		DefaultModel:          "default",
		StreamEnabled:         true,
		RequestTimeoutSeconds: 120,
		LogRequests:           true,
	}
}

// ModelMapping rewrites a requested model name to an upstream one.
type ModelMapping struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DefaultModelMappings is served until mappings are first written.
func DefaultModelMappings() []ModelMapping {
	return []ModelMapping{}
}
