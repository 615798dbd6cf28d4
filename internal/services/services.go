package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/events"
	"github.com/akagifreeez/cookie-relay/internal/repository"
	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

// Collection names, the first key segment of every stored record.
const (
	CollectionCookies     = "cookies"
	CollectionAPIKeys     = "api_keys"
	CollectionRequestLogs = "request_logs"
	CollectionSettings    = "settings"
)

// Options configures the services sharing one store.
type Options struct {
	// MaxFailCount is the failure count at which a cookie becomes invalid.
	MaxFailCount int
	// MaxLogEntries caps the number of stored request logs.
	MaxLogEntries int
	// DefaultCookies and DefaultAPIKeys are seeded by InitializeDatabase.
	DefaultCookies []string
	DefaultAPIKeys []string

	Publisher         events.Publisher
	RepositoryOptions []repository.Option
}

// Services bundles the repositories built on one backend handle.
type Services struct {
	Cookies  *CookieService
	Keys     *KeyManager
	Logs     *LogStore
	Settings *SettingsService

	defaultCookies []string
	defaultAPIKeys []string
}

// New builds every service over store.
func New(store kv.Store, opts Options) *Services {
	if opts.Publisher == nil {
		opts.Publisher = &events.NoopPublisher{}
	}
	return &Services{
		Cookies:        NewCookieService(store, opts.MaxFailCount, opts.Publisher, opts.RepositoryOptions...),
		Keys:           NewKeyManager(store, opts.Publisher, opts.RepositoryOptions...),
		Logs:           NewLogStore(store, opts.MaxLogEntries, opts.RepositoryOptions...),
		Settings:       NewSettingsService(store, opts.Publisher, opts.RepositoryOptions...),
		defaultCookies: opts.DefaultCookies,
		defaultAPIKeys: opts.DefaultAPIKeys,
	}
}

// publish emits an event; delivery failures never fail the operation.
func publish(ctx context.Context, p events.Publisher, topic string, event any) {
	if err := p.Publish(ctx, topic, event); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}
