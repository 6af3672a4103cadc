package auth

import (
	"context"
	"sync"
	"time"

	"accident-monitor/internal/config"
)

// KeyLookup resolves an API key to its provisioned label. Satisfied by
// store.RedisStore.
type KeyLookup interface {
	GetAPIKey(ctx context.Context, apiKey string) (string, error)
}

type cacheEntry struct {
	label     string
	expiresAt time.Time
}

// Authenticator gates the hardware ingestion path. Validation is a plain
// boolean: static config keys first, then a local TTL cache, then the
// provisioned key store. A nil lookup degrades to static keys only.
type Authenticator struct {
	localCache sync.Map
	lookup     KeyLookup
	ttl        time.Duration
	staticKeys map[string]bool
}

func NewAuthenticator(cfg *config.Config, lookup KeyLookup) *Authenticator {
	staticKeys := make(map[string]bool, len(cfg.HardwareAPIKeys))
	for _, k := range cfg.HardwareAPIKeys {
		if k != "" {
			staticKeys[k] = true
		}
	}

	return &Authenticator{
		lookup:     lookup,
		ttl:        time.Duration(cfg.AuthCacheTTLSeconds) * time.Second,
		staticKeys: staticKeys,
	}
}

func (a *Authenticator) Validate(ctx context.Context, apiKey string) bool {
	if apiKey == "" {
		return false
	}

	// Level 0: static config keys
	if a.staticKeys[apiKey] {
		return true
	}

	// Level 1: in-memory cache
	if raw, ok := a.localCache.Load(apiKey); ok {
		entry := raw.(cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return true
		}
		a.localCache.Delete(apiKey)
	}

	// Level 2: provisioned keys
	if a.lookup == nil {
		return false
	}
	label, err := a.lookup.GetAPIKey(ctx, apiKey)
	if err != nil || label == "" {
		return false
	}

	a.localCache.Store(apiKey, cacheEntry{
		label:     label,
		expiresAt: time.Now().Add(a.ttl),
	})

	return true
}
