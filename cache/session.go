package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// sessionPrefix namespaces session keys inside the shared store.
const sessionPrefix = "session:"

// DefaultSessionTTL is the session lifetime when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore keeps ephemeral user session payloads in the cache under a
// fixed key prefix.
//
// Expiration slides on writes only: Update resets the TTL, Get never does.
// The asymmetry is deliberate: a session stays alive while the user acts on
// it, not while something merely looks at it.
type SessionStore struct {
	store *Store
	ttl   time.Duration
}

// NewSessionStore wraps a Store with session semantics. A non-positive ttl
// selects DefaultSessionTTL.
func NewSessionStore(store *Store, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{store: store, ttl: ttl}
}

// Create stores a new session payload and returns its identifier.
// The write inherits the store's best-effort policy.
func (s *SessionStore) Create(ctx context.Context, payload map[string]any) string {
	id := uuid.NewString()
	s.store.Set(ctx, sessionPrefix+id, payload, s.ttl)
	return id
}

// Get returns the session payload, or nil if the session does not exist or
// has expired. The TTL is not extended.
func (s *SessionStore) Get(ctx context.Context, id string) map[string]any {
	var payload map[string]any
	if !s.store.GetJSON(ctx, sessionPrefix+id, &payload) {
		return nil
	}
	return payload
}

// Update replaces the session payload and resets its TTL.
func (s *SessionStore) Update(ctx context.Context, id string, payload map[string]any) {
	s.store.Set(ctx, sessionPrefix+id, payload, s.ttl)
}

// Destroy removes the session immediately.
func (s *SessionStore) Destroy(ctx context.Context, id string) {
	s.store.Delete(ctx, sessionPrefix+id)
}

// TTL returns the configured session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}
