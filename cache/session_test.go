package cache

import (
	"context"
	"testing"
	"time"
)

func TestSessionStore_CreateAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	sessions := NewSessionStore(store, time.Hour)
	ctx := context.Background()

	id := sessions.Create(ctx, map[string]any{"user": "alice", "role": "admin"})
	if id == "" {
		t.Fatal("Create() returned empty id")
	}

	payload := sessions.Get(ctx, id)
	if payload == nil {
		t.Fatal("Get() = nil for fresh session")
	}
	if payload["user"] != "alice" || payload["role"] != "admin" {
		t.Errorf("payload = %v", payload)
	}
}

func TestSessionStore_DistinctIDs(t *testing.T) {
	store, _ := newTestStore(t)
	sessions := NewSessionStore(store, time.Hour)
	ctx := context.Background()

	a := sessions.Create(ctx, map[string]any{"n": 1.0})
	b := sessions.Create(ctx, map[string]any{"n": 2.0})
	if a == b {
		t.Error("Create() returned duplicate ids")
	}
}

func TestSessionStore_GetDoesNotExtendTTL(t *testing.T) {
	store, mr := newTestStore(t)
	sessions := NewSessionStore(store, time.Hour)
	ctx := context.Background()

	id := sessions.Create(ctx, map[string]any{"user": "bob"})

	mr.FastForward(30 * time.Minute)
	if sessions.Get(ctx, id) == nil {
		t.Fatal("session should still be alive at half TTL")
	}

	// A read must not have reset the clock.
	mr.FastForward(31 * time.Minute)
	if sessions.Get(ctx, id) != nil {
		t.Error("session should have expired; reads must not slide expiration")
	}
}

func TestSessionStore_UpdateResetsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	sessions := NewSessionStore(store, time.Hour)
	ctx := context.Background()

	id := sessions.Create(ctx, map[string]any{"step": "one"})

	mr.FastForward(45 * time.Minute)
	sessions.Update(ctx, id, map[string]any{"step": "two"})

	// Past the original deadline, but within the refreshed one.
	mr.FastForward(45 * time.Minute)
	payload := sessions.Get(ctx, id)
	if payload == nil {
		t.Fatal("updated session should survive past the original TTL")
	}
	if payload["step"] != "two" {
		t.Errorf("payload[step] = %v, want two", payload["step"])
	}
}

func TestSessionStore_DestroyThenGet(t *testing.T) {
	store, _ := newTestStore(t)
	sessions := NewSessionStore(store, time.Hour)
	ctx := context.Background()

	id := sessions.Create(ctx, map[string]any{"user": "carol"})
	sessions.Destroy(ctx, id)

	if sessions.Get(ctx, id) != nil {
		t.Error("Get after Destroy should return nil")
	}
}

func TestSessionStore_NaturalExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	sessions := NewSessionStore(store, 10*time.Minute)
	ctx := context.Background()

	id := sessions.Create(ctx, map[string]any{"user": "dave"})
	mr.FastForward(11 * time.Minute)

	if sessions.Get(ctx, id) != nil {
		t.Error("expired session should be gone")
	}
}

func TestNewSessionStore_DefaultTTL(t *testing.T) {
	store, _ := newTestStore(t)

	sessions := NewSessionStore(store, 0)
	if sessions.TTL() != DefaultSessionTTL {
		t.Errorf("TTL() = %v, want %v", sessions.TTL(), DefaultSessionTTL)
	}
}
