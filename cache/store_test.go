package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

// newTestStore spins up an in-process Redis and a connected Store.
func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := New(Config{
		Addr:       mr.Addr(),
		DefaultTTL: time.Minute,
	})
	if err := store.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestStore_Connect_Idempotent(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Connect(context.Background()); err != nil {
		t.Errorf("second Connect() error = %v, want nil", err)
	}
}

func TestStore_Connect_ExhaustedBudgetIsFatal(t *testing.T) {
	store := New(Config{
		Addr:               "127.0.0.1:1", // nothing listens here
		ConnectMaxAttempts: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.Connect(ctx); err == nil {
		t.Error("Connect() to unreachable server should fail")
	}
}

func TestStore_SetThenGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value any
		want  any
	}{
		{"string", "k:str", "hello", "hello"},
		{"number", "k:num", 42.0, 42.0},
		{"map", "k:map", map[string]any{"a": "b"}, map[string]any{"a": "b"}},
		{"slice", "k:slice", []any{"x", "y"}, []any{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.Set(ctx, tt.key, tt.value, time.Minute)

			got, ok := store.Get(ctx, tt.key)
			if !ok {
				t.Fatalf("Get(%q) = miss, want hit", tt.key)
			}
			switch want := tt.want.(type) {
			case map[string]any:
				gotMap, ok := got.(map[string]any)
				if !ok {
					t.Fatalf("Get(%q) type = %T, want map", tt.key, got)
				}
				for k, v := range want {
					if gotMap[k] != v {
						t.Errorf("Get(%q)[%q] = %v, want %v", tt.key, k, gotMap[k], v)
					}
				}
			case []any:
				gotSlice, ok := got.([]any)
				if !ok || len(gotSlice) != len(want) {
					t.Fatalf("Get(%q) = %v, want %v", tt.key, got, want)
				}
				for i := range want {
					if gotSlice[i] != want[i] {
						t.Errorf("Get(%q)[%d] = %v, want %v", tt.key, i, gotSlice[i], want[i])
					}
				}
			default:
				if got != want {
					t.Errorf("Get(%q) = %v, want %v", tt.key, got, want)
				}
			}
		})
	}
}

func TestStore_Get_Miss(t *testing.T) {
	store, _ := newTestStore(t)

	if v, ok := store.Get(context.Background(), "absent"); ok || v != nil {
		t.Errorf("Get(absent) = (%v, %v), want (nil, false)", v, ok)
	}
}

func TestStore_Get_RawFallback(t *testing.T) {
	store, mr := newTestStore(t)

	// A value another client wrote without JSON encoding.
	mr.Set("raw", "not json {")

	got, ok := store.Get(context.Background(), "raw")
	if !ok {
		t.Fatal("Get(raw) = miss, want hit")
	}
	if got != "not json {" {
		t.Errorf("Get(raw) = %v, want raw string", got)
	}
}

func TestStore_Get_AfterTTLExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	store.Set(ctx, "ephemeral", "v", 10*time.Second)
	mr.FastForward(11 * time.Second)

	if _, ok := store.Get(ctx, "ephemeral"); ok {
		t.Error("Get after TTL expiry should miss")
	}
}

func TestStore_Set_DefaultTTLApplied(t *testing.T) {
	store, mr := newTestStore(t)

	store.Set(context.Background(), "k", "v", 0)

	ttl := mr.TTL("k")
	if ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m (configured default)", ttl)
	}
}

func TestStore_Set_FailureIsSwallowed(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	// Must not panic or surface an error.
	store.Set(context.Background(), "k", "v", time.Minute)
}

func TestStore_GetJSON(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	store.Set(ctx, "typed", payload{Name: "a", Count: 3}, time.Minute)

	var got payload
	if !store.GetJSON(ctx, "typed", &got) {
		t.Fatal("GetJSON = miss, want hit")
	}
	if got.Name != "a" || got.Count != 3 {
		t.Errorf("GetJSON = %+v, want {a 3}", got)
	}

	var absent payload
	if store.GetJSON(ctx, "absent", &absent) {
		t.Error("GetJSON(absent) = hit, want miss")
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Set(ctx, "k", "v", time.Minute)
	store.Delete(ctx, "k")

	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("Get after Delete should miss")
	}

	// Idempotent on absent keys.
	store.Delete(ctx, "k")
}

func TestStore_DeleteMany(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Set(ctx, "a", 1, time.Minute)
	store.Set(ctx, "b", 2, time.Minute)
	store.Set(ctx, "c", 3, time.Minute)

	store.DeleteMany(ctx, []string{"a", "b"})

	if _, ok := store.Get(ctx, "a"); ok {
		t.Error("a should be deleted")
	}
	if _, ok := store.Get(ctx, "c"); !ok {
		t.Error("c should survive")
	}

	store.DeleteMany(ctx, nil) // no-op
}

func TestStore_ClearByPattern(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Set(ctx, "views:1", "a", time.Minute)
	store.Set(ctx, "views:2", "b", time.Minute)
	store.Set(ctx, "views:3", "c", time.Minute)
	store.Set(ctx, "users:1", "d", time.Minute)

	count := store.ClearByPattern(ctx, "views:*")
	if count != 3 {
		t.Errorf("ClearByPattern = %d, want 3", count)
	}

	if _, ok := store.Get(ctx, "views:1"); ok {
		t.Error("matching key should be removed")
	}
	if _, ok := store.Get(ctx, "users:1"); !ok {
		t.Error("non-matching key should be untouched")
	}
}

func TestStore_ClearByPattern_NoMatches(t *testing.T) {
	store, _ := newTestStore(t)

	if count := store.ClearByPattern(context.Background(), "nothing:*"); count != 0 {
		t.Errorf("ClearByPattern = %d, want 0", count)
	}
}

func TestStore_Increment_Concurrent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := store.Increment(ctx, "counter", 1); err != nil {
				t.Errorf("Increment() error = %v", err)
			}
		}()
	}
	wg.Wait()

	total, err := store.Increment(ctx, "counter", 0)
	if err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if total != workers {
		t.Errorf("counter = %d, want %d (no lost updates)", total, workers)
	}
}

func TestStore_Ping(t *testing.T) {
	store, mr := newTestStore(t)

	if !store.Ping(context.Background()) {
		t.Error("Ping() = false while server is up")
	}

	mr.Close()
	if store.Ping(context.Background()) {
		t.Error("Ping() = true after server went away")
	}
}
