package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/mkarlsen/servicekit/cache"
)

func ExampleStore() {
	store := cache.New(cache.Config{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := store.Connect(ctx); err != nil {
		panic(err)
	}
	defer store.Close()

	store.Set(ctx, "user:42", map[string]any{"name": "Ada"}, 10*time.Minute)
	if v, ok := store.Get(ctx, "user:42"); ok {
		fmt.Println(v)
	}
}

func ExampleSessionStore() {
	store := cache.New(cache.Config{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := store.Connect(ctx); err != nil {
		panic(err)
	}
	defer store.Close()

	sessions := cache.NewSessionStore(store, 0)
	id := sessions.Create(ctx, map[string]any{"user_id": "u-42"})
	defer sessions.Destroy(ctx, id)

	fmt.Println(sessions.Get(ctx, id)["user_id"])
}

func ExampleMemoize() {
	store := cache.New(cache.Config{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := store.Connect(ctx); err != nil {
		panic(err)
	}
	defer store.Close()

	lookup := cache.Memoize(store, time.Minute,
		func(id string) string { return cache.Key("profile", id) },
		func(ctx context.Context, id string) (string, error) {
			return "profile for " + id, nil
		},
	)

	profile, _ := lookup(ctx, "u-42")
	fmt.Println(profile)
}
