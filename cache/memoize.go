package cache

import (
	"context"
	"time"
)

// Memoize wraps fn so that its result is cached under keys derived from the
// input. The returned function checks the cache, falls through to fn on a
// miss, and populates the cache before returning. Errors are never cached.
//
// This is plain composition: the wrapped function is untouched and the
// wrapper carries no hidden state beyond the store it was given.
func Memoize[A any, R any](store *Store, ttl time.Duration, keyFn func(A) string, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	return func(ctx context.Context, arg A) (R, error) {
		key := keyFn(arg)

		var cached R
		if store.GetJSON(ctx, key, &cached) {
			return cached, nil
		}

		result, err := fn(ctx, arg)
		if err != nil {
			return result, err
		}

		store.Set(ctx, key, result, ttl)
		return result, nil
	}
}
