package resilience

import (
	"context"
	"errors"
	"time"
)

// WithTimeout runs op with a deadline. The operation runs in its own
// goroutine so a wedged op cannot block the caller past the deadline; the
// goroutine is handed the cancelled context and is expected to unwind.
func WithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}
