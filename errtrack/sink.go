package errtrack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/mkarlsen/servicekit/resilience"
)

const (
	sinkTimeout      = 10 * time.Second
	sinkRetryMax     = 2
	sinkMaxFailures  = 3
	sinkResetTimeout = 30 * time.Second
)

// sink posts events to the aggregation endpoint. Transport retries are
// handled by retryablehttp; repeated failures open a circuit breaker so a
// dead endpoint costs one cheap rejection per event instead of a full retry
// cycle.
type sink struct {
	endpoint string
	client   *retryablehttp.Client
	breaker  *resilience.Breaker
}

func newSink(endpoint string, log zerolog.Logger) *sink {
	client := retryablehttp.NewClient()
	client.RetryMax = sinkRetryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.Logger = nil

	return &sink{
		endpoint: endpoint,
		client:   client,
		breaker: resilience.NewBreaker(resilience.BreakerConfig{
			MaxFailures:  sinkMaxFailures,
			ResetTimeout: sinkResetTimeout,
			OnStateChange: func(from, to resilience.State) {
				log.Warn().
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("error sink circuit state changed")
			},
		}),
	}
}

// Send posts one event. It returns ErrCircuitOpen without touching the
// network while the breaker is open.
func (s *sink) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	return s.breaker.Do(ctx, func(ctx context.Context) error {
		return resilience.WithTimeout(ctx, sinkTimeout, func(ctx context.Context) error {
			return s.post(ctx, body)
		})
	})
}

func (s *sink) post(ctx context.Context, body []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status %d", ErrSinkRejected, resp.StatusCode)
	}
	return nil
}
