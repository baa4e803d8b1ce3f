package errtrack

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSampleRate forwards every event to the remote sink.
const DefaultSampleRate = 1.0

// Config configures a Tracker.
type Config struct {
	// Endpoint is the remote aggregation URL. Empty disables forwarding;
	// the tracker then operates local-only.
	Endpoint string

	// Environment tags forwarded events (e.g. "production", "staging").
	Environment string

	// SampleRate is the fraction of events forwarded remotely, in (0, 1].
	// Zero and out-of-range values fall back to DefaultSampleRate; to stop
	// forwarding, leave Endpoint empty instead. Local logging is never
	// sampled.
	SampleRate float64

	// Logger receives the local structured entries.
	Logger zerolog.Logger
}

// Event is the wire form of a captured exception or message.
type Event struct {
	Kind        string         `json:"kind"`
	Message     string         `json:"message"`
	Level       string         `json:"level"`
	Environment string         `json:"environment,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Tracker captures errors and messages. Every capture produces one local
// structured log entry; when a remote endpoint is configured, the event is
// additionally forwarded in the background.
type Tracker struct {
	log         zerolog.Logger
	environment string
	sampleRate  float64
	sample      func() float64
	sink        *sink

	wg sync.WaitGroup
}

// New creates a Tracker. A missing endpoint is not an error: the tracker
// simply never forwards.
func New(cfg Config) *Tracker {
	if cfg.SampleRate <= 0 || cfg.SampleRate > 1 {
		cfg.SampleRate = DefaultSampleRate
	}
	log := cfg.Logger.With().Str("component", "errtrack").Logger()

	t := &Tracker{
		log:         log,
		environment: cfg.Environment,
		sampleRate:  cfg.SampleRate,
		sample:      rand.Float64,
	}
	if cfg.Endpoint != "" {
		t.sink = newSink(cfg.Endpoint, log)
	}
	return t
}

// CaptureException logs err locally with the given context fields and
// forwards it to the remote sink if one is configured. It never fails.
func (t *Tracker) CaptureException(ctx context.Context, err error, fields map[string]any) {
	if err == nil {
		return
	}

	t.log.Error().
		Err(err).
		Fields(fields).
		Msg("captured exception")

	t.forward(ctx, Event{
		Kind:        "exception",
		Message:     err.Error(),
		Level:       zerolog.ErrorLevel.String(),
		Environment: t.environment,
		Context:     fields,
		Timestamp:   time.Now().UTC(),
	})
}

// CaptureMessage logs msg locally at the given level and forwards it to the
// remote sink if one is configured.
func (t *Tracker) CaptureMessage(ctx context.Context, msg string, level zerolog.Level) {
	t.log.WithLevel(level).Msg(msg)

	t.forward(ctx, Event{
		Kind:        "message",
		Message:     msg,
		Level:       level.String(),
		Environment: t.environment,
		Timestamp:   time.Now().UTC(),
	})
}

// forward hands the event to the sink in the background. Forwarding shares
// nothing with the caller: it is detached from request cancellation and its
// failures are logged at warn level only.
func (t *Tracker) forward(ctx context.Context, event Event) {
	if t.sink == nil {
		return
	}
	if t.sampleRate < 1 && t.sample() >= t.sampleRate {
		return
	}

	ctx = context.WithoutCancel(ctx)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := t.sink.Send(ctx, event); err != nil {
			t.log.Warn().Err(err).Str("kind", event.Kind).Msg("event forwarding failed")
		}
	}()
}

// Close waits for in-flight forwards to drain.
func (t *Tracker) Close() {
	t.wg.Wait()
}
