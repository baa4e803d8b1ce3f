package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Status represents a probe or aggregate health status.
type Status int

const (
	// StatusHealthy indicates the subsystem is functioning normally.
	StatusHealthy Status = iota
	// StatusUnhealthy indicates the probe explicitly reported failure.
	StatusUnhealthy
	// StatusError indicates the probe itself failed (error, panic, timeout).
	StatusError
	// StatusDegraded is the aggregate status when any probe is not healthy.
	StatusDegraded
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	case StatusError:
		return "error"
	case StatusDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Probe reports pass/fail health for one subsystem. Returning false means
// the subsystem is unhealthy; returning an error (or panicking) means the
// probe itself failed. The two are distinct observable outcomes.
type Probe func(ctx context.Context) (bool, error)

// Result is the outcome of one probe in one sweep.
type Result struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
	Err       string        `json:"error,omitempty"`
}

// Snapshot is the aggregated outcome of one full sweep. It replaces the
// prior snapshot wholesale and persists unchanged until the next sweep.
type Snapshot struct {
	Status    Status            `json:"status"`
	Results   map[string]Result `json:"results"`
	CheckedAt time.Time         `json:"checked_at"`
}

// DefaultInterval is the sweep interval when none is configured.
const DefaultInterval = 60 * time.Second

// DefaultProbeTimeout bounds a single probe execution.
const DefaultProbeTimeout = 5 * time.Second

// CheckerConfig configures a Checker.
type CheckerConfig struct {
	// ProbeTimeout bounds each probe. Default: 5s.
	ProbeTimeout time.Duration

	// Logger receives sweep results.
	Logger zerolog.Logger
}

// Checker is a registry of named probes with periodic orchestrated sweeps.
//
// Sweeps are single-flight: a sweep requested (or scheduled) while one is in
// progress joins the in-flight sweep instead of starting another, so a slow
// probe cannot cause sweeps to pile up behind a short interval.
type Checker struct {
	probeTimeout time.Duration
	log          zerolog.Logger

	mu       sync.RWMutex
	probes   map[string]Probe
	order    []string
	snapshot Snapshot

	sweeps singleflight.Group

	started  bool
	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewChecker creates a Checker with no probes registered.
func NewChecker(cfg CheckerConfig) *Checker {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	return &Checker{
		probeTimeout: cfg.ProbeTimeout,
		log:          cfg.Logger.With().Str("component", "health").Logger(),
		probes:       make(map[string]Probe),
		snapshot:     Snapshot{Status: StatusHealthy, Results: map[string]Result{}},
	}
}

// Register adds a named probe. Re-registering a name replaces the probe.
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.probes[name]; !exists {
		c.order = append(c.order, name)
	}
	c.probes[name] = probe
}

// ProbeNames returns the registered probe names in registration order.
func (c *Checker) ProbeNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Run executes every registered probe and replaces the snapshot with the
// outcome. Each probe is isolated: a failing, panicking, or timing-out probe
// never prevents the others from running. The aggregate is healthy iff every
// probe reported healthy, degraded otherwise.
//
// Concurrent Run calls collapse into one sweep and share its snapshot.
func (c *Checker) Run(ctx context.Context) Snapshot {
	v, _, _ := c.sweeps.Do("sweep", func() (any, error) {
		return c.sweep(ctx), nil
	})
	return v.(Snapshot)
}

func (c *Checker) sweep(ctx context.Context) Snapshot {
	c.mu.RLock()
	probes := make(map[string]Probe, len(c.probes))
	for name, probe := range c.probes {
		probes[name] = probe
	}
	c.mu.RUnlock()

	results := make(map[string]Result, len(probes))

	var wg sync.WaitGroup
	var resultsMu sync.Mutex
	for name, probe := range probes {
		wg.Add(1)
		go func(name string, probe Probe) {
			defer wg.Done()
			result := c.runProbe(ctx, name, probe)
			resultsMu.Lock()
			results[name] = result
			resultsMu.Unlock()
		}(name, probe)
	}
	wg.Wait()

	status := StatusHealthy
	for _, r := range results {
		if r.Status != StatusHealthy {
			status = StatusDegraded
			break
		}
	}

	snap := Snapshot{
		Status:    status,
		Results:   results,
		CheckedAt: time.Now(),
	}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	c.log.Debug().
		Str("status", status.String()).
		Int("probes", len(results)).
		Msg("health sweep complete")

	return snap
}

type probeOutcome struct {
	ok  bool
	err error
}

// runProbe executes one probe with its own timeout and panic isolation.
func (c *Checker) runProbe(ctx context.Context, name string, probe Probe) Result {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	start := time.Now()
	outcome := make(chan probeOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcome <- probeOutcome{err: fmt.Errorf("%w: %v", ErrProbePanic, r)}
			}
		}()
		ok, err := probe(ctx)
		outcome <- probeOutcome{ok: ok, err: err}
	}()

	result := Result{
		Name:      name,
		Timestamp: start,
	}

	select {
	case o := <-outcome:
		result.Duration = time.Since(start)
		switch {
		case o.err != nil:
			result.Status = StatusError
			result.Err = o.err.Error()
		case !o.ok:
			result.Status = StatusUnhealthy
		default:
			result.Status = StatusHealthy
		}
	case <-ctx.Done():
		result.Duration = time.Since(start)
		result.Status = StatusError
		result.Err = ErrProbeTimeout.Error()
	}

	if result.Status != StatusHealthy {
		c.log.Warn().
			Str("probe", name).
			Str("status", result.Status.String()).
			Str("error", result.Err).
			Dur("duration", result.Duration).
			Msg("probe not healthy")
	}

	return result
}

// Status returns the last computed snapshot without triggering a sweep.
func (c *Checker) Status() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Start launches periodic sweeps at the given interval (DefaultInterval if
// non-positive). The first sweep runs immediately. Sweeps stop when ctx is
// cancelled or Stop is called.
//
// The lifecycle is one-shot: calls after the first are no-ops, and a stopped
// Checker cannot be restarted.
func (c *Checker) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)

		c.Run(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Run(ctx)
			}
		}
	}()
}

// Stop halts periodic sweeps and waits for the loop to exit. Safe to call
// without a prior Start; afterwards the Checker stays stopped for good.
func (c *Checker) Stop() {
	c.stopOnce.Do(func() {
		if c.cancel == nil {
			return
		}
		c.cancel()
		<-c.done
	})
}
