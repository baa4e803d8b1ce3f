package metrics

import (
	"context"
	"runtime"
	"runtime/debug"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultWindowSize is the latency sample capacity when none is configured.
const DefaultWindowSize = 10_000

// Config configures a Collector.
type Config struct {
	// WindowSize bounds the latency sample window. Default: 10 000.
	WindowSize int

	// Logger receives one structured entry per recorded error.
	Logger zerolog.Logger

	// Meter, when set, mirrors counters and durations to OpenTelemetry
	// instruments. Nil disables the mirror.
	Meter metric.Meter
}

// RequestStats holds request counters.
type RequestStats struct {
	Total    int64            `json:"total"`
	ByMethod map[string]int64 `json:"by_method"`
	ByStatus map[int]int64    `json:"by_status"`
}

// LatencyStats holds derived latency figures over the current window.
type LatencyStats struct {
	Count int           `json:"count"`
	Avg   time.Duration `json:"avg"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
}

// RuntimeStats holds process-level resource usage, delegated to the Go
// runtime.
type RuntimeStats struct {
	HeapAllocBytes uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes   uint64 `json:"heap_sys_bytes"`
	NumGoroutine   int    `json:"num_goroutine"`
	NumGC          uint32 `json:"num_gc"`
}

// Snapshot is a point-in-time view of all collected metrics.
type Snapshot struct {
	Requests RequestStats     `json:"requests"`
	Errors   map[string]int64 `json:"errors"`
	Latency  LatencyStats     `json:"latency"`
	Runtime  RuntimeStats     `json:"runtime"`
}

// Collector records request and error metrics.
//
// All methods are safe for concurrent use; requests from multiple handler
// goroutines may record at once, so every counter and the sample window sit
// behind one mutex.
type Collector struct {
	mu       sync.Mutex
	total    int64
	byMethod map[string]int64
	byStatus map[int]int64
	errors   map[string]int64

	// window is a fixed-capacity ring; next points at the slot the next
	// sample overwrites once the ring is full.
	window []time.Duration
	next   int

	log zerolog.Logger

	otelRequests  metric.Int64Counter
	otelErrors    metric.Int64Counter
	otelDurations metric.Float64Histogram
}

// NewCollector creates a Collector.
func NewCollector(cfg Config) (*Collector, error) {
	size := cfg.WindowSize
	if size <= 0 {
		size = DefaultWindowSize
	}

	c := &Collector{
		byMethod: make(map[string]int64),
		byStatus: make(map[int]int64),
		errors:   make(map[string]int64),
		window:   make([]time.Duration, 0, size),
		log:      cfg.Logger.With().Str("component", "metrics").Logger(),
	}

	if cfg.Meter != nil {
		var err error
		if c.otelRequests, err = cfg.Meter.Int64Counter(
			"http.server.requests",
			metric.WithDescription("Total number of handled requests"),
			metric.WithUnit("{request}"),
		); err != nil {
			return nil, err
		}
		if c.otelErrors, err = cfg.Meter.Int64Counter(
			"http.server.errors",
			metric.WithDescription("Total number of recorded errors"),
			metric.WithUnit("{error}"),
		); err != nil {
			return nil, err
		}
		if c.otelDurations, err = cfg.Meter.Float64Histogram(
			"http.server.duration_ms",
			metric.WithDescription("Request duration in milliseconds"),
			metric.WithUnit("ms"),
		); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordRequest records one handled request: counters by method and status,
// and the duration into the bounded window (evicting the oldest sample at
// capacity).
func (c *Collector) RecordRequest(ctx context.Context, method string, status int, duration time.Duration) {
	c.mu.Lock()
	c.total++
	c.byMethod[method]++
	c.byStatus[status]++

	if len(c.window) < cap(c.window) {
		c.window = append(c.window, duration)
	} else {
		c.window[c.next] = duration
		c.next = (c.next + 1) % cap(c.window)
	}
	c.mu.Unlock()

	if c.otelRequests != nil {
		attrs := metric.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.status", strconv.Itoa(status)),
		)
		c.otelRequests.Add(ctx, 1, attrs)
		c.otelDurations.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

// RecordError increments the counter for the error kind and emits one
// structured log entry carrying the stack at the record site.
func (c *Collector) RecordError(ctx context.Context, kind string, err error) {
	c.mu.Lock()
	c.errors[kind]++
	c.mu.Unlock()

	c.log.Error().
		Str("kind", kind).
		Err(err).
		Bytes("stack", debug.Stack()).
		Msg("error recorded")

	if c.otelErrors != nil {
		c.otelErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("error.kind", kind)))
	}
}

// Snapshot merges the counters, the derived percentiles over the current
// window, and process resource usage.
//
// Percentiles are computed here, not on every record: the window is copied,
// sorted, and indexed at floor(n*0.95) and floor(n*0.99). At the default
// window size the sort is the dominant cost, so it is paid per snapshot
// rather than per request.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()

	snap := Snapshot{
		Requests: RequestStats{
			Total:    c.total,
			ByMethod: make(map[string]int64, len(c.byMethod)),
			ByStatus: make(map[int]int64, len(c.byStatus)),
		},
		Errors: make(map[string]int64, len(c.errors)),
	}
	for k, v := range c.byMethod {
		snap.Requests.ByMethod[k] = v
	}
	for k, v := range c.byStatus {
		snap.Requests.ByStatus[k] = v
	}
	for k, v := range c.errors {
		snap.Errors[k] = v
	}

	samples := make([]time.Duration, len(c.window))
	copy(samples, c.window)
	c.mu.Unlock()

	snap.Latency = deriveLatency(samples)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	snap.Runtime = RuntimeStats{
		HeapAllocBytes: mem.HeapAlloc,
		HeapSysBytes:   mem.HeapSys,
		NumGoroutine:   runtime.NumGoroutine(),
		NumGC:          mem.NumGC,
	}

	return snap
}

// Reset clears all counters and the latency window.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total = 0
	c.byMethod = make(map[string]int64)
	c.byStatus = make(map[int]int64)
	c.errors = make(map[string]int64)
	c.window = c.window[:0]
	c.next = 0
}

func deriveLatency(samples []time.Duration) LatencyStats {
	n := len(samples)
	if n == 0 {
		return LatencyStats{}
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	var sum time.Duration
	for _, d := range samples {
		sum += d
	}

	return LatencyStats{
		Count: n,
		Avg:   sum / time.Duration(n),
		P95:   samples[int(float64(n)*0.95)],
		P99:   samples[int(float64(n)*0.99)],
	}
}
