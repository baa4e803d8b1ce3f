// Package health runs named probes against the process's dependencies and
// aggregates their results into a single status for readiness consumers.
//
// A Probe reports pass/fail for one subsystem and may fail by returning an
// error or by panicking; both are isolated per probe and surface as an
// "error" result, distinct from an explicit "unhealthy" report. Checker owns
// the probe registry, runs sweeps on demand or periodically, and keeps the
// last snapshot for cheap status reads.
//
//	checker := health.NewChecker(health.CheckerConfig{})
//	checker.Register("cache", func(ctx context.Context) (bool, error) {
//	    return store.Ping(ctx), nil
//	})
//	checker.Start(ctx, time.Minute)
//	defer checker.Stop()
package health
