package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_TIMER = 15

// HealthCheck reports whether a dependency currently answers.
type HealthCheck func(ctx context.Context) bool

// MonitorHealth runs check every interval until ctx is done, storing the result in healthy and in the
// dependency gauge.
func (m *Metrics) MonitorHealth(ctx context.Context, dependency string, interval time.Duration, check HealthCheck, healthy *atomic.Bool) {
	if interval <= 0 {
		interval = time.Second * HEALTHCHECK_TIMER
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.recordHealth(ctx, dependency, check, healthy)
		}
	}
}

func (m *Metrics) recordHealth(ctx context.Context, dependency string, check HealthCheck, healthy *atomic.Bool) {
	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	isHealthy := check(checkCtx)
	healthy.Store(isHealthy)
	if isHealthy {
		m.DependencyUp.WithLabelValues(dependency).Set(1)
		return
	}
	m.DependencyUp.WithLabelValues(dependency).Set(0)
	slog.Warn("[HealthCheck] Dependency is unhealthy", slog.String("dependency", dependency))
}
