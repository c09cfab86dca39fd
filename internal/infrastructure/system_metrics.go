package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a point-in-time view of the process, reported by the
// health endpoint.
type RuntimeStats struct {
	Goroutines     int     `json:"goroutines"`
	HeapAllocBytes uint64  `json:"heap_alloc_bytes"`
	SysBytes       uint64  `json:"sys_bytes"`
	NumGC          uint32  `json:"num_gc"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// SystemMetrics provides system resource monitoring
type SystemMetrics struct {
	startTime    time.Time
	registration metric.Registration
}

// NewSystemMetrics registers observable runtime gauges on meter.
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	sm := &SystemMetrics{startTime: time.Now()}

	goroutines, err := meter.Int64ObservableGauge("system_goroutines",
		metric.WithDescription("Number of active goroutines"))
	if err != nil {
		return nil, err
	}
	heap, err := meter.Int64ObservableGauge("system_memory_allocated_bytes",
		metric.WithDescription("Memory allocated by Go runtime in bytes"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	uptime, err := meter.Float64ObservableGauge("system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	sm.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sm.Snapshot()
		o.ObserveInt64(goroutines, int64(stats.Goroutines))
		o.ObserveInt64(heap, int64(stats.HeapAllocBytes))
		o.ObserveFloat64(uptime, stats.UptimeSeconds)
		return nil
	}, goroutines, heap, uptime)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// Snapshot reads the current runtime statistics.
func (sm *SystemMetrics) Snapshot() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := RuntimeStats{
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		SysBytes:       mem.Sys,
		NumGC:          mem.NumGC,
	}
	if sm != nil {
		stats.UptimeSeconds = time.Since(sm.startTime).Seconds()
	}
	return stats
}

// Stop unregisters the gauge callback.
func (sm *SystemMetrics) Stop() error {
	if sm == nil || sm.registration == nil {
		return nil
	}
	return sm.registration.Unregister()
}
