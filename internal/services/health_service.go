package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"bizinsights/internal/infrastructure"
	"bizinsights/pkg/contracts"
)

// DatasetState reports the dataset cache state.
type DatasetState interface {
	Loaded() bool
	Stats() map[string]interface{}
}

// HubState reports the WebSocket hub state.
type HubState interface {
	ClientCount() int
	Stats() map[string]interface{}
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	dataset   DatasetState
	hub       HubState
	system    *infrastructure.SystemMetrics
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   interface{}            `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Uptime  string                 `json:"uptime,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewHealthService creates a health service. hub and system may be nil.
func NewHealthService(version, buildTime string, dataset DatasetState, hub HubState, system *infrastructure.SystemMetrics, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		dataset:   dataset,
		hub:       hub,
		system:    system,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return status
}

// ReadinessCheck reports ready once a dataset snapshot is held.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"dataset":   hs.checkDatasetHealth(),
			"websocket": hs.checkWebSocketHealth(),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "ReadinessCheck: not ready")
	}
	return status
}

// Ready returns ErrDatasetNotLoaded until the dataset is available.
func (hs *HealthService) Ready(ctx context.Context) error {
	if hs.dataset == nil || !hs.dataset.Loaded() {
		return ErrDatasetNotLoaded
	}
	return nil
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   hs.runtimeStats(),
	}
}

func (hs *HealthService) runtimeStats() infrastructure.RuntimeStats {
	if hs.system != nil {
		return hs.system.Snapshot()
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return infrastructure.RuntimeStats{
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: m.HeapAlloc,
		SysBytes:       m.Sys,
		NumGC:          m.NumGC,
		UptimeSeconds:  time.Since(hs.startTime).Seconds(),
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"api_version":  contracts.APIVersion,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

// checkDatasetHealth checks the dataset cache
func (hs *HealthService) checkDatasetHealth() ServiceHealth {
	if hs.dataset == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "dataset cache not initialized",
		}
	}

	stats := hs.dataset.Stats()
	if !hs.dataset.Loaded() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: ErrDatasetNotLoaded.Error(),
			Details: stats,
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%v rows loaded", stats["rows"]),
		Details: stats,
	}
}

// checkWebSocketHealth checks WebSocket service health
func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	// The dashboard works without live updates
	if hs.hub == nil {
		return ServiceHealth{
			Status:  "ready",
			Message: "live updates disabled",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
		Details: hs.hub.Stats(),
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"version":   hs.Version(),
	}
}
