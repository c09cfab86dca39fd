package websocket

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// HubMetrics holds the WebSocket instruments. A nil *HubMetrics records nothing.
type HubMetrics struct {
	connectionsTotal   metric.Int64Counter
	connectionDuration metric.Float64Histogram
	upgradeErrors      metric.Int64Counter
	messagesSent       metric.Int64Counter
	droppedClients     metric.Int64Counter
	clientCount        metric.Int64Gauge
}

// NewHubMetrics creates the hub instruments on meter.
func NewHubMetrics(meter metric.Meter) (*HubMetrics, error) {
	var (
		m   HubMetrics
		err error
		all []error
	)

	m.connectionsTotal, err = meter.Int64Counter("websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections"))
	all = append(all, err)

	m.connectionDuration, err = meter.Float64Histogram("websocket_connection_duration_seconds",
		metric.WithDescription("Duration of WebSocket connections"),
		metric.WithUnit("s"))
	all = append(all, err)

	m.upgradeErrors, err = meter.Int64Counter("websocket_upgrade_errors_total",
		metric.WithDescription("Failed WebSocket upgrades"))
	all = append(all, err)

	m.messagesSent, err = meter.Int64Counter("websocket_messages_sent_total",
		metric.WithDescription("Messages queued to WebSocket clients"))
	all = append(all, err)

	m.droppedClients, err = meter.Int64Counter("websocket_dropped_clients_total",
		metric.WithDescription("Clients disconnected because their send buffer was full"))
	all = append(all, err)

	m.clientCount, err = meter.Int64Gauge("websocket_client_count",
		metric.WithDescription("Current number of connected WebSocket clients"))
	all = append(all, err)

	if err := errors.Join(all...); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordConnection records a new client and the resulting client count.
func (m *HubMetrics) RecordConnection(ctx context.Context, clients int64) {
	if m == nil {
		return
	}
	m.connectionsTotal.Add(ctx, 1)
	m.clientCount.Record(ctx, clients)
}

// RecordDisconnection records a departed client.
func (m *HubMetrics) RecordDisconnection(ctx context.Context, clients int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.connectionDuration.Record(ctx, duration.Seconds())
	m.clientCount.Record(ctx, clients)
}

// RecordBroadcast records one fan-out.
func (m *HubMetrics) RecordBroadcast(ctx context.Context, sent, dropped, clients int64) {
	if m == nil {
		return
	}
	m.messagesSent.Add(ctx, sent)
	if dropped > 0 {
		m.droppedClients.Add(ctx, dropped)
	}
	m.clientCount.Record(ctx, clients)
}

// RecordUpgradeError records a failed handshake.
func (m *HubMetrics) RecordUpgradeError(ctx context.Context) {
	if m == nil {
		return
	}
	m.upgradeErrors.Add(ctx, 1)
}
