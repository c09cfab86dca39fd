// Package events defines the messages the dashboard pushes to WebSocket
// clients. Every frame is a JSON Message; Data depends on Type.
package events

// ProtocolVersion is announced in the connection message.
const ProtocolVersion = "1.0"

// Message types
const (
	// TypeConnection is sent once after the upgrade. Data is ConnectionPayload.
	TypeConnection = "connection"
	// TypeDataUpdate announces a new dataset snapshot. Data is domain.DatasetInfo.
	TypeDataUpdate = "data_update"
	// TypeError reports a server-side failure. Data is ErrorPayload.
	TypeError = "error"
	// TypeHeartbeat may be sent by clients to extend their read deadline.
	TypeHeartbeat = "heartbeat"
)

// Message is the envelope of every frame.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// ConnectionPayload greets a newly registered client.
type ConnectionPayload struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
	Protocol string `json:"protocol"`
}

// ErrorPayload describes a failure clients should surface.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
