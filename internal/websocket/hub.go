package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"bizinsights/internal/infrastructure"
	"bizinsights/pkg/contracts/domain"
	"bizinsights/pkg/contracts/events"
)

// Message types pushed to dashboard clients
const (
	TypeConnection = events.TypeConnection
	TypeDataUpdate = events.TypeDataUpdate
	TypeError      = events.TypeError
	TypeHeartbeat  = events.TypeHeartbeat
)

// broadcastBuffer bounds queued broadcasts while the hub loop is busy.
const broadcastBuffer = 64

// Message is the envelope of every server push.
type Message = events.Message

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients. Only the run loop mutates the map while running.
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	logger  *slog.Logger
	metrics *HubMetrics

	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	messagesDropped  atomic.Int64
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *HubMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    metrics,
	}
}

// Start starts the hub loop. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.totalConnections.Add(1)

			cctx := client.context()
			h.logger.InfoContext(cctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))
			h.metrics.RecordConnection(cctx, int64(count))

			welcome, err := encode(TypeConnection, events.ConnectionPayload{
				Status:   "connected",
				ClientID: client.id,
				Protocol: events.ProtocolVersion,
			}, client.traceID)
			if err == nil {
				select {
				case client.send <- welcome:
				default:
					h.logger.WarnContext(cctx, "Client buffer full, connection message dropped",
						slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				h.logger.InfoContext(client.context(), "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
				h.metrics.RecordDisconnection(ctx, int64(count), time.Since(client.connectedAt))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.fanOut(ctx, message)
		}
	}
}

// fanOut delivers message to every client, dropping clients that cannot keep up.
func (h *Hub) fanOut(ctx context.Context, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent, dropped := 0, 0
	for client := range h.clients {
		select {
		case client.send <- message:
			sent++
		default:
			dropped++
			close(client.send)
			delete(h.clients, client)
			h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.messagesSent.Add(int64(sent))
	h.messagesDropped.Add(int64(dropped))
	h.metrics.RecordBroadcast(ctx, int64(sent), int64(dropped), int64(len(h.clients)))

	h.logger.Debug("Broadcast delivered",
		slog.Int("sent", sent),
		slog.Int("dropped", dropped),
		slog.Int("message_size", len(message)))
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast queues a typed message for every connected client. Messages
// are dropped while the hub is stopped.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	h.BroadcastWithTrace(messageType, data, "")
}

// BroadcastWithTrace is Broadcast with an explicit trace ID.
func (h *Hub) BroadcastWithTrace(messageType string, data interface{}, traceID string) {
	payload, err := encode(messageType, data, traceID)
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", messageType))
		return
	}

	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		h.logger.Debug("Hub not running, message dropped", slog.String("message_type", messageType))
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	}
}

// BroadcastDataUpdate tells clients that a new dataset snapshot is active.
func (h *Hub) BroadcastDataUpdate(info domain.DatasetInfo) {
	h.Broadcast(TypeDataUpdate, info)
}

// BroadcastError reports a server-side failure clients should surface.
func (h *Hub) BroadcastError(code, message string) {
	h.Broadcast(TypeError, events.ErrorPayload{Code: code, Message: message})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns hub counters for the health endpoint
func (h *Hub) Stats() map[string]interface{} {
	return map[string]interface{}{
		"active_clients":    h.ClientCount(),
		"total_connections": h.totalConnections.Load(),
		"messages_sent":     h.messagesSent.Load(),
		"messages_dropped":  h.messagesDropped.Load(),
	}
}

// Stop stops the hub loop and closes every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func encode(messageType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   traceID,
	})
}
