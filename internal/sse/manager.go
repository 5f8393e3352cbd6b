package sse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/id"
)

// Client represents one connected dashboard.
type Client struct {
	ID          string
	SessionKey  string // Only events for this session are delivered
	EventChan   chan Event
	ConnectedAt time.Time
}

// Manager fans events out to connected SSE clients.
type Manager struct {
	mu                sync.RWMutex
	clients           map[string]*Client
	events            chan Event
	heartbeatInterval time.Duration
	logger            *slog.Logger

	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewManager creates an SSE manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		clients:           make(map[string]*Client),
		events:            make(chan Event, 256),
		heartbeatInterval: 30 * time.Second,
		logger:            logger,
	}
}

// Start runs the broadcast loop until ctx is canceled. Call once at startup
// in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	m.logger.Info("SSE manager starting")

	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-m.events:
			m.broadcast(event)
		case <-ticker.C:
			m.broadcast(NewHeartbeatEvent())
		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAllClients()
			return
		}
	}
}

// Emit queues an event for broadcast. Drops the event when the buffer is full
// rather than blocking an engine mutation on a slow consumer.
func (m *Manager) Emit(event Event) {
	m.shutdownMu.RLock()
	defer m.shutdownMu.RUnlock()
	if m.shutdown {
		return
	}

	select {
	case m.events <- event:
	default:
		m.logger.Warn("SSE event buffer full, dropping event", "type", event.Type)
	}
}

// Connect registers a new client scoped to one dashboard session.
func (m *Manager) Connect(sessionKey string) (*Client, error) {
	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		SessionKey:  sessionKey,
		EventChan:   make(chan Event, 32),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[clientID] = client
	m.mu.Unlock()

	m.logger.Debug("SSE client connected", "client_id", clientID, "session_key", sessionKey)
	return client, nil
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Disconnect removes a client and closes its channel.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if ok {
		delete(m.clients, clientID)
	}
	m.mu.Unlock()

	if ok {
		close(client.EventChan)
		m.logger.Debug("SSE client disconnected", "client_id", clientID)
	}
}

// Shutdown stops accepting events and disconnects everyone.
func (m *Manager) Shutdown() {
	m.shutdownMu.Lock()
	m.shutdown = true
	m.shutdownMu.Unlock()

	m.closeAllClients()
}

// broadcast delivers an event to clients subscribed to its session.
// Heartbeats go to everyone. Slow clients have the event dropped.
func (m *Manager) broadcast(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		if event.SessionKey != "" && client.SessionKey != event.SessionKey {
			continue
		}
		select {
		case client.EventChan <- event:
		default:
			m.logger.Warn("SSE client buffer full, dropping event",
				"client_id", client.ID, "type", event.Type)
		}
	}
}

func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, client := range m.clients {
		close(client.EventChan)
		delete(m.clients, id)
	}
}
