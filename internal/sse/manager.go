package sse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/id"
)

// ErrClosed is returned by Connect once the manager has shut down.
var ErrClosed = errors.New("sse: manager closed")

const (
	queueSize        = 1000
	clientBufferSize = 100
)

// Client is one open event stream.
type Client struct {
	ID string
	// UserID is the signed-in reader, or empty for anonymous readers, who
	// only see broadcast events.
	UserID      string
	ConnectedAt time.Time

	// EventChan and Done are closed together when the client is dropped.
	EventChan chan Event
	Done      chan struct{}

	closeOnce sync.Once
}

func (c *Client) wants(e Event) bool {
	return e.UserID == "" || e.UserID == c.UserID
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.Done)
		close(c.EventChan)
	})
}

// Manager tracks open streams and fans queued events out to them.
type Manager struct {
	logger    *slog.Logger
	heartbeat time.Duration
	queue     chan Event
	running   sync.WaitGroup

	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
}

// NewManager creates a Manager. Call Start to begin delivery.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:    logger,
		heartbeat: 30 * time.Second,
		queue:     make(chan Event, queueSize),
		clients:   make(map[string]*Client),
	}
}

// Start delivers queued events, plus a periodic heartbeat, until ctx is done
// or Shutdown has drained the queue. Every client is dropped on return.
func (m *Manager) Start(ctx context.Context) {
	m.running.Add(1)
	defer m.running.Done()
	defer m.dropAll()

	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()

	m.logger.Info("SSE manager started", "heartbeat", m.heartbeat)

	for {
		select {
		case e, ok := <-m.queue:
			if !ok {
				return
			}
			m.deliver(e)
		case <-ticker.C:
			m.deliver(NewHeartbeatEvent())
		case <-ctx.Done():
			m.logger.Info("SSE manager stopping", "reason", context.Cause(ctx))
			return
		}
	}
}

// Shutdown refuses further events, waits for the queue to drain (bounded by
// ctx) and drops every client. Calling it again is a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		m.running.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		m.logger.Warn("SSE queue not drained before deadline", "pending", len(m.queue))
	}

	m.dropAll()
	m.logger.Info("SSE manager shut down")
	return nil
}

func (m *Manager) deliver(e Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sent := 0
	var slow []string
	for _, c := range m.clients {
		if !c.wants(e) {
			continue
		}
		select {
		case c.EventChan <- e:
			sent++
		default:
			slow = append(slow, c.ID)
		}
	}

	if len(slow) > 0 {
		m.logger.Warn("slow SSE clients missed an event", "event_type", e.Type, "clients", slow)
	}
	if e.Type != EventHeartbeat {
		m.logger.Debug("event delivered", "event_type", e.Type, "key", e.Key, "sent", sent)
	}
}

// Connect opens a stream for userID, which is empty for anonymous readers.
func (m *Manager) Connect(userID string) (*Client, error) {
	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, fmt.Errorf("client id: %w", err)
	}
	c := &Client{
		ID:          clientID,
		UserID:      userID,
		ConnectedAt: time.Now(),
		EventChan:   make(chan Event, clientBufferSize),
		Done:        make(chan struct{}),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.clients[c.ID] = c
	n := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("SSE client connected", "client_id", c.ID, "user_id", userID, "clients", n)
	return c, nil
}

// Disconnect drops a client. Unknown ids are ignored.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	c, ok := m.clients[clientID]
	delete(m.clients, clientID)
	n := len(m.clients)
	m.mu.Unlock()

	if !ok {
		return
	}
	c.close()
	m.logger.Info("SSE client disconnected", "client_id", clientID, "connected_for", time.Since(c.ConnectedAt), "clients", n)
}

// Emit queues e for delivery without blocking. Values that are not an Event
// are ignored, as is everything after Shutdown and anything that arrives
// while the queue is full.
func (m *Manager) Emit(e any) {
	evt, ok := e.(Event)
	if !ok {
		m.logger.Debug("ignoring non-SSE event", "type", fmt.Sprintf("%T", e))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- evt:
	default:
		m.logger.Error("SSE queue full, dropping event", "event_type", evt.Type)
	}
}

// ClientCount returns the number of open streams.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) dropAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		c.close()
	}
	clear(m.clients)
}
