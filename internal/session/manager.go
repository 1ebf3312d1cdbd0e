package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ndrandal/market-sim/go-market/internal/engine"
	"github.com/ndrandal/market-sim/go-market/internal/wire"
)

// Manager tracks connected clients and fans market events out to them.
// Publish and Attach are called on the market's goroutine, so a client
// always sees its snapshot before any later event.
type Manager struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]*Client
	bufferSize int
}

func NewManager(bufferSize int) *Manager {
	return &Manager{
		clients:    make(map[uuid.UUID]*Client),
		bufferSize: bufferSize,
	}
}

// NewClient creates a client for conn using the manager's buffer size. The
// client receives nothing until it is attached.
func (m *Manager) NewClient(conn *websocket.Conn) *Client {
	return NewClient(conn, m.bufferSize)
}

// Attach queues the snapshot for c and starts delivering events to it.
func (m *Manager) Attach(c *Client, snapshot wire.Envelope) {
	c.SendEnvelope(snapshot)

	m.mu.Lock()
	m.clients[c.ID] = c
	n := len(m.clients)
	m.mu.Unlock()

	slog.Info("feed client attached", "client", c.ID, "clients", n)
}

// Unregister removes and closes a client.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	_, ok := m.clients[c.ID]
	delete(m.clients, c.ID)
	m.mu.Unlock()

	c.Close()
	if ok {
		slog.Info("feed client detached", "client", c.ID, "dropped", c.Dropped.Load())
	}
}

// Publish delivers a market event to every subscribed client. Clients
// following all products share one encoding per format.
func (m *Manager) Publish(ev engine.Event) {
	env, ok := wire.FromEvent(ev)
	if !ok {
		return
	}

	var shared [2][]byte
	var once [2]sync.Once
	encodeShared := func(f wire.Format) []byte {
		once[f].Do(func() {
			data, err := wire.Encode(f, env)
			if err != nil {
				slog.Error("encode feed event", "type", env.Type, "format", f, "err", err)
				return
			}
			shared[f] = data
		})
		return shared[f]
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		if c.IsAllSubscribed() {
			f := c.Format()
			if data := encodeShared(f); data != nil {
				c.Send(f == wire.FormatBinary, data)
			}
			continue
		}
		if filtered, ok := filterFor(c, env); ok {
			c.SendEnvelope(filtered)
		}
	}
}

// filterFor narrows env to the products c follows. ok is false when nothing
// is left to send.
func filterFor(c *Client, env wire.Envelope) (wire.Envelope, bool) {
	switch env.Type {
	case wire.KindTrade:
		if env.Trade == nil || !c.IsSubscribed(env.Trade.ProductID) {
			return env, false
		}
		return env, true
	default:
		quotes := make([]engine.Quote, 0, len(env.Quotes))
		for _, q := range env.Quotes {
			if c.IsSubscribed(q.ProductID) {
				quotes = append(quotes, q)
			}
		}
		env.Quotes = quotes
		return env, true
	}
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// CloseAll detaches every client.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	clear(m.clients)
	m.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
