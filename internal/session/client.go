package session

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ndrandal/market-sim/go-market/internal/wire"
)

// frame is one queued WebSocket message.
type frame struct {
	binary bool
	data   []byte
}

// Client represents a connected WebSocket client. A new client receives
// every product until it narrows its subscription.
type Client struct {
	ID   uuid.UUID
	Conn *websocket.Conn

	mu       sync.RWMutex
	format   wire.Format
	products map[string]bool
	all      bool

	sendCh    chan frame
	done      chan struct{}
	closeOnce sync.Once

	Dropped atomic.Uint64
}

// NewClient wraps a WebSocket connection. conn may be nil in tests.
func NewClient(conn *websocket.Conn, bufferSize int) *Client {
	return &Client{
		ID:       uuid.New(),
		Conn:     conn,
		format:   wire.FormatJSON,
		products: make(map[string]bool),
		all:      true,
		sendCh:   make(chan frame, bufferSize),
		done:     make(chan struct{}),
	}
}

func (c *Client) Format() wire.Format {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.format
}

func (c *Client) SetFormat(f wire.Format) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.format = f
}

// Subscribe narrows the client to the given products, adding to any
// earlier narrowed set.
func (c *Client) Subscribe(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = false
	for _, id := range ids {
		c.products[id] = true
	}
}

// SubscribeAll restores delivery of every product.
func (c *Client) SubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = true
	clear(c.products)
}

func (c *Client) Unsubscribe(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.products, id)
	}
}

func (c *Client) IsSubscribed(productID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.all || c.products[productID]
}

func (c *Client) IsAllSubscribed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.all
}

// Send enqueues data without blocking. It returns false and counts a drop
// when the buffer is full.
func (c *Client) Send(binary bool, data []byte) bool {
	select {
	case c.sendCh <- frame{binary: binary, data: data}:
		return true
	default:
		c.Dropped.Add(1)
		return false
	}
}

// SendEnvelope encodes e in the client's current format and enqueues it.
func (c *Client) SendEnvelope(e wire.Envelope) bool {
	f := c.Format()
	data, err := wire.Encode(f, e)
	if err != nil {
		return false
	}
	return c.Send(f == wire.FormatBinary, data)
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close terminates the client connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}
