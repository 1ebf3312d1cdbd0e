package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ndrandal/market-sim/go-market/internal/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	joinTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// controlMessage is a client to server control message.
type controlMessage struct {
	Action   string   `json:"action"`
	Products []string `json:"products,omitempty"`
	Format   string   `json:"format,omitempty"`
}

// JoinFunc attaches a new client to the feed, normally by calling
// Manager.Attach on the market goroutine with a fresh snapshot.
type JoinFunc func(ctx context.Context, c *Client) error

// Handler upgrades requests to WebSocket feed connections.
func Handler(mgr *Manager, join JoinFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}

		client := mgr.NewClient(conn)
		ctx, cancel := context.WithTimeout(r.Context(), joinTimeout)
		err = join(ctx, client)
		cancel()
		if err != nil {
			slog.Warn("feed join failed", "client", client.ID, "err", err)
			client.Close()
			return
		}
		slog.Debug("feed client connected", "client", client.ID, "remote", conn.RemoteAddr())

		go writePump(client)
		go readPump(client, mgr)
	}
}

func readPump(c *Client, mgr *Manager) {
	defer mgr.Unregister(c)

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("feed client read error", "client", c.ID, "err", err)
			}
			return
		}

		var ctrl controlMessage
		if err := json.Unmarshal(message, &ctrl); err != nil {
			slog.Warn("feed client sent invalid control message", "client", c.ID, "err", err)
			continue
		}
		handleControl(c, &ctrl)
	}
}

func handleControl(c *Client, ctrl *controlMessage) {
	switch ctrl.Action {
	case "format":
		f, err := wire.ParseFormat(ctrl.Format)
		if err != nil {
			slog.Warn("feed client unknown format", "client", c.ID, "format", ctrl.Format)
			return
		}
		c.SetFormat(f)
		slog.Debug("feed client switched format", "client", c.ID, "format", f)

	case "subscribe":
		for _, id := range ctrl.Products {
			if id == "*" {
				c.SubscribeAll()
				return
			}
		}
		if len(ctrl.Products) > 0 {
			c.Subscribe(ctrl.Products)
		}

	case "unsubscribe":
		c.Unsubscribe(ctrl.Products)

	default:
		slog.Warn("feed client unknown action", "client", c.ID, "action", ctrl.Action)
	}
}

func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case f := <-c.sendCh:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			msgType := websocket.TextMessage
			if f.binary {
				msgType = websocket.BinaryMessage
			}
			if err := c.Conn.WriteMessage(msgType, f.data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.Done():
			return
		}
	}
}
