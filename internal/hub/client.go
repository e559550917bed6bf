// FilePath: internal/hub/client.go
package hub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itsatony/telemhub/internal/config"
	"github.com/itsatony/telemhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from anywhere; the live feed is read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one subscriber connection. It is owned by the hub: the read and
// write pumps are the only goroutines touching the underlying conn.
type Client struct {
	id         string
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	cfg        config.LiveConfig
	mu         sync.Mutex
	lastPingAt time.Time
}

// ServeWS upgrades an HTTP request to a live-channel connection, sends the
// greeting event, and registers the client with the hub.
func ServeWS(h *Hub, cfg config.LiveConfig, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Errorf("[Hub] WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:   nuts.NID("sub", 12),
		hub:  h,
		conn: conn,
		send: make(chan []byte, cfg.SendBuffer),
		cfg:  cfg,
	}

	// Greeting goes into the buffer before registration so it is the first
	// event the subscriber sees. After registration only the hub's Run
	// goroutine writes into send.
	greeting, _ := json.Marshal(models.LiveEvent{Type: models.EventConnected, Timestamp: time.Now().Unix()})
	client.send <- greeting

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// LastPingAt returns when the subscriber last sent an application ping.
func (c *Client) LastPingAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPingAt
}

// readPump consumes inbound frames. The only application message a
// subscriber sends is a keep-alive ping, handed to the hub's Run goroutine
// so the answer never races the hub closing this client's send channel.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				nuts.L.Warnf("[Hub] Subscriber %s read error: %v", c.id, err)
			}
			return
		}

		var event models.LiveEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			continue
		}
		if event.Type == models.EventPing {
			c.mu.Lock()
			c.lastPingAt = time.Now()
			c.mu.Unlock()

			select {
			case c.hub.pong <- c:
			case <-c.hub.done:
				return
			}
		}
	}
}

// writePump drains the send buffer onto the wire and keeps the transport
// alive with protocol-level pings. A closed send channel means the hub
// dropped this client.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
