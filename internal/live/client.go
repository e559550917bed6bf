// FilePath: internal/live/client.go
package live

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itsatony/telemhub/internal/errors"
	"github.com/itsatony/telemhub/internal/models"
	"github.com/itsatony/telemhub/internal/resilience"
	nuts "github.com/vaudience/go-nuts"
)

// Handler receives every event pushed on the live channel.
type Handler func(event models.LiveEvent)

// Client is a dashboard-side live-channel connection. An unexpected close
// triggers reconnection with exponential backoff until the attempt budget is
// spent; the client is then Failed and stays so until Reset. A deliberate
// close, or context cancellation, never reconnects.
type Client struct {
	url          string
	handler      Handler
	reconnector  *resilience.Reconnector
	pingInterval time.Duration
}

// NewClient creates a live-channel client for the given ws:// URL.
func NewClient(url string, policy resilience.Policy, handler Handler) *Client {
	return &Client{
		url:          url,
		handler:      handler,
		reconnector:  resilience.NewReconnector("live "+url, policy),
		pingInterval: 25 * time.Second,
	}
}

// State exposes the reconnector's lifecycle state.
func (c *Client) State() resilience.State {
	return c.reconnector.State()
}

// Reset clears a terminal Failed state for a manual reconnect.
func (c *Client) Reset() {
	c.reconnector.Reset()
}

// OnStateChange registers a lifecycle callback.
func (c *Client) OnStateChange(fn func(resilience.State)) {
	c.reconnector.OnStateChange(fn)
}

// Run dials and consumes the live channel until ctx is cancelled or the
// reconnect budget is exhausted.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				c.reconnector.Closed()
				return nil
			}
			nuts.L.Warnf("[LiveClient] Dial %s failed: %v", c.url, err)
			if waitErr := c.backoff(ctx); waitErr != nil {
				return waitErr
			}
			continue
		}

		c.reconnector.ConnectSucceeded()
		nuts.L.Infof("[LiveClient] Connected to %s", c.url)

		err = c.consume(ctx, conn)
		if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.reconnector.Closed()
			return nil
		}

		nuts.L.Warnf("[LiveClient] Connection lost: %v", err)
		if waitErr := c.backoff(ctx); waitErr != nil {
			return waitErr
		}
	}
}

// backoff sleeps for the next reconnect delay, or returns a terminal error
// once the reconnector gives up.
func (c *Client) backoff(ctx context.Context) error {
	delay, retry := c.reconnector.ConnectionLost()
	if !retry {
		return errors.NewUnavailableError("live channel reconnect budget exhausted", nil)
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		c.reconnector.Closed()
		return nil
	}
}

func (c *Client) consume(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	// Application-level keep-alive pings; the hub answers with pongs.
	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ping, _ := json.Marshal(models.LiveEvent{Type: models.EventPing})
				if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
					return
				}
			case <-pingCtx.Done():
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				conn.Close()
				return
			}
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event models.LiveEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			continue
		}
		if c.handler != nil {
			c.handler(event)
		}
	}
}
