// FilePath: internal/hub/hub.go
package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/itsatony/telemhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Hub owns the set of live subscriber connections. All mutation of the set,
// all broadcast iteration, and every write into a client's send channel after
// registration happen on the single Run goroutine, so no lock is ever held
// across a network send and no send can race the channel being closed.
// Queued broadcasts preserve the order readings were accepted in.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	pong       chan *Client
	count      chan chan int
	done       chan struct{}
}

// New creates a hub. queueSize bounds the pending-broadcast queue between
// the ingestion pipeline and the fan-out loop.
func New(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, queueSize),
		pong:       make(chan *Client),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run services the connection set until ctx is cancelled. It is the only
// goroutine that touches h.clients.
func (h *Hub) Run(ctx context.Context) {
	nuts.L.Infof("[Hub] Fan-out hub started")
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			nuts.L.Infof("[Hub] Subscriber %s registered (%d total)", client.id, len(h.clients))

		case client := <-h.unregister:
			h.drop(client)

		case payload := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow or dead subscriber: drop it so it never
					// blocks the others.
					h.drop(client)
				}
			}

		case client := <-h.pong:
			// The client may already have been dropped; its send channel
			// is closed then, so membership is checked first.
			if !h.clients[client] {
				break
			}
			payload, err := json.Marshal(models.NewPong(time.Now()))
			if err != nil {
				break
			}
			select {
			case client.send <- payload:
			default:
			}

		case reply := <-h.count:
			reply <- len(h.clients)

		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			close(h.done)
			nuts.L.Infof("[Hub] Fan-out hub stopped")
			return
		}
	}
}

// Broadcast serializes the event once and queues it for every currently
// registered subscriber. It never returns an error to the caller; failing
// connections are unregistered instead.
func (h *Hub) Broadcast(event models.LiveEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		nuts.L.Errorf("[Hub] Failed to marshal %s event: %v", event.Type, err)
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

// ClientCount reports the number of registered subscribers.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// drop must only be called from the Run goroutine.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	nuts.L.Infof("[Hub] Subscriber %s unregistered (%d left)", client.id, len(h.clients))
}
