// FilePath: internal/models/models.events.go
package models

import "time"

// Live channel event types.
const (
	EventConnected    = "connected"
	EventPing         = "ping"
	EventPong         = "pong"
	EventSensorUpdate = "sensor_update"
)

// LiveEvent is the envelope pushed over the live WebSocket channel.
type LiveEvent struct {
	Type      string   `json:"type"`
	Timestamp int64    `json:"timestamp,omitempty"`
	Data      *Reading `json:"data,omitempty"`
}

// NewSensorUpdate wraps an accepted reading for broadcast.
func NewSensorUpdate(reading *Reading) LiveEvent {
	return LiveEvent{Type: EventSensorUpdate, Data: reading}
}

// NewPong answers a subscriber ping.
func NewPong(now time.Time) LiveEvent {
	return LiveEvent{Type: EventPong, Timestamp: now.Unix()}
}
