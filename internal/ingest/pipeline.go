// FilePath: internal/ingest/pipeline.go
package ingest

import (
	"context"
	"time"

	"github.com/itsatony/telemhub/internal/broker"
	"github.com/itsatony/telemhub/internal/config"
	"github.com/itsatony/telemhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Subscriber is the slice of the broker client the pipeline needs.
type Subscriber interface {
	Subscribe(topic string, handler broker.MessageHandler) error
}

// Recorder persists an accepted reading and its device-status upsert.
type Recorder interface {
	RecordTelemetry(ctx context.Context, reading *models.Reading) error
}

// Broadcaster fans an accepted reading out to live subscribers.
type Broadcaster interface {
	Broadcast(event models.LiveEvent)
}

// Pipeline is the single logical consumer of the telemetry subscription.
// The broker callback only parses and validates; accepted readings travel
// over a channel to one writer goroutine that persists and then broadcasts,
// so storage latency never stalls parsing and acceptance order is the
// broadcast order.
type Pipeline struct {
	cfg      config.MQTTConfig
	broker   Subscriber
	recorder Recorder
	hub      Broadcaster
	accepted chan *models.Reading
}

// New creates a pipeline. queueSize bounds the accepted-reading channel.
func New(cfg config.MQTTConfig, b Subscriber, recorder Recorder, hub Broadcaster, queueSize int) *Pipeline {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pipeline{
		cfg:      cfg,
		broker:   b,
		recorder: recorder,
		hub:      hub,
		accepted: make(chan *models.Reading, queueSize),
	}
}

// Start subscribes to the topic filter and runs the writer loop until ctx is
// cancelled.
func (p *Pipeline) Start(ctx context.Context) error {
	if err := p.broker.Subscribe(p.cfg.TopicFilter, p.handleMessage); err != nil {
		return err
	}

	go p.writerLoop(ctx)

	nuts.L.Infof("[Ingest] Pipeline consuming %s", p.cfg.TopicFilter)
	return nil
}

// handleMessage runs on the broker's delivery goroutine. Malformed messages
// are logged and dropped; the pipeline always continues.
func (p *Pipeline) handleMessage(topic string, payload []byte) {
	reading, err := ParseMessage(topic, payload, p.cfg.DefaultDeviceID, time.Now().UTC())
	if err != nil {
		nuts.L.Warnf("[Ingest] Rejected message on %s: %v", topic, err)
		return
	}

	select {
	case p.accepted <- reading:
	default:
		// Writer is saturated; shed the reading rather than block the
		// broker callback. At-most-once delivery allows this.
		nuts.L.Warnf("[Ingest] Accepted-reading queue full, dropping reading from %s", reading.DeviceID)
	}
}

// writerLoop persists accepted readings one at a time, in arrival order, and
// hands each successfully stored reading to the hub. A reading that fails to
// persist is reported and lost; it is never broadcast, so dashboards stay
// consistent with history.
func (p *Pipeline) writerLoop(ctx context.Context) {
	nuts.L.Infof("[Ingest] Writer loop started")
	for {
		select {
		case reading := <-p.accepted:
			if err := p.recorder.RecordTelemetry(ctx, reading); err != nil {
				nuts.L.Errorf("[Ingest] Failed to persist reading from %s: %v", reading.DeviceID, err)
				continue
			}
			p.hub.Broadcast(models.NewSensorUpdate(reading))

		case <-ctx.Done():
			nuts.L.Infof("[Ingest] Writer loop stopped")
			return
		}
	}
}
