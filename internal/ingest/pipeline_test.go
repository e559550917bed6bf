// FilePath: internal/ingest/pipeline_test.go
package ingest_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/itsatony/telemhub/internal/broker"
	"github.com/itsatony/telemhub/internal/config"
	"github.com/itsatony/telemhub/internal/errors"
	"github.com/itsatony/telemhub/internal/ingest"
	"github.com/itsatony/telemhub/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	topic   string
	handler broker.MessageHandler
}

func (f *fakeSubscriber) Subscribe(topic string, handler broker.MessageHandler) error {
	f.topic = topic
	f.handler = handler
	return nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	recorded []*models.Reading
	failNext bool
}

func (f *fakeRecorder) RecordTelemetry(_ context.Context, reading *models.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.NewDatabaseError("write failed", nil)
	}
	f.recorded = append(f.recorded, reading)
	return nil
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recorded)
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []models.LiveEvent
}

func (f *fakeBroadcaster) Broadcast(event models.LiveEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newTestPipeline(t *testing.T) (*fakeSubscriber, *fakeRecorder, *fakeBroadcaster, context.CancelFunc) {
	t.Helper()
	sub := &fakeSubscriber{}
	recorder := &fakeRecorder{}
	hub := &fakeBroadcaster{}

	cfg := config.MQTTConfig{TopicFilter: "sensors/+/telemetry", DefaultDeviceID: "unknown"}
	pipeline := ingest.New(cfg, sub, recorder, hub, 16)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, pipeline.Start(ctx))
	require.Equal(t, "sensors/+/telemetry", sub.topic)
	require.NotNil(t, sub.handler)
	return sub, recorder, hub, cancel
}

func TestPipeline_AcceptedMessagePersistedAndBroadcast(t *testing.T) {
	sub, recorder, hub, cancel := newTestPipeline(t)
	defer cancel()

	sub.handler("sensors/esp32-01/telemetry", []byte(`{"temperature":25.5,"humidity":60.2}`))

	require.Eventually(t, func() bool {
		return recorder.count() == 1 && hub.count() == 1
	}, time.Second, 5*time.Millisecond)

	recorder.mu.Lock()
	reading := recorder.recorded[0]
	recorder.mu.Unlock()
	require.Equal(t, "esp32-01", reading.DeviceID)

	hub.mu.Lock()
	event := hub.events[0]
	hub.mu.Unlock()
	require.Equal(t, models.EventSensorUpdate, event.Type)
	require.Same(t, reading, event.Data)
}

func TestPipeline_RejectedMessageNeverPersistedNorBroadcast(t *testing.T) {
	sub, recorder, hub, cancel := newTestPipeline(t)
	defer cancel()

	sub.handler("sensors/esp32-01/telemetry", []byte(`{"label":"no numbers here"}`))
	// Follow with a good message so we can assert the bad one was dropped.
	sub.handler("sensors/esp32-01/telemetry", []byte(`{"temperature":20}`))

	require.Eventually(t, func() bool { return recorder.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, hub.count())
}

func TestPipeline_StorageFailureDropsWithoutBroadcast(t *testing.T) {
	sub, recorder, hub, cancel := newTestPipeline(t)
	defer cancel()

	recorder.failNext = true
	sub.handler("sensors/esp32-01/telemetry", []byte(`{"temperature":20}`))
	sub.handler("sensors/esp32-01/telemetry", []byte(`{"temperature":21}`))

	// Only the second reading survives; the failed one is never broadcast
	// and the pipeline keeps going.
	require.Eventually(t, func() bool { return recorder.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, hub.count())

	recorder.mu.Lock()
	temp := *recorder.recorded[0].TemperatureC
	recorder.mu.Unlock()
	require.InDelta(t, 21.0, temp, 1e-9)
}

func TestPipeline_BroadcastOrderFollowsAcceptanceOrder(t *testing.T) {
	sub, recorder, hub, cancel := newTestPipeline(t)
	defer cancel()

	for i := 0; i < 5; i++ {
		sub.handler("sensors/esp32-01/telemetry", []byte(fmt.Sprintf(`{"temperature":%d}`, i)))
	}

	require.Eventually(t, func() bool { return hub.count() == 5 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 5, recorder.count())

	hub.mu.Lock()
	defer hub.mu.Unlock()
	for i, event := range hub.events {
		require.InDelta(t, float64(i), *event.Data.TemperatureC, 1e-9)
	}
}
