// FilePath: internal/ingest/payload_test.go
package ingest_test

import (
	"testing"
	"time"

	"github.com/itsatony/telemhub/internal/ingest"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

func TestParseMessage_FullPayload(t *testing.T) {
	body := []byte(`{"temperature":25.5,"humidity":60.2}`)

	reading, err := ingest.ParseMessage("sensors/esp32-01/telemetry", body, "fallback", now)
	require.NoError(t, err)
	require.Equal(t, "esp32-01", reading.DeviceID)
	require.NotNil(t, reading.TemperatureC)
	require.InDelta(t, 25.5, *reading.TemperatureC, 1e-9)
	require.NotNil(t, reading.HumidityPct)
	require.InDelta(t, 60.2, *reading.HumidityPct, 1e-9)
	require.Equal(t, now, reading.Timestamp)
}

func TestParseMessage_SuffixedFieldNamesWin(t *testing.T) {
	body := []byte(`{"temperature_c":21.0,"humidity_pct":55.0}`)

	reading, err := ingest.ParseMessage("sensors/a/telemetry", body, "fallback", now)
	require.NoError(t, err)
	require.InDelta(t, 21.0, *reading.TemperatureC, 1e-9)
	require.InDelta(t, 55.0, *reading.HumidityPct, 1e-9)
}

func TestParseMessage_PartialDataAccepted(t *testing.T) {
	reading, err := ingest.ParseMessage("sensors/a/telemetry", []byte(`{"temperature":19.5}`), "fallback", now)
	require.NoError(t, err)
	require.NotNil(t, reading.TemperatureC)
	require.Nil(t, reading.HumidityPct)

	reading, err = ingest.ParseMessage("sensors/a/telemetry", []byte(`{"humidity":40}`), "fallback", now)
	require.NoError(t, err)
	require.Nil(t, reading.TemperatureC)
	require.NotNil(t, reading.HumidityPct)
}

func TestParseMessage_NumericStringsAccepted(t *testing.T) {
	body := []byte(`{"temperature":"23.4","humidity":" 51.0 "}`)

	reading, err := ingest.ParseMessage("sensors/a/telemetry", body, "fallback", now)
	require.NoError(t, err)
	require.InDelta(t, 23.4, *reading.TemperatureC, 1e-9)
	require.InDelta(t, 51.0, *reading.HumidityPct, 1e-9)
}

func TestParseMessage_RejectedWhenNoNumericField(t *testing.T) {
	cases := [][]byte{
		[]byte(`{}`),
		[]byte(`{"temperature":"warm","humidity":"damp"}`),
		[]byte(`{"temperature":null,"humidity":null}`),
		[]byte(`{"voltage":3.3}`),
		[]byte(`not json at all`),
	}
	for _, body := range cases {
		_, err := ingest.ParseMessage("sensors/a/telemetry", body, "fallback", now)
		require.Error(t, err, "payload %s must be rejected", body)
	}
}

func TestParseMessage_UnknownFieldsIgnored(t *testing.T) {
	body := []byte(`{"temperature":20,"rssi":-70,"firmware":"2.1.0"}`)

	reading, err := ingest.ParseMessage("sensors/a/telemetry", body, "fallback", now)
	require.NoError(t, err)
	require.InDelta(t, 20.0, *reading.TemperatureC, 1e-9)
}

func TestParseMessage_DeviceIDFromTopic(t *testing.T) {
	reading, err := ingest.ParseMessage("sensors/greenhouse-7/telemetry", []byte(`{"temperature":20}`), "fallback", now)
	require.NoError(t, err)
	require.Equal(t, "greenhouse-7", reading.DeviceID)
}

func TestParseMessage_DeviceIDFromPayload(t *testing.T) {
	reading, err := ingest.ParseMessage("telemetry", []byte(`{"temperature":20,"deviceId":"esp32-01"}`), "fallback", now)
	require.NoError(t, err)
	require.Equal(t, "esp32-01", reading.DeviceID)
}

func TestParseMessage_DeviceIDFallback(t *testing.T) {
	reading, err := ingest.ParseMessage("telemetry", []byte(`{"temperature":20}`), "unknown", now)
	require.NoError(t, err)
	require.Equal(t, "unknown", reading.DeviceID)
}

func TestParseMessage_TimestampRFC3339(t *testing.T) {
	body := []byte(`{"temperature":20,"ts":"2026-08-27T10:05:00Z"}`)

	reading, err := ingest.ParseMessage("sensors/a/telemetry", body, "fallback", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 8, 27, 10, 5, 0, 0, time.UTC), reading.Timestamp)
}

func TestParseMessage_TimestampUnixSeconds(t *testing.T) {
	body := []byte(`{"temperature":20,"timestamp":1724760000}`)

	reading, err := ingest.ParseMessage("sensors/a/telemetry", body, "fallback", now)
	require.NoError(t, err)
	require.Equal(t, time.Unix(1724760000, 0).UTC(), reading.Timestamp)
}

func TestParseMessage_UnparsableTimestampDefaultsToNow(t *testing.T) {
	body := []byte(`{"temperature":20,"ts":"yesterday-ish"}`)

	reading, err := ingest.ParseMessage("sensors/a/telemetry", body, "fallback", now)
	require.NoError(t, err)
	require.Equal(t, now, reading.Timestamp)
}
