// FilePath: internal/ingest/payload.go
package ingest

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/itsatony/telemhub/internal/errors"
	"github.com/itsatony/telemhub/internal/models"
)

// Devices in the field run different firmware generations, so the parser
// accepts both short and suffixed field names, and numbers that arrive as
// JSON strings. Unknown fields are ignored.
var (
	temperatureKeys = []string{"temperature_c", "temperature"}
	humidityKeys    = []string{"humidity_pct", "humidity"}
	timestampKeys   = []string{"timestamp", "ts"}
)

// ParseMessage turns one raw MQTT payload into a Reading. A message is
// malformed, and rejected, only when neither temperature nor humidity is a
// well-formed number; partial data is accepted. The timestamp defaults to
// now when absent or unparsable. The device ID comes from the topic
// (sensors/{device}/telemetry), falling back to the payload's deviceId and
// then to defaultDeviceID.
func ParseMessage(topic string, body []byte, defaultDeviceID string, now time.Time) (*models.Reading, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, errors.NewValidationError("unparsable telemetry payload", err)
	}

	reading := &models.Reading{
		DeviceID:     deviceIDFrom(topic, fields, defaultDeviceID),
		TemperatureC: firstFloat(fields, temperatureKeys),
		HumidityPct:  firstFloat(fields, humidityKeys),
		Timestamp:    firstTime(fields, timestampKeys, now),
	}

	if !reading.HasData() {
		return nil, errors.NewValidationError("telemetry carries neither temperature nor humidity", nil)
	}
	return reading, nil
}

func deviceIDFrom(topic string, fields map[string]json.RawMessage, fallback string) string {
	// Topic shape sensors/{device_id}/telemetry wins.
	parts := strings.Split(topic, "/")
	if len(parts) >= 3 && parts[1] != "" {
		return parts[1]
	}

	if raw, ok := fields["deviceId"]; ok {
		var id string
		if err := json.Unmarshal(raw, &id); err == nil && id != "" {
			return id
		}
	}
	return fallback
}

func firstFloat(fields map[string]json.RawMessage, keys []string) *float64 {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if v := parseFloat(raw); v != nil {
			return v
		}
	}
	return nil
}

// parseFloat accepts a JSON number or a numeric string; anything else is
// treated as absent.
func parseFloat(raw json.RawMessage) *float64 {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return &number
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return &parsed
		}
	}
	return nil
}

func firstTime(fields map[string]json.RawMessage, keys []string, now time.Time) time.Time {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			if parsed, err := time.Parse(time.RFC3339, text); err == nil {
				return parsed
			}
			continue
		}

		var unix int64
		if err := json.Unmarshal(raw, &unix); err == nil && unix > 0 {
			return time.Unix(unix, 0).UTC()
		}
	}
	return now
}
