// FilePath: internal/models/models.reading.go
package models

import "time"

// Reading represents a single accepted telemetry sample. Either field may be
// nil when the device only reported the other one.
type Reading struct {
	ID           int64     `json:"id" db:"id"`
	DeviceID     string    `json:"device_id" db:"device_id"`
	TemperatureC *float64  `json:"temperature_c" db:"temperature_c"`
	HumidityPct  *float64  `json:"humidity_pct" db:"humidity_pct"`
	Timestamp    time.Time `json:"timestamp" db:"ts"`
}

// HasData reports whether the reading carries at least one measured field.
func (r *Reading) HasData() bool {
	return r.TemperatureC != nil || r.HumidityPct != nil
}

// DeviceStatus tracks per-device liveness. There is at most one row per
// device; writes go through an upsert keyed by device_id.
type DeviceStatus struct {
	DeviceID string    `json:"device_id" db:"device_id"`
	LastSeen time.Time `json:"last_seen" db:"last_seen"`
	IsOnline bool      `json:"is_online" db:"is_online"`
}
