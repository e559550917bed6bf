// FilePath: internal/models/models.bucket.go
package models

import (
	"encoding/json"
	"math"
	"time"
)

// Bucket is one fixed time window of averaged readings. Buckets are derived
// on demand by the aggregation engine and never persisted. An average is nil
// when no reading in the window carried that field.
type Bucket struct {
	BucketStart     time.Time `json:"bucket_start"`
	AvgTemperatureC *float64  `json:"avg_temperature_c"`
	AvgHumidityPct  *float64  `json:"avg_humidity_pct"`
	SampleCount     int       `json:"sample_count"`
}

// MarshalJSON rounds the averages to one decimal place. Rounding happens only
// here, at the presentation boundary, never during accumulation.
func (b Bucket) MarshalJSON() ([]byte, error) {
	type alias Bucket
	out := alias(b)
	out.AvgTemperatureC = roundPtr(b.AvgTemperatureC)
	out.AvgHumidityPct = roundPtr(b.AvgHumidityPct)
	return json.Marshal(out)
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	rounded := math.Round(*v*10) / 10
	return &rounded
}
