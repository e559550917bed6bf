// FilePath: internal/aggregate/accumulator.go
package aggregate

import (
	"sort"
	"time"

	"github.com/itsatony/telemhub/internal/models"
)

// Accumulator folds readings into per-bucket running sums, one reading at a
// time, without materializing the full result set. Temperature and humidity
// accumulate independently: a reading missing one field contributes only to
// the other field's sum. Buckets with zero readings are never emitted.
type Accumulator struct {
	granularity Granularity
	loc         *time.Location
	buckets     map[int64]*bucketAcc
}

type bucketAcc struct {
	start       time.Time
	temperature kahanSum
	humidity    kahanSum
	tempCount   int
	humCount    int
	samples     int
}

// kahanSum is a compensated running sum, so long windows do not accumulate
// floating-point drift before the final division.
type kahanSum struct {
	sum float64
	c   float64
}

func (k *kahanSum) add(v float64) {
	y := v - k.c
	t := k.sum + y
	k.c = (t - k.sum) - y
	k.sum = t
}

// NewAccumulator creates an accumulator for one granularity. Bucket
// boundaries are aligned in loc.
func NewAccumulator(granularity Granularity, loc *time.Location) *Accumulator {
	if loc == nil {
		loc = time.Local
	}
	return &Accumulator{
		granularity: granularity,
		loc:         loc,
		buckets:     make(map[int64]*bucketAcc),
	}
}

// Add folds one reading into its bucket.
func (a *Accumulator) Add(reading models.Reading) error {
	start := a.granularity.BucketStart(reading.Timestamp, a.loc)
	key := start.Unix()

	acc, ok := a.buckets[key]
	if !ok {
		acc = &bucketAcc{start: start}
		a.buckets[key] = acc
	}

	if reading.TemperatureC != nil {
		acc.temperature.add(*reading.TemperatureC)
		acc.tempCount++
	}
	if reading.HumidityPct != nil {
		acc.humidity.add(*reading.HumidityPct)
		acc.humCount++
	}
	acc.samples++
	return nil
}

// Buckets finalizes the fold and returns one bucket per non-empty key,
// sorted by bucket start ascending. Averages stay unrounded here; rounding
// belongs to the presentation boundary.
func (a *Accumulator) Buckets() []models.Bucket {
	out := make([]models.Bucket, 0, len(a.buckets))
	for _, acc := range a.buckets {
		bucket := models.Bucket{
			BucketStart: acc.start,
			SampleCount: acc.samples,
		}
		if acc.tempCount > 0 {
			avg := acc.temperature.sum / float64(acc.tempCount)
			bucket.AvgTemperatureC = &avg
		}
		if acc.humCount > 0 {
			avg := acc.humidity.sum / float64(acc.humCount)
			bucket.AvgHumidityPct = &avg
		}
		out = append(out, bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BucketStart.Before(out[j].BucketStart)
	})
	return out
}
