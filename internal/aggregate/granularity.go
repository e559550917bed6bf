// FilePath: internal/aggregate/granularity.go
package aggregate

import (
	"time"

	"github.com/itsatony/telemhub/internal/errors"
)

// Granularity names one of the fixed lookback-window/bucket-width pairs the
// historical query API understands. The set is closed; anything else fails
// parsing with an invalid_granularity error.
type Granularity string

const (
	GranularityDay      Granularity = "1d"
	GranularityMonth    Granularity = "1m"
	GranularityQuarter  Granularity = "3m"
	GranularityHalfYear Granularity = "6m"
	GranularityYear     Granularity = "1y"
)

type granularitySpec struct {
	lookback time.Duration
	truncate func(t time.Time, loc *time.Location) time.Time
}

var granularities = map[Granularity]granularitySpec{
	GranularityDay:      {lookback: 24 * time.Hour, truncate: truncateHour},
	GranularityMonth:    {lookback: 30 * 24 * time.Hour, truncate: truncateDay},
	GranularityQuarter:  {lookback: 90 * 24 * time.Hour, truncate: truncateDay},
	GranularityHalfYear: {lookback: 180 * 24 * time.Hour, truncate: truncateWeek},
	GranularityYear:     {lookback: 365 * 24 * time.Hour, truncate: truncateMonth},
}

// Parse validates a granularity token.
func Parse(token string) (Granularity, error) {
	g := Granularity(token)
	if _, ok := granularities[g]; !ok {
		return "", errors.NewInvalidGranularityError(token)
	}
	return g, nil
}

// Lookback returns how far back from now the matching window reaches.
func (g Granularity) Lookback() time.Duration {
	return granularities[g].lookback
}

// BucketStart truncates an instant to its bucket boundary in loc.
func (g Granularity) BucketStart(t time.Time, loc *time.Location) time.Time {
	return granularities[g].truncate(t, loc)
}

func truncateHour(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// truncateWeek aligns to the start of the week, day index 0 (Sunday).
func truncateWeek(t time.Time, loc *time.Location) time.Time {
	day := truncateDay(t, loc)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func truncateMonth(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}
