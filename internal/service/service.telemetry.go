// FilePath: internal/service/service.telemetry.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/itsatony/telemhub/internal/aggregate"
	"github.com/itsatony/telemhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const latestKeyPrefix = "telemhub:latest:"

// RecordTelemetry persists one accepted reading and updates the device's
// liveness row. The status upsert only happens after a successful insert, so
// a device never looks alive for a reading that was lost. Exactly one insert
// and one upsert per call.
func (s *TelemetryService) RecordTelemetry(ctx context.Context, reading *models.Reading) error {
	if err := s.readings.Insert(ctx, reading); err != nil {
		return err
	}

	status := &models.DeviceStatus{
		DeviceID: reading.DeviceID,
		LastSeen: s.nowFn().UTC(),
		IsOnline: true,
	}
	if err := s.status.Upsert(ctx, status); err != nil {
		nuts.L.Warnf("[TelemetryService] Failed to upsert status for %s: %v", reading.DeviceID, err)
	}

	s.cacheLatest(ctx, reading)
	return nil
}

// GetHistorical folds the device's readings inside the granularity's
// lookback window into time buckets, oldest first. An unknown device yields
// an empty slice; an unknown granularity is a client error.
func (s *TelemetryService) GetHistorical(ctx context.Context, deviceID, granularity string) ([]models.Bucket, error) {
	g, err := aggregate.Parse(granularity)
	if err != nil {
		return nil, err
	}

	since := s.nowFn().Add(-g.Lookback())
	acc := aggregate.NewAccumulator(g, s.loc)

	if err := s.readings.ForEachSince(ctx, deviceID, since, acc.Add); err != nil {
		return nil, err
	}
	return acc.Buckets(), nil
}

// GetCurrent returns the device's most recent reading, preferring the hot
// cache over a store scan.
func (s *TelemetryService) GetCurrent(ctx context.Context, deviceID string) (*models.Reading, error) {
	if cached := s.cachedLatest(ctx, deviceID); cached != nil {
		return cached, nil
	}

	reading, err := s.readings.GetLatest(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	s.cacheLatest(ctx, reading)
	return reading, nil
}

// GetDeviceStatus returns the liveness row for one device.
func (s *TelemetryService) GetDeviceStatus(ctx context.Context, deviceID string) (*models.DeviceStatus, error) {
	return s.status.Get(ctx, deviceID)
}

// ListDevices returns every device that has ever reported, sorted.
func (s *TelemetryService) ListDevices(ctx context.Context) ([]string, error) {
	return s.readings.ListDevices(ctx)
}

// cacheLatest is write-through and best-effort; the store stays the source
// of truth.
func (s *TelemetryService) cacheLatest(ctx context.Context, reading *models.Reading) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(reading)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, latestKeyPrefix+reading.DeviceID, payload, 24*time.Hour).Err(); err != nil {
		nuts.L.Warnf("[TelemetryService] Failed to cache latest reading for %s: %v", reading.DeviceID, err)
	}
}

func (s *TelemetryService) cachedLatest(ctx context.Context, deviceID string) *models.Reading {
	if s.cache == nil {
		return nil
	}
	payload, err := s.cache.Get(ctx, latestKeyPrefix+deviceID).Bytes()
	if err != nil {
		return nil
	}
	reading := &models.Reading{}
	if err := json.Unmarshal(payload, reading); err != nil {
		return nil
	}
	return reading
}
