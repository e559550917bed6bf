// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/itsatony/telemhub/internal/models"
)

// ReadingRepository defines the interface for telemetry reading storage
type ReadingRepository interface {
	Ping(ctx context.Context) error
	Insert(ctx context.Context, reading *models.Reading) error
	ForEachSince(ctx context.Context, deviceID string, since time.Time, fn func(models.Reading) error) error
	GetLatest(ctx context.Context, deviceID string) (*models.Reading, error)
	ListDevices(ctx context.Context) ([]string, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// DeviceStatusRepository defines the interface for device liveness tracking.
// Upsert guarantees at most one row per device ID.
type DeviceStatusRepository interface {
	Upsert(ctx context.Context, status *models.DeviceStatus) error
	Get(ctx context.Context, deviceID string) (*models.DeviceStatus, error)
}
