// FilePath: internal/service/service.go
package service

import (
	"context"
	"time"

	"github.com/itsatony/telemhub/internal/errors"
	"github.com/itsatony/telemhub/internal/repository"
	"github.com/redis/go-redis/v9"
)

// TelemetryService contains all repositories and service-wide dependencies
type TelemetryService struct {
	readings repository.ReadingRepository
	status   repository.DeviceStatusRepository
	cache    *redis.Client
	loc      *time.Location
	nowFn    func() time.Time
}

// New creates a new service instance. cache may be nil, in which case every
// current-reading lookup goes to the store.
func New(
	readings repository.ReadingRepository,
	status repository.DeviceStatusRepository,
	cache *redis.Client,
) *TelemetryService {
	return &TelemetryService{
		readings: readings,
		status:   status,
		cache:    cache,
		loc:      time.Local,
		nowFn:    time.Now,
	}
}

// Validate checks if all required repositories are initialized
func (s *TelemetryService) Validate() error {
	if s.readings == nil {
		return ErrMissingRepository("readings")
	}
	if s.status == nil {
		return ErrMissingRepository("status")
	}
	return nil
}

// Health pings the backing store.
func (s *TelemetryService) Health(ctx context.Context) error {
	return s.readings.Ping(ctx)
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
