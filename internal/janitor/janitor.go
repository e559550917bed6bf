// FilePath: internal/janitor/janitor.go
package janitor

import (
	"context"
	"strconv"
	"time"

	"github.com/itsatony/telemhub/internal/config"
	"github.com/itsatony/telemhub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Janitor periodically deletes readings older than the retention window.
type Janitor struct {
	readings repository.ReadingRepository
	cfg      config.RetentionConfig
	events   *nuts.EventEmitter
}

// New creates a Janitor
func New(readings repository.ReadingRepository, cfg config.RetentionConfig) *Janitor {
	return &Janitor{
		readings: readings,
		cfg:      cfg,
		events:   nuts.NewEventEmitter(),
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	nuts.L.Infof("[Janitor] Retention sweeper started (max age %v, every %v)",
		j.cfg.MaxAge, j.cfg.SweepInterval)

	ticker := time.NewTicker(j.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-ctx.Done():
			nuts.L.Infof("[Janitor] Retention sweeper stopped")
			return
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	before := time.Now().Add(-j.cfg.MaxAge)
	deleted, err := j.readings.DeleteOlderThan(ctx, before)
	if err != nil {
		nuts.L.Errorf("[Janitor] Retention sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		j.events.Emit("readings.purged", strconv.FormatInt(deleted, 10))
	}
}

// OnPurge registers a callback for completed sweeps that removed rows.
func (j *Janitor) OnPurge(handler func(deleted string)) {
	j.events.On("readings.purged", "janitor_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if count, ok := args[0].(string); ok {
				handler(count)
			}
		}
	})
}
