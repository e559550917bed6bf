// FilePath: internal/repository/postgres/postgres.readings.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/itsatony/telemhub/internal/database"
	"github.com/itsatony/telemhub/internal/errors"
	"github.com/itsatony/telemhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type ReadingRepo struct {
	PostgresBaseRepo
}

func NewReadingRepository(db database.DB) (*ReadingRepo, error) {
	repo := &ReadingRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ReadingRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id BIGSERIAL PRIMARY KEY,
			device_id TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			temperature_c DOUBLE PRECISION,
			humidity_pct DOUBLE PRECISION
		)`,
		// Serves both latest-reading lookups and time-window scans
		`CREATE INDEX IF NOT EXISTS idx_readings_device_ts
			ON readings (device_id, ts DESC)`,
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize readings schema", err)
		}
	}
	return nil
}

// Insert persists an accepted reading and fills in its assigned ID.
func (r *ReadingRepo) Insert(ctx context.Context, reading *models.Reading) error {
	query := `
		INSERT INTO readings (device_id, ts, temperature_c, humidity_pct)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.GetDB().GetContext(ctx, &reading.ID, query,
		reading.DeviceID, reading.Timestamp, reading.TemperatureC, reading.HumidityPct)
	if err != nil {
		return errors.NewDatabaseError("failed to insert reading", err)
	}
	return nil
}

// ForEachSince streams readings for a device from the given instant onward,
// oldest first, invoking fn once per row. Rows are never materialized as a
// whole so large lookback windows stay cheap.
func (r *ReadingRepo) ForEachSince(ctx context.Context, deviceID string, since time.Time, fn func(models.Reading) error) error {
	query := `
		SELECT id, device_id, ts, temperature_c, humidity_pct
		FROM readings
		WHERE device_id = $1 AND ts >= $2
		ORDER BY ts ASC`

	rows, err := r.db.GetDB().QueryxContext(ctx, query, deviceID, since)
	if err != nil {
		return errors.NewDatabaseError("failed to query readings", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reading models.Reading
		if err := rows.StructScan(&reading); err != nil {
			return errors.NewDatabaseError("failed to scan reading", err)
		}
		if err := fn(reading); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewDatabaseError("failed to iterate readings", err)
	}
	return nil
}

func (r *ReadingRepo) GetLatest(ctx context.Context, deviceID string) (*models.Reading, error) {
	reading := &models.Reading{}
	query := `
		SELECT id, device_id, ts, temperature_c, humidity_pct
		FROM readings
		WHERE device_id = $1
		ORDER BY ts DESC
		LIMIT 1`

	err := r.db.GetDB().GetContext(ctx, reading, query, deviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("no readings for device", err)
		}
		return nil, errors.NewDatabaseError("failed to get latest reading", err)
	}
	return reading, nil
}

func (r *ReadingRepo) ListDevices(ctx context.Context) ([]string, error) {
	devices := []string{}
	query := `SELECT DISTINCT device_id FROM readings ORDER BY device_id`

	err := r.db.GetDB().SelectContext(ctx, &devices, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list devices", err)
	}
	return devices, nil
}

func (r *ReadingRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM readings WHERE ts < $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete old readings", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows > 0 {
		nuts.L.Infof("[ReadingRepo] Deleted %d readings older than %v", rows, before)
	}
	return rows, nil
}
