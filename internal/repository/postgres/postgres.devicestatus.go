// FilePath: internal/repository/postgres/postgres.devicestatus.go
package postgres

import (
	"context"
	"database/sql"

	"github.com/itsatony/telemhub/internal/database"
	"github.com/itsatony/telemhub/internal/errors"
	"github.com/itsatony/telemhub/internal/models"
)

type DeviceStatusRepo struct {
	PostgresBaseRepo
}

func NewDeviceStatusRepository(db database.DB) (*DeviceStatusRepo, error) {
	repo := &DeviceStatusRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *DeviceStatusRepo) initializeSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS device_status (
			device_id TEXT PRIMARY KEY,
			last_seen TIMESTAMPTZ NOT NULL,
			is_online BOOLEAN NOT NULL
		)`

	_, err := r.db.GetDB().Exec(query)
	if err != nil {
		return errors.NewDatabaseError("failed to initialize device_status schema", err)
	}
	return nil
}

// Upsert writes the device's liveness row. device_id is the primary key, so
// repeated calls for the same device always update the single existing row.
func (r *DeviceStatusRepo) Upsert(ctx context.Context, status *models.DeviceStatus) error {
	query := `
		INSERT INTO device_status (device_id, last_seen, is_online)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id) DO UPDATE SET
			last_seen = EXCLUDED.last_seen,
			is_online = EXCLUDED.is_online`

	_, err := r.db.GetDB().ExecContext(ctx, query,
		status.DeviceID, status.LastSeen, status.IsOnline)
	if err != nil {
		return errors.NewDatabaseError("failed to upsert device status", err)
	}
	return nil
}

func (r *DeviceStatusRepo) Get(ctx context.Context, deviceID string) (*models.DeviceStatus, error) {
	status := &models.DeviceStatus{}
	query := `SELECT device_id, last_seen, is_online FROM device_status WHERE device_id = $1`

	err := r.db.GetDB().GetContext(ctx, status, query, deviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("device status not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get device status", err)
	}
	return status, nil
}
