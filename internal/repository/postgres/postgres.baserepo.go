// FilePath: internal/repository/postgres/postgres.baserepo.go
package postgres

import (
	"context"

	"github.com/itsatony/telemhub/internal/database"
	"github.com/itsatony/telemhub/internal/errors"
)

type PostgresBaseRepo struct {
	db database.DB
}

func (r *PostgresBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.GetDB().PingContext(ctx); err != nil {
		return errors.NewDatabaseError("failed to ping database", err)
	}
	return nil
}
