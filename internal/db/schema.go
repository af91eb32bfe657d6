package db

import (
	"context"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS frozen_predictions (
	date            TEXT PRIMARY KEY,
	generated_at    TIMESTAMPTZ NOT NULL,
	probability     DOUBLE PRECISION NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	factors         JSONB NOT NULL,
	recommendation  TEXT NOT NULL,
	explanation     TEXT NOT NULL,
	best_window     JSONB,
	quality         TEXT NOT NULL,
	reliability     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS verification_records (
	id                   UUID NOT NULL,
	date                 TEXT PRIMARY KEY,
	prediction           JSONB NOT NULL,
	actual_avg_mph       DOUBLE PRECISION NOT NULL,
	actual_peak_mph      DOUBLE PRECISION NOT NULL,
	actual_direction_deg DOUBLE PRECISION NOT NULL,
	actual_quality       TEXT NOT NULL,
	outcome              TEXT NOT NULL,
	rationale            TEXT NOT NULL,
	recalibration_hint   TEXT NOT NULL,
	sample_count         INTEGER NOT NULL,
	verified_at          TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS aggregate_snapshots (
	fetched_at TIMESTAMPTZ PRIMARY KEY,
	snapshot   JSONB NOT NULL
);
`

// EnsureSchema creates the tables if they do not exist. Ran once at startup.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "ensuring schema", err)
	}
	return nil
}
