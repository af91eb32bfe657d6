package db

import (
	"context"
	"encoding/json"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// SnapshotRepository persists aggregate snapshots so the pressure trend
// comparison survives a process restart. Only the two most recent snapshots
// matter; Save prunes everything older.
type SnapshotRepository struct {
	db DBTX
}

// NewSnapshotRepository creates a repository backed by the given connection
// (pool or transaction).
func NewSnapshotRepository(db DBTX) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save stores the snapshot keyed by its fetch time and prunes rows beyond
// the two newest. A snapshot refetched at the same instant replaces the
// earlier row.
func (r *SnapshotRepository) Save(ctx context.Context, s *types.AggregateSnapshot) error {
	if s == nil {
		return nil
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "encoding snapshot", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO aggregate_snapshots (fetched_at, snapshot)
		VALUES ($1, $2)
		ON CONFLICT (fetched_at) DO UPDATE SET snapshot = EXCLUDED.snapshot`,
		s.FetchedAt, payload,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "inserting snapshot", err)
	}

	_, err = r.db.Exec(ctx, `
		DELETE FROM aggregate_snapshots
		WHERE fetched_at NOT IN (
			SELECT fetched_at FROM aggregate_snapshots
			ORDER BY fetched_at DESC
			LIMIT 2
		)`)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "pruning snapshots", err)
	}
	return nil
}

// LoadRecent returns up to limit snapshots, newest first.
func (r *SnapshotRepository) LoadRecent(ctx context.Context, limit int) ([]*types.AggregateSnapshot, error) {
	if limit <= 0 {
		limit = 2
	}
	rows, err := r.db.Query(ctx, `
		SELECT snapshot
		FROM aggregate_snapshots
		ORDER BY fetched_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "listing snapshots", err)
	}
	defer rows.Close()

	var out []*types.AggregateSnapshot
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "scanning snapshot", err)
		}
		var s types.AggregateSnapshot
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "decoding snapshot", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "iterating snapshots", err)
	}
	return out, nil
}
