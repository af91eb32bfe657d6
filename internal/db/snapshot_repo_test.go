package db

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// snapshotMockRows implements pgx.Rows for the snapshot listing query, one
// JSONB payload per row.
type snapshotMockRows struct {
	payloads [][]byte
	idx      int
	closed   bool
	errVal   error
}

func newSnapshotMockRows(t *testing.T, snaps ...*types.AggregateSnapshot) *snapshotMockRows {
	t.Helper()
	rows := &snapshotMockRows{idx: -1}
	for _, s := range snaps {
		payload, err := json.Marshal(s)
		require.NoError(t, err)
		rows.payloads = append(rows.payloads, payload)
	}
	return rows
}

func (r *snapshotMockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.payloads)
}

func (r *snapshotMockRows) Scan(dest ...any) error {
	*dest[0].(*[]byte) = r.payloads[r.idx]
	return nil
}

func (r *snapshotMockRows) Close()                                       { r.closed = true }
func (r *snapshotMockRows) Err() error                                   { return r.errVal }
func (r *snapshotMockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *snapshotMockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *snapshotMockRows) RawValues() [][]byte                          { return nil }
func (r *snapshotMockRows) Values() ([]any, error)                       { return nil, nil }
func (r *snapshotMockRows) Conn() *pgx.Conn                              { return nil }

func sampleSnapshot(fetchedAt time.Time) *types.AggregateSnapshot {
	return &types.AggregateSnapshot{
		FetchedAt:   fetchedAt,
		Sources:     []string{"openweather", "noaa"},
		Reliability: types.ReliabilityHigh,
	}
}

func TestSnapshotRepository_Save_InsertsAndPrunes(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSnapshotRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Twice()

	err := repo.Save(context.Background(), sampleSnapshot(time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestSnapshotRepository_Save_NilIsNoop(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSnapshotRepository(db)

	require.NoError(t, repo.Save(context.Background(), nil))
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestSnapshotRepository_Save_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSnapshotRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := repo.Save(context.Background(), sampleSnapshot(time.Now()))
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestSnapshotRepository_LoadRecent_NewestFirst(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSnapshotRepository(db)

	newer := sampleSnapshot(time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))
	older := sampleSnapshot(time.Date(2025, 6, 15, 7, 30, 0, 0, time.UTC))
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(newSnapshotMockRows(t, newer, older), nil)

	got, err := repo.LoadRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].FetchedAt.After(got[1].FetchedAt))
	assert.Equal(t, []string{"openweather", "noaa"}, got[0].Sources)
}

func TestSnapshotRepository_LoadRecent_Empty(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSnapshotRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(newSnapshotMockRows(t), nil)

	got, err := repo.LoadRecent(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSnapshotRepository_LoadRecent_QueryError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSnapshotRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := repo.LoadRecent(context.Background(), 2)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}
