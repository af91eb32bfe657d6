package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// summaryMockRows implements pgx.Rows for the outcome aggregation query.
type summaryMockRows struct {
	data   [][]any
	idx    int
	closed bool
	errVal error
}

func newSummaryMockRows(data [][]any) *summaryMockRows {
	return &summaryMockRows{data: data, idx: -1}
}

func (r *summaryMockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *summaryMockRows) Scan(dest ...any) error {
	row := r.data[r.idx]
	*dest[0].(*types.VerificationOutcome) = row[0].(types.VerificationOutcome)
	*dest[1].(*int) = row[1].(int)
	return nil
}

func (r *summaryMockRows) Close()                                        { r.closed = true }
func (r *summaryMockRows) Err() error                                    { return r.errVal }
func (r *summaryMockRows) CommandTag() pgconn.CommandTag                 { return pgconn.CommandTag{} }
func (r *summaryMockRows) FieldDescriptions() []pgconn.FieldDescription  { return nil }
func (r *summaryMockRows) RawValues() [][]byte                           { return nil }
func (r *summaryMockRows) Values() ([]any, error)                        { return nil, nil }
func (r *summaryMockRows) Conn() *pgx.Conn                               { return nil }

func sampleRecord() types.VerificationRecord {
	return types.VerificationRecord{
		ID:            "rec-1",
		Date:          "2025-06-15",
		Prediction:    samplePrediction(),
		ActualAvgMph:  17.5,
		ActualPeakMph: 24.0,
		ActualQuality: types.WindGood,
		Outcome:       types.OutcomeExcellent,
		SampleCount:   40,
	}
}

func TestVerificationRepository_Save_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewVerificationRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.Save(context.Background(), sampleRecord())
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestVerificationRepository_Save_Conflict(t *testing.T) {
	db := new(mockDBTX)
	repo := NewVerificationRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 0"), nil)

	err := repo.Save(context.Background(), sampleRecord())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeConflictVerified, appErr.Code)
}

func TestVerificationRepository_Save_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewVerificationRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := repo.Save(context.Background(), sampleRecord())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestVerificationRepository_GetByDate_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewVerificationRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, err := repo.GetByDate(context.Background(), "2025-06-15")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundVerification, appErr.Code)
	assert.True(t, types.IsNotFound(err))
}

func TestVerificationRepository_Summary(t *testing.T) {
	db := new(mockDBTX)
	repo := NewVerificationRepository(db)

	rows := newSummaryMockRows([][]any{
		{types.OutcomeExcellent, 6},
		{types.OutcomeCorrectSkip, 2},
		{types.OutcomeFalsePositive, 1},
		{types.OutcomePartialCredit, 1},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	summary, err := repo.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Total)
	assert.Equal(t, 6, summary.ByOutcome[types.OutcomeExcellent])
	assert.InDelta(t, 0.8, summary.HitRate, 1e-9, "excellent and correct_skip count as hits")
}

func TestVerificationRepository_Summary_Empty(t *testing.T) {
	db := new(mockDBTX)
	repo := NewVerificationRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(newSummaryMockRows(nil), nil)

	summary, err := repo.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.HitRate)
}
