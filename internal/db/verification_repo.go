package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// AccuracySummary aggregates verification history into the headline numbers
// used for threshold tuning.
type AccuracySummary struct {
	Total     int                               `json:"total"`
	ByOutcome map[types.VerificationOutcome]int `json:"by_outcome"`
	// HitRate is the fraction of records where the call matched conditions
	// (excellent or correct_skip), 0-1.
	HitRate float64 `json:"hit_rate"`
}

// VerificationRepository persists verification records, append-only and keyed
// by date. A past record is never overwritten.
type VerificationRepository struct {
	db DBTX
}

// NewVerificationRepository creates a repository backed by the given
// connection (pool or transaction).
func NewVerificationRepository(db DBTX) *VerificationRepository {
	return &VerificationRepository{db: db}
}

const verificationColumns = `id, date, prediction, actual_avg_mph, actual_peak_mph,
	actual_direction_deg, actual_quality, outcome, rationale, recalibration_hint,
	sample_count, verified_at`

// Save inserts the record. Inserting a second record for the same date is a
// conflict error, never a silent overwrite.
func (r *VerificationRepository) Save(ctx context.Context, rec types.VerificationRecord) error {
	prediction, err := json.Marshal(rec.Prediction)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "encoding prediction", err)
	}

	tag, err := r.db.Exec(ctx, `
		INSERT INTO verification_records (`+verificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (date) DO NOTHING`,
		rec.ID, rec.Date, prediction, rec.ActualAvgMph, rec.ActualPeakMph,
		rec.ActualDirectionDeg, rec.ActualQuality, rec.Outcome, rec.Rationale,
		rec.RecalibrationHint, rec.SampleCount, rec.VerifiedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "inserting verification record", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(
			types.ErrCodeConflictVerified,
			fmt.Sprintf("verification record already exists for %s", rec.Date),
			nil,
		)
	}
	return nil
}

// GetByDate returns the verification record for a date.
func (r *VerificationRepository) GetByDate(ctx context.Context, date string) (types.VerificationRecord, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+verificationColumns+`
		FROM verification_records
		WHERE date = $1`, date)

	rec, err := scanVerification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.VerificationRecord{}, types.NewAppError(
				types.ErrCodeNotFoundVerification,
				fmt.Sprintf("no verification record for %s", date),
				nil,
			)
		}
		return types.VerificationRecord{}, types.NewAppError(types.ErrCodeInternalDB, "reading verification record", err)
	}
	return rec, nil
}

// ListRecent returns up to limit records, newest date first.
func (r *VerificationRepository) ListRecent(ctx context.Context, limit int) ([]types.VerificationRecord, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+verificationColumns+`
		FROM verification_records
		ORDER BY date DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "listing verification records", err)
	}
	defer rows.Close()

	var out []types.VerificationRecord
	for rows.Next() {
		rec, err := scanVerification(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "scanning verification record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "iterating verification records", err)
	}
	return out, nil
}

// Summary aggregates outcome counts across the whole history.
func (r *VerificationRepository) Summary(ctx context.Context) (AccuracySummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT outcome, COUNT(*)
		FROM verification_records
		GROUP BY outcome`)
	if err != nil {
		return AccuracySummary{}, types.NewAppError(types.ErrCodeInternalDB, "summarizing verifications", err)
	}
	defer rows.Close()

	summary := AccuracySummary{ByOutcome: map[types.VerificationOutcome]int{}}
	for rows.Next() {
		var outcome types.VerificationOutcome
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return AccuracySummary{}, types.NewAppError(types.ErrCodeInternalDB, "scanning summary row", err)
		}
		summary.ByOutcome[outcome] = count
		summary.Total += count
	}
	if err := rows.Err(); err != nil {
		return AccuracySummary{}, types.NewAppError(types.ErrCodeInternalDB, "iterating summary rows", err)
	}

	if summary.Total > 0 {
		hits := summary.ByOutcome[types.OutcomeExcellent] + summary.ByOutcome[types.OutcomeCorrectSkip]
		summary.HitRate = float64(hits) / float64(summary.Total)
	}
	return summary, nil
}

func scanVerification(row pgx.Row) (types.VerificationRecord, error) {
	var rec types.VerificationRecord
	var prediction []byte

	err := row.Scan(
		&rec.ID,
		&rec.Date,
		&prediction,
		&rec.ActualAvgMph,
		&rec.ActualPeakMph,
		&rec.ActualDirectionDeg,
		&rec.ActualQuality,
		&rec.Outcome,
		&rec.Rationale,
		&rec.RecalibrationHint,
		&rec.SampleCount,
		&rec.VerifiedAt,
	)
	if err != nil {
		return types.VerificationRecord{}, err
	}
	if len(prediction) > 0 {
		if err := json.Unmarshal(prediction, &rec.Prediction); err != nil {
			return types.VerificationRecord{}, err
		}
	}
	return rec, nil
}
