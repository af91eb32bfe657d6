package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// PredictionRepository persists frozen predictions, one row per calendar
// date. The insert uses ON CONFLICT DO NOTHING so concurrent freezers
// converge on whichever row landed first; a frozen prediction is never
// replaced.
type PredictionRepository struct {
	db DBTX
}

// NewPredictionRepository creates a repository backed by the given connection
// (pool or transaction).
func NewPredictionRepository(db DBTX) *PredictionRepository {
	return &PredictionRepository{db: db}
}

const predictionColumns = `date, generated_at, probability, confidence,
	factors, recommendation, explanation, best_window, quality, reliability`

// SaveFrozen stores the prediction for its date and returns the persisted
// row, which is the existing one when the date was already frozen.
func (r *PredictionRepository) SaveFrozen(ctx context.Context, p types.Prediction) (types.Prediction, error) {
	factors, err := json.Marshal(p.Factors)
	if err != nil {
		return types.Prediction{}, types.NewAppError(types.ErrCodeInternalDB, "encoding factors", err)
	}
	var bestWindow []byte
	if p.BestWindow != nil {
		bestWindow, err = json.Marshal(p.BestWindow)
		if err != nil {
			return types.Prediction{}, types.NewAppError(types.ErrCodeInternalDB, "encoding best window", err)
		}
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO frozen_predictions (`+predictionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (date) DO NOTHING`,
		p.Date, p.GeneratedAt, p.Probability, p.Confidence,
		factors, p.Recommendation, p.Explanation, bestWindow, p.Quality, p.Reliability,
	)
	if err != nil {
		return types.Prediction{}, types.NewAppError(types.ErrCodeInternalDB, "inserting frozen prediction", err)
	}

	return r.GetByDate(ctx, p.Date)
}

// GetByDate returns the frozen prediction for a date.
func (r *PredictionRepository) GetByDate(ctx context.Context, date string) (types.Prediction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+predictionColumns+`
		FROM frozen_predictions
		WHERE date = $1`, date)

	p, err := scanPrediction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Prediction{}, types.NewAppError(
				types.ErrCodeNotFoundPrediction,
				fmt.Sprintf("no frozen prediction for %s", date),
				nil,
			)
		}
		return types.Prediction{}, types.NewAppError(types.ErrCodeInternalDB, "reading frozen prediction", err)
	}
	return p, nil
}

// ListRecent returns up to limit frozen predictions, newest date first.
func (r *PredictionRepository) ListRecent(ctx context.Context, limit int) ([]types.Prediction, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+predictionColumns+`
		FROM frozen_predictions
		ORDER BY date DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "listing frozen predictions", err)
	}
	defer rows.Close()

	var out []types.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "scanning frozen prediction", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "iterating frozen predictions", err)
	}
	return out, nil
}

func scanPrediction(row pgx.Row) (types.Prediction, error) {
	var p types.Prediction
	var factors []byte
	var bestWindow []byte

	err := row.Scan(
		&p.Date,
		&p.GeneratedAt,
		&p.Probability,
		&p.Confidence,
		&factors,
		&p.Recommendation,
		&p.Explanation,
		&bestWindow,
		&p.Quality,
		&p.Reliability,
	)
	if err != nil {
		return types.Prediction{}, err
	}

	if len(factors) > 0 {
		if err := json.Unmarshal(factors, &p.Factors); err != nil {
			return types.Prediction{}, err
		}
	}
	if len(bestWindow) > 0 {
		var w types.TimeWindow
		if err := json.Unmarshal(bestWindow, &w); err != nil {
			return types.Prediction{}, err
		}
		p.BestWindow = &w
	}
	return p, nil
}
