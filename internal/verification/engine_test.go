package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

type mockClock struct {
	now time.Time
}

func (c *mockClock) Now() time.Time {
	return c.now
}

type fakeSensor struct {
	samples []types.WindSample
	err     error
	calls   int
}

func (f *fakeSensor) Name() string { return "fake" }

func (f *fakeSensor) RecentSamples(_ context.Context, _ time.Duration) ([]types.WindSample, error) {
	f.calls++
	return f.samples, f.err
}

type fakeRecordStore struct {
	byDate map[string]types.VerificationRecord
	saves  int
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{byDate: map[string]types.VerificationRecord{}}
}

func (f *fakeRecordStore) Save(_ context.Context, rec types.VerificationRecord) error {
	f.saves++
	f.byDate[rec.Date] = rec
	return nil
}

func (f *fakeRecordStore) GetByDate(_ context.Context, date string) (types.VerificationRecord, error) {
	if rec, ok := f.byDate[date]; ok {
		return rec, nil
	}
	return types.VerificationRecord{}, types.NewAppError(types.ErrCodeNotFoundVerification, "no record for "+date, nil)
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 15, hour, minute, 0, 0, time.UTC)
}

func newTestEngine(sensor types.SensorSource, store RecordStore, clock types.Clock) *Engine {
	return NewEngine(Config{
		Sensor:   sensor,
		Store:    store,
		Window:   types.TimeWindow{StartHour: 6, EndHour: 8},
		Timezone: time.UTC,
		Clock:    clock,
	})
}

func TestVerifyStrongWindAgainstHighProbability(t *testing.T) {
	sensor := &fakeSensor{samples: []types.WindSample{
		{Time: at(5, 30), SpeedMph: 4, DirectionDeg: 100},
		{Time: at(6, 30), SpeedMph: 16, GustMph: 25, DirectionDeg: 310},
		{Time: at(7, 0), SpeedMph: 18, DirectionDeg: 315},
		{Time: at(7, 30), SpeedMph: 20, DirectionDeg: 320},
	}}
	store := newFakeRecordStore()
	e := newTestEngine(sensor, store, &mockClock{now: at(9, 0)})

	p := types.Prediction{Date: "2025-06-15", Probability: 82, Recommendation: types.RecommendGo}
	rec, err := e.Verify(context.Background(), p)
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "2025-06-15", rec.Date)
	assert.Equal(t, 3, rec.SampleCount, "the 05:30 sample is outside the window")
	assert.InDelta(t, 18, rec.ActualAvgMph, 1e-9)
	assert.InDelta(t, 25, rec.ActualPeakMph, 1e-9, "gusts count toward peak")
	assert.Equal(t, types.WindGood, rec.ActualQuality)
	assert.Equal(t, types.OutcomeExcellent, rec.Outcome)
	assert.Equal(t, p, rec.Prediction)
	assert.Equal(t, 1, store.saves)
}

func TestVerifyNoSamplesInWindow(t *testing.T) {
	sensor := &fakeSensor{samples: []types.WindSample{
		{Time: at(12, 0), SpeedMph: 20},
	}}
	store := newFakeRecordStore()
	e := newTestEngine(sensor, store, &mockClock{now: at(14, 0)})

	_, err := e.Verify(context.Background(), types.Prediction{Date: "2025-06-15", Probability: 80})
	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamSensor, appErr.Code)
	assert.Zero(t, store.saves, "absent data never becomes a verdict")
}

func TestVerifyExistingRecordReturnedUnchanged(t *testing.T) {
	sensor := &fakeSensor{}
	store := newFakeRecordStore()
	existing := types.VerificationRecord{
		ID:      "prior",
		Date:    "2025-06-15",
		Outcome: types.OutcomeCorrectSkip,
	}
	store.byDate[existing.Date] = existing

	e := newTestEngine(sensor, store, &mockClock{now: at(9, 0)})
	rec, err := e.Verify(context.Background(), types.Prediction{Date: "2025-06-15", Probability: 95})
	require.NoError(t, err)

	assert.Equal(t, existing, rec)
	assert.Zero(t, sensor.calls, "verification is append-only; no re-measurement")
	assert.Zero(t, store.saves)
}

func TestVerifyWindowNotOpenYet(t *testing.T) {
	e := newTestEngine(&fakeSensor{}, newFakeRecordStore(), &mockClock{now: at(4, 0)})

	_, err := e.Verify(context.Background(), types.Prediction{Date: "2025-06-15", Probability: 80})
	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidDate, appErr.Code)
}

func TestVerifyBadDate(t *testing.T) {
	e := newTestEngine(&fakeSensor{}, newFakeRecordStore(), &mockClock{now: at(9, 0)})

	_, err := e.Verify(context.Background(), types.Prediction{Date: "June 15th", Probability: 80})
	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidDate, appErr.Code)
}

func TestClassifyWind(t *testing.T) {
	assert.Equal(t, types.WindGood, classifyWind(15))
	assert.Equal(t, types.WindMarginal, classifyWind(12))
	assert.Equal(t, types.WindMarginal, classifyWind(10))
	assert.Equal(t, types.WindPoor, classifyWind(9.9))
}

func TestClassifyMatrix(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		quality     types.WindQuality
		want        types.VerificationOutcome
	}{
		{"high probability, good wind", 85, types.WindGood, types.OutcomeExcellent},
		{"high probability, marginal wind", 85, types.WindMarginal, types.OutcomePartialCredit},
		{"high probability, poor wind", 85, types.WindPoor, types.OutcomeFalsePositive},
		{"moderate probability, good wind", 50, types.WindGood, types.OutcomePartialCredit},
		{"moderate probability, marginal wind", 50, types.WindMarginal, types.OutcomePartialCredit},
		{"moderate probability, poor wind", 50, types.WindPoor, types.OutcomePartialCredit},
		{"low probability, good wind", 20, types.WindGood, types.OutcomeMajorMiss},
		{"low probability, marginal wind", 20, types.WindMarginal, types.OutcomePartialCredit},
		{"low probability, poor wind", 20, types.WindPoor, types.OutcomeCorrectSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, rationale, hint := classify(tt.probability, tt.quality)
			assert.Equal(t, tt.want, outcome)
			assert.NotEmpty(t, rationale)
			assert.NotEmpty(t, hint)
		})
	}
}

func TestSummarizeCircularDirection(t *testing.T) {
	avg, peak, dir := summarize([]types.WindSample{
		{SpeedMph: 10, DirectionDeg: 350},
		{SpeedMph: 14, GustMph: 22, DirectionDeg: 10},
	})
	assert.InDelta(t, 12, avg, 1e-9)
	assert.InDelta(t, 22, peak, 1e-9)
	assert.InDelta(t, 0, dir, 1e-6, "350 and 10 average to due north, not 180")
}
