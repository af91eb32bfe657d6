package types

// FactorKind identifies one of the five prediction factors.
type FactorKind string

const (
	FactorPrecipitation FactorKind = "precipitation"
	FactorSkyClearness  FactorKind = "sky_clearness"
	FactorPressure      FactorKind = "pressure_change"
	FactorTemperature   FactorKind = "temperature_differential"
	FactorWave          FactorKind = "wave_stability"
)

// AllFactorKinds lists the factors in canonical synthesis order. The
// synthesizer iterates this slice so that explanations and weighted sums are
// reproducible across runs.
var AllFactorKinds = []FactorKind{
	FactorPrecipitation,
	FactorSkyClearness,
	FactorPressure,
	FactorTemperature,
	FactorWave,
}

// Recommendation is the three-way call surfaced to the rider.
type Recommendation string

const (
	RecommendGo       Recommendation = "go"
	RecommendMarginal Recommendation = "marginal"
	RecommendSkip     Recommendation = "skip"
)

// Reliability is the coarse data-quality tag attached to an AggregateSnapshot.
// The UI renders live/cached/degraded badges from this value, so it is a
// load-bearing contract, not a cosmetic label.
type Reliability string

const (
	ReliabilityHigh   Reliability = "high"
	ReliabilityMedium Reliability = "medium"
	ReliabilityLow    Reliability = "low"
)

// LifecyclePhase is the wall-clock-driven state of today's prediction.
type LifecyclePhase string

const (
	// PhasePrediction runs before the dawn decision window opens; the
	// prediction is recomputed freely on every refresh.
	PhasePrediction LifecyclePhase = "prediction"
	// PhaseVerification runs during the decision window; recomputation
	// continues, cross-checked against live sensor data when available.
	PhaseVerification LifecyclePhase = "verification"
	// PhaseFrozen runs after the decision window closes until local midnight;
	// the prediction is immutable.
	PhaseFrozen LifecyclePhase = "frozen"
)

// TrendDirection classifies a pressure trend using a neutral band around zero.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

// WindQuality classifies observed wind during the decision window by average
// (not gust) speed. Brief gusts are not representative of sustained rideable
// conditions, so peak speed never drives this classification.
type WindQuality string

const (
	WindGood     WindQuality = "good"
	WindMarginal WindQuality = "marginal"
	WindPoor     WindQuality = "poor"
)

// VerificationOutcome is the qualitative verdict from crossing a frozen
// prediction against observed wind.
type VerificationOutcome string

const (
	OutcomeExcellent     VerificationOutcome = "excellent"
	OutcomeFalsePositive VerificationOutcome = "false_positive"
	OutcomeMajorMiss     VerificationOutcome = "major_miss"
	OutcomeCorrectSkip   VerificationOutcome = "correct_skip"
	OutcomePartialCredit VerificationOutcome = "partial_credit"
)

// ForecastQuality labels how trustworthy a future-day prediction is.
// Overnight-cooling factors need a nearly complete day of forecast history,
// so tomorrow's prediction is preliminary until the evening cutover.
type ForecastQuality string

const (
	QualityPreliminary ForecastQuality = "preliminary"
	QualityRefined     ForecastQuality = "refined"
	// QualityFinal marks today's frozen prediction.
	QualityFinal ForecastQuality = "final"
)
