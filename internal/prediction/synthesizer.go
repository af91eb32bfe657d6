// Package prediction synthesizes factor results into a dawn patrol call and
// manages that call's daily lifecycle: freely recomputed before dawn, live
// against sensor data during the riding window, frozen after it.
package prediction

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/samqbush/dp-soda-sub005/internal/factors"
	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// Weights assigns each factor's share of the probability. The values sum
// to 1.0; they are calibration data, not constants.
type Weights struct {
	Precipitation float64
	Sky           float64
	Pressure      float64
	Temperature   float64
	Wave          float64
}

// DefaultWeights returns the current calibration.
func DefaultWeights() Weights {
	return Weights{
		Precipitation: 0.25,
		Sky:           0.20,
		Pressure:      0.20,
		Temperature:   0.20,
		Wave:          0.15,
	}
}

func (w Weights) of(kind types.FactorKind) float64 {
	switch kind {
	case types.FactorPrecipitation:
		return w.Precipitation
	case types.FactorSkyClearness:
		return w.Sky
	case types.FactorPressure:
		return w.Pressure
	case types.FactorTemperature:
		return w.Temperature
	case types.FactorWave:
		return w.Wave
	default:
		return 0
	}
}

// BonusRules are the multiplicative boosts applied when several factors line
// up at once. Factor interactions are empirically super-additive; a pure
// weighted average has repeatedly proven too conservative here.
type BonusRules struct {
	ThreeOfFive float64
	FourOfFive  float64
	FiveOfFive  float64
}

// DefaultBonusRules returns the current calibration.
func DefaultBonusRules() BonusRules {
	return BonusRules{
		ThreeOfFive: 0.10,
		FourOfFive:  0.15,
		FiveOfFive:  0.25,
	}
}

// Recommendation bands. Confidence below minConfidenceForCall forces
// MARGINAL regardless of probability; a confident-sounding call on thin
// evidence is the failure mode this exists to prevent.
const (
	minConfidenceForCall = 60.0
	goProbability        = 70.0
	skipProbability      = 40.0
)

// Confidence dampening multipliers by favorable-factor count.
var confidenceDampening = map[int]float64{
	0: 0.30,
	1: 0.50,
	2: 0.70,
}

// Synthesizer combines the five factor results into a Prediction. Analyze is
// deterministic: the same snapshot and thresholds always yield the same
// probability, confidence, recommendation, and explanation.
type Synthesizer struct {
	analyzers []factors.Analyzer
	weights   Weights
	bonuses   BonusRules
	window    types.TimeWindow
	clock     types.Clock
	logger    *slog.Logger
}

// SynthesizerConfig holds the construction parameters for Synthesizer.
type SynthesizerConfig struct {
	Thresholds factors.Thresholds
	Weights    Weights
	Bonuses    BonusRules
	Clock      types.Clock
	Logger     *slog.Logger
}

// NewSynthesizer builds a synthesizer over the standard five analyzers.
func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Synthesizer{
		analyzers: factors.All(cfg.Thresholds),
		weights:   cfg.Weights,
		bonuses:   cfg.Bonuses,
		window:    cfg.Thresholds.DecisionWindow,
		clock:     clock,
		logger:    logger,
	}
}

// Analyze runs every factor against the snapshot and synthesizes the call
// for the calendar day of in.Day. It never refuses to produce a Prediction;
// thin or absent data surfaces as suppressed confidence instead.
func (s *Synthesizer) Analyze(in factors.Input, quality types.ForecastQuality) types.Prediction {
	results := make([]types.FactorResult, 0, len(s.analyzers))
	for _, a := range s.analyzers {
		results = append(results, a.Analyze(in))
	}

	probability := s.probability(results)
	favorable := countFavorable(results)
	probability = s.applyBonus(probability, favorable)
	confidence := s.confidence(results, favorable)
	rec := recommend(probability, confidence)

	p := types.Prediction{
		Date:           types.CivilDate(in.Day),
		GeneratedAt:    s.clock.Now(),
		Probability:    round1(probability),
		Confidence:     round1(confidence),
		Factors:        results,
		Recommendation: rec,
		Explanation:    explain(results, rec),
		Quality:        quality,
		Reliability:    snapshotReliability(in.Snapshot),
	}
	if rec != types.RecommendSkip {
		w := s.window
		p.BestWindow = &w
	}

	s.logger.Info("prediction synthesized",
		"date", p.Date,
		"probability", p.Probability,
		"confidence", p.Confidence,
		"recommendation", p.Recommendation,
		"favorable", favorable,
	)
	return p
}

// probability is the confidence-weighted score. A factor's vote counts in
// proportion to (weight x confidence), so a zero-confidence factor neither
// drags the average down nor pads it up.
func (s *Synthesizer) probability(results []types.FactorResult) float64 {
	var num, den float64
	for _, r := range results {
		w := s.weights.of(r.Kind) * r.Confidence / 100
		if r.Meets {
			num += w * 100
		}
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func (s *Synthesizer) applyBonus(prob float64, favorable int) float64 {
	switch {
	case favorable >= 5:
		prob *= 1 + s.bonuses.FiveOfFive
	case favorable == 4:
		prob *= 1 + s.bonuses.FourOfFive
	case favorable == 3:
		prob *= 1 + s.bonuses.ThreeOfFive
	}
	if prob > 100 {
		prob = 100
	}
	return prob
}

// confidence starts from the raw average factor confidence and is dampened
// when few factors are favorable.
func (s *Synthesizer) confidence(results []types.FactorResult, favorable int) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Confidence
	}
	raw := sum / float64(len(results))
	if mult, ok := confidenceDampening[favorable]; ok {
		return raw * mult
	}
	return raw
}

func recommend(probability, confidence float64) types.Recommendation {
	if confidence < minConfidenceForCall {
		return types.RecommendMarginal
	}
	switch {
	case probability >= goProbability:
		return types.RecommendGo
	case probability >= skipProbability:
		return types.RecommendMarginal
	default:
		return types.RecommendSkip
	}
}

// explain builds the human-readable summary purely from which factors passed
// and failed, in canonical factor order.
func explain(results []types.FactorResult, rec types.Recommendation) string {
	var passed, failed []string
	for _, kind := range types.AllFactorKinds {
		for _, r := range results {
			if r.Kind != kind {
				continue
			}
			label := factorLabel(kind)
			if r.Meets {
				passed = append(passed, label)
			} else {
				failed = append(failed, label)
			}
		}
	}

	var b strings.Builder
	switch rec {
	case types.RecommendGo:
		b.WriteString("Conditions favor dawn patrol")
	case types.RecommendMarginal:
		b.WriteString("Conditions are marginal")
	default:
		b.WriteString("Conditions do not favor dawn patrol")
	}
	if len(passed) > 0 {
		fmt.Fprintf(&b, "; favorable: %s", strings.Join(passed, ", "))
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "; unfavorable: %s", strings.Join(failed, ", "))
	}
	b.WriteString(".")
	return b.String()
}

func factorLabel(kind types.FactorKind) string {
	switch kind {
	case types.FactorPrecipitation:
		return "low precipitation"
	case types.FactorSkyClearness:
		return "clear pre-dawn sky"
	case types.FactorPressure:
		return "pressure movement"
	case types.FactorTemperature:
		return "mountain-valley temperature split"
	case types.FactorWave:
		return "wave/stability enhancement"
	default:
		return string(kind)
	}
}

func countFavorable(results []types.FactorResult) int {
	n := 0
	for _, r := range results {
		if r.Meets {
			n++
		}
	}
	return n
}

func snapshotReliability(snap *types.AggregateSnapshot) types.Reliability {
	if snap == nil {
		return types.ReliabilityLow
	}
	return snap.Reliability
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
