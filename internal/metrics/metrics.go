// Package metrics exposes Prometheus instrumentation for the refresh
// pipeline and the current prediction.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// Publisher owns the process registry and the domain instruments.
type Publisher struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram

	predictionProbability prometheus.Gauge
	predictionConfidence  prometheus.Gauge
	favorableFactors      prometheus.Gauge
	snapshotReliability   *prometheus.GaugeVec

	windAverageMph prometheus.Gauge
	windSamples    prometheus.Gauge
}

// NewPublisher creates the registry with process collectors and the domain
// instruments registered.
func NewPublisher() *Publisher {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &Publisher{
		registry: registry,
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dp_refresh_total",
			Help: "Refresh pipeline runs by result.",
		}, []string{"result"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dp_refresh_duration_seconds",
			Help:    "Wall time of one refresh pipeline run.",
			Buckets: prometheus.DefBuckets,
		}),
		predictionProbability: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dp_prediction_probability",
			Help: "Probability of today's prediction, 0-100.",
		}),
		predictionConfidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dp_prediction_confidence",
			Help: "Confidence of today's prediction, 0-100.",
		}),
		favorableFactors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dp_prediction_favorable_factors",
			Help: "Count of factors meeting their thresholds.",
		}),
		snapshotReliability: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dp_snapshot_reliability",
			Help: "One-hot reliability tag of the current snapshot.",
		}, []string{"level"}),
		windAverageMph: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dp_wind_average_mph",
			Help: "Average lake wind speed from the latest live analysis.",
		}),
		windSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dp_wind_sample_count",
			Help: "Sample count behind the latest live analysis.",
		}),
	}

	registry.MustRegister(
		p.refreshTotal,
		p.refreshDuration,
		p.predictionProbability,
		p.predictionConfidence,
		p.favorableFactors,
		p.snapshotReliability,
		p.windAverageMph,
		p.windSamples,
	)
	return p
}

// Handler serves the scrape endpoint.
func (p *Publisher) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// ObserveRefresh records one pipeline run.
func (p *Publisher) ObserveRefresh(d time.Duration, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	p.refreshTotal.WithLabelValues(result).Inc()
	p.refreshDuration.Observe(d.Seconds())
}

// RecordPrediction publishes the headline numbers of the latest prediction.
func (p *Publisher) RecordPrediction(pred types.Prediction) {
	p.predictionProbability.Set(pred.Probability)
	p.predictionConfidence.Set(pred.Confidence)
	p.favorableFactors.Set(float64(pred.FavorableCount()))

	for _, level := range []types.Reliability{types.ReliabilityHigh, types.ReliabilityMedium, types.ReliabilityLow} {
		v := 0.0
		if pred.Reliability == level {
			v = 1
		}
		p.snapshotReliability.WithLabelValues(string(level)).Set(v)
	}
}

// RecordWind publishes the latest live wind analysis.
func (p *Publisher) RecordWind(a types.WindAnalysis) {
	p.windAverageMph.Set(a.AverageSpeedMph)
	p.windSamples.Set(float64(a.SampleCount))
}
