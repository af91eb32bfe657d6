// Package aggregator fetches forecasts from multiple providers for the
// configured locations and combines them into a single AggregateSnapshot.
//
// Providers are ordered by priority. For each location the aggregator tries
// the primary provider first and falls back down the chain on failure. A
// location whose every provider fails still appears in the snapshot as an
// empty series, so downstream factor analyzers can degrade per factor instead
// of failing the whole prediction.
package aggregator

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// Aggregator coordinates concurrent forecast fetches across locations.
type Aggregator struct {
	providers []types.ForecastProvider
	locations []types.Location
	timeout   time.Duration
	clock     types.Clock
	logger    *slog.Logger
}

// Config holds the construction parameters for Aggregator.
type Config struct {
	// Providers in priority order; index 0 is primary.
	Providers []types.ForecastProvider
	Locations []types.Location
	// FetchTimeout bounds each individual provider call.
	FetchTimeout time.Duration
	Clock        types.Clock
	Logger       *slog.Logger
}

// New creates an Aggregator. A nil logger defaults to slog.Default and a nil
// clock to the real UTC clock.
func New(cfg Config) *Aggregator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Aggregator{
		providers: cfg.Providers,
		locations: cfg.Locations,
		timeout:   timeout,
		clock:     clock,
		logger:    logger,
	}
}

// Fetch retrieves forecasts for every configured location concurrently and
// assembles the snapshot. It never returns an error for partial failure;
// source outages reduce the snapshot's reliability instead.
func (a *Aggregator) Fetch(ctx context.Context) *types.AggregateSnapshot {
	series := make([]types.LocationSeries, len(a.locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, loc := range a.locations {
		g.Go(func() error {
			series[i] = a.fetchLocation(gctx, loc)
			return nil
		})
	}
	// Workers only record results; nothing returns an error.
	_ = g.Wait()

	snapshot := &types.AggregateSnapshot{
		Locations: series,
		FetchedAt: a.clock.Now(),
	}
	snapshot.Sources = distinctSources(series)
	snapshot.Reliability = a.classifyReliability(series)

	a.logger.InfoContext(ctx, "aggregate snapshot assembled",
		"locations", len(series),
		"sources", snapshot.Sources,
		"reliability", snapshot.Reliability,
	)
	return snapshot
}

// fetchLocation walks the provider chain for one location in priority order.
// The highest-priority provider that returns samples supplies the base series
// and the source label; lower-priority providers fill timestamp gaps the base
// left open.
func (a *Aggregator) fetchLocation(ctx context.Context, loc types.Location) types.LocationSeries {
	out := types.LocationSeries{Location: loc}

	for _, p := range a.providers {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		samples, err := p.Fetch(callCtx, loc)
		cancel()
		if err != nil {
			a.logger.WarnContext(ctx, "forecast fetch failed",
				"provider", p.Name(),
				"location", loc.Name,
				"error", err,
			)
			continue
		}
		if len(samples) == 0 {
			a.logger.WarnContext(ctx, "forecast fetch returned no samples",
				"provider", p.Name(),
				"location", loc.Name,
			)
			continue
		}
		if out.Source == "" {
			out.Source = p.Name()
		}
		out.Samples = MergeSamples(out.Samples, samples, mergeTolerance)
	}

	if out.Empty() {
		a.logger.ErrorContext(ctx, "all providers failed for location", "location", loc.Name)
	}
	return out
}

// classifyReliability tags the snapshot per the data-quality policy:
// high when at least two locations have primary-provider data, medium when
// exactly one location has data or any populated series came from a fallback
// provider, low when nothing came back.
func (a *Aggregator) classifyReliability(series []types.LocationSeries) types.Reliability {
	primary := ""
	if len(a.providers) > 0 {
		primary = a.providers[0].Name()
	}

	populated := 0
	primaryCount := 0
	for i := range series {
		if series[i].Empty() {
			continue
		}
		populated++
		if series[i].Source == primary {
			primaryCount++
		}
	}

	switch {
	case populated == 0:
		return types.ReliabilityLow
	case primaryCount >= 2:
		return types.ReliabilityHigh
	default:
		return types.ReliabilityMedium
	}
}

func distinctSources(series []types.LocationSeries) []string {
	seen := map[string]bool{}
	var out []string
	for i := range series {
		src := series[i].Source
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

// SnapshotHolder retains the current and previous snapshots under a mutex.
// The previous snapshot feeds the pressure-change trend comparison; anything
// older is discarded.
type SnapshotHolder struct {
	mu       sync.RWMutex
	current  *types.AggregateSnapshot
	previous *types.AggregateSnapshot
}

// Set installs a new current snapshot, demoting the old current to previous.
func (h *SnapshotHolder) Set(s *types.AggregateSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.previous = h.current
	h.current = s
}

// Current returns the most recent snapshot, or nil before the first fetch.
func (h *SnapshotHolder) Current() *types.AggregateSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Previous returns the snapshot before the current one, or nil.
func (h *SnapshotHolder) Previous() *types.AggregateSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.previous
}
