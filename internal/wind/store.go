package wind

import (
	"context"
	"sync"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// SourceStation is the source label for locally ingested station telemetry.
const SourceStation = "station"

// Store is a bounded in-memory ring of recent sensor samples fed by the MQTT
// ingester. It implements types.SensorSource, serving reads from memory with
// no network hop, and is the preferred source when the station is publishing.
type Store struct {
	mu      sync.RWMutex
	samples []types.WindSample
	head    int
	full    bool
	clock   types.Clock
}

// NewStore creates a ring store holding up to capacity samples. A nil clock
// defaults to the real UTC clock.
func NewStore(capacity int, clock types.Clock) *Store {
	if capacity <= 0 {
		capacity = 720
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Store{
		samples: make([]types.WindSample, capacity),
		clock:   clock,
	}
}

// Name returns the sensor source label.
func (s *Store) Name() string { return SourceStation }

// Add appends one sample, evicting the oldest when full.
func (s *Store) Add(sample types.WindSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[s.head] = sample
	s.head = (s.head + 1) % len(s.samples)
	if s.head == 0 {
		s.full = true
	}
}

// Len returns how many samples the store currently holds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.full {
		return len(s.samples)
	}
	return s.head
}

// RecentSamples returns the stored samples within the lookback window, oldest
// first. It never fails; an idle station simply yields no samples.
func (s *Store) RecentSamples(_ context.Context, lookback time.Duration) ([]types.WindSample, error) {
	cutoff := s.clock.Now().Add(-lookback)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.WindSample
	appendIfRecent := func(sample types.WindSample) {
		if !sample.Time.IsZero() && !sample.Time.Before(cutoff) {
			out = append(out, sample)
		}
	}
	if s.full {
		for i := s.head; i < len(s.samples); i++ {
			appendIfRecent(s.samples[i])
		}
	}
	for i := 0; i < s.head; i++ {
		appendIfRecent(s.samples[i])
	}
	return out, nil
}
