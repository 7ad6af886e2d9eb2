// Package weatherrepo is an in-memory sink for the weather actually
// fetched during planning (§6 WeatherRepository), keyed by point index
// and instant so repeated saves for the same point/time overwrite rather
// than accumulate.
package weatherrepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

// Store keeps every fetched observation in memory, for debugging and for
// the response's weather_stats block.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	PointIdx int
	At       time.Time
	Obs      domain.WeatherObservation
}

// New creates an empty in-memory weather store.
func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

// SaveForecast satisfies ports.WeatherRepository.
func (s *Store) SaveForecast(ctx context.Context, pointIdx int, at time.Time, obs domain.WeatherObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key(pointIdx, at)] = entry{PointIdx: pointIdx, At: at, Obs: obs}
	return nil
}

// All returns every saved observation, for assembling weather_stats.
func (s *Store) All() []domain.WeatherObservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.WeatherObservation, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Obs)
	}
	return out
}

func key(pointIdx int, at time.Time) string {
	return fmt.Sprintf("%d@%d", pointIdx, at.Unix())
}
