// Package routerepo is an in-memory sink for finished route profiles
// (§6 RouteRepository), standing in for a real persistence layer in the
// single-process deployment this module targets.
package routerepo

import (
	"context"
	"sync"

	"github.com/kelvin-ux/sailing-regates-route-calculator/internal/domain"
)

// Store keeps the most recently saved profile per ID in memory.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]domain.RouteProfile
}

// New creates an empty in-memory route profile store.
func New() *Store {
	return &Store{profiles: make(map[string]domain.RouteProfile)}
}

// SaveProfile satisfies ports.RouteRepository.
func (s *Store) SaveProfile(ctx context.Context, profile domain.RouteProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile
	return nil
}

// ByID returns a previously saved profile, for the optional lookup
// endpoint.
func (s *Store) ByID(id string) (domain.RouteProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	return p, ok
}
