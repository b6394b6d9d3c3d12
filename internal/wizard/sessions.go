// internal/wizard/sessions.go
package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"recruitment-portal/internal/common/metrics"
)

var ErrSessionNotFound = errors.New("wizard session not found")

// Sessions holds the in-memory controllers of applicants currently in the flow.
// Abandoned or expired wizards are dropped without any persisted side effect.
type Sessions struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]*Controller
	now   func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{ttl: ttl, items: map[string]*Controller{}, now: time.Now}
}

func (s *Sessions) Add(c *Controller) {
	s.mu.Lock()
	s.items[c.ID()] = c
	metrics.ActiveSessions.Set(float64(len(s.items)))
	s.mu.Unlock()
}

func (s *Sessions) Get(id string) (*Controller, error) {
	s.mu.Lock()
	c, ok := s.items[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.ttl > 0 && s.now().Sub(c.IdleSince()) > s.ttl {
		s.Remove(id)
		return nil, ErrSessionNotFound
	}
	return c, nil
}

func (s *Sessions) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	metrics.ActiveSessions.Set(float64(len(s.items)))
	return ok
}

// Sweep drops submitted and idle controllers and returns how many it removed.
// Controllers are inspected outside s.mu: a controller busy submitting holds
// its own lock and must not stall lookups of other sessions.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	snapshot := make([]*Controller, 0, len(s.items))
	for _, c := range s.items {
		snapshot = append(snapshot, c)
	}
	s.mu.Unlock()

	removed := 0
	for _, c := range snapshot {
		if c.State().Step != StepSubmitted && (s.ttl <= 0 || s.now().Sub(c.IdleSince()) <= s.ttl) {
			continue
		}
		if s.removeIfSame(c) {
			removed++
		}
	}
	return removed
}

// removeIfSame drops c unless its id was re-registered in the meantime.
func (s *Sessions) removeIfSame(c *Controller) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items[c.ID()] != c {
		return false
	}
	delete(s.items, c.ID())
	metrics.ActiveSessions.Set(float64(len(s.items)))
	return true
}

// Run sweeps on interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}
