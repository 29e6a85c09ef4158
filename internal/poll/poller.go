// Package poll holds the document-collection polling state machine.
// The scheduler has two states, Polling and Paused. It owns no timer
// itself; the page controller drives it from its event loop and asks
// the scheduler whether a given tick should fetch. Pausing bumps a
// generation counter so ticks scheduled before the pause are dropped
// instead of firing against a half-cleared backend.
package poll

import (
	"sync"
	"time"
)

// State is the scheduler state.
type State int

const (
	Polling State = iota
	Paused
)

func (s State) String() string {
	if s == Paused {
		return "paused"
	}
	return "polling"
}

// DegradedThreshold is how many consecutive swallowed fetch failures
// flip the scheduler's Degraded signal.
const DegradedThreshold = 3

// Scheduler tracks polling state and swallowed-failure counts.
type Scheduler struct {
	mu         sync.Mutex
	state      State
	interval   time.Duration
	generation int
	failures   int
}

// New returns a scheduler in the Polling state.
func New(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Scheduler{state: Polling, interval: interval}
}

// Interval is the fixed poll period.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// State reports the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation identifies the current tick chain. A tick carrying a
// stale generation must be dropped.
func (s *Scheduler) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// ShouldFetch reports whether a tick from the given generation may
// fetch: only when the generation is current and the state is Polling.
func (s *Scheduler) ShouldFetch(generation int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Polling && generation == s.generation
}

// Pause stops polling and invalidates outstanding ticks.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Paused {
		return
	}
	s.state = Paused
	s.generation++
}

// Resume restarts polling and returns the generation the new tick
// chain must carry.
func (s *Scheduler) Resume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Polling {
		return s.generation
	}
	s.state = Polling
	s.generation++
	return s.generation
}

// RecordFailure counts one swallowed fetch failure and returns the new
// consecutive count.
func (s *Scheduler) RecordFailure() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
	return s.failures
}

// RecordSuccess resets the failure streak.
func (s *Scheduler) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
}

// ConsecutiveFailures returns the current failure streak.
func (s *Scheduler) ConsecutiveFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Degraded reports whether the failure streak crossed the threshold.
// Polling errors stay invisible in the transcript; this is the one
// signal the UI may surface for them.
func (s *Scheduler) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures >= DegradedThreshold
}
