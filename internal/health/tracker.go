// Package health accumulates the engine's activity log and derives the
// binary health verdict that gates new actions.
package health

import (
	"fmt"
	"sync"

	"github.com/gosuda/ambler/internal/domain"
)

// errorThreshold is the consecutive-failure count at which the engine
// is considered unhealthy.
const errorThreshold = 5

// Stats is an aggregate view over the activity log.
type Stats struct {
	Total       int    `json:"total"`
	Successes   int    `json:"successes"`
	Errors      int    `json:"errors"`
	SuccessRate string `json:"success_rate"`
}

// Tracker owns the append-only activity log and the consecutive-error
// counter. Entries are never removed or reordered; statistics are a
// pure fold over the log. Safe for concurrent use by interleaving
// action ticks.
type Tracker struct {
	mu                sync.RWMutex
	log               []domain.ActivityRecord
	consecutiveErrors int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record appends one entry to the activity log. A success entry resets
// the consecutive-error counter to zero; an error entry increments it.
// Info and warning entries leave the counter untouched.
func (t *Tracker) Record(level domain.Level, message string) domain.ActivityRecord {
	rec := domain.NewActivityRecord(level, message)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = append(t.log, rec)

	switch level {
	case domain.LevelSuccess:
		t.consecutiveErrors = 0
	case domain.LevelError:
		t.consecutiveErrors++
	}

	return rec
}

// RecordOutcome appends the log entry for one action outcome.
func (t *Tracker) RecordOutcome(outcome domain.ActionOutcome) domain.ActivityRecord {
	if outcome.Success {
		return t.Record(domain.LevelSuccess, fmt.Sprintf("%s action succeeded: %s", outcome.Kind, outcome.Target))
	}
	return t.Record(domain.LevelError, fmt.Sprintf("%s action failed: %s: %s", outcome.Kind, outcome.Target, outcome.ErrorDetail))
}

// ConsecutiveErrors returns the current run length of failures.
func (t *Tracker) ConsecutiveErrors() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.consecutiveErrors
}

// ResetErrors zeroes the consecutive-error counter. Used by the
// recovery path after a successful re-authentication.
func (t *Tracker) ResetErrors() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutiveErrors = 0
}

// IsHealthy reports whether the failure run is below the threshold.
func (t *Tracker) IsHealthy() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.consecutiveErrors < errorThreshold
}

// Stats folds the activity log into aggregate counters. The success
// rate is computed over success and error entries only, since the log
// also carries info and warning entries.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Stats{Total: len(t.log)}
	for _, rec := range t.log {
		switch rec.Level {
		case domain.LevelSuccess:
			s.Successes++
		case domain.LevelError:
			s.Errors++
		}
	}

	actions := s.Successes + s.Errors
	if actions == 0 {
		s.SuccessRate = "0.00%"
	} else {
		s.SuccessRate = fmt.Sprintf("%.2f%%", float64(s.Successes)/float64(actions)*100)
	}

	return s
}

// Recent returns up to limit newest entries, newest first. Limit of 0
// returns the whole log.
func (t *Tracker) Recent(limit int) []domain.ActivityRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := len(t.log)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]domain.ActivityRecord, limit)
	for i := range limit {
		out[i] = t.log[n-1-i]
	}
	return out
}
