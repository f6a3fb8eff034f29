package engine

import (
	"time"

	"github.com/gosuda/ambler/internal/domain"
	"github.com/gosuda/ambler/internal/health"
)

// Status is a read-only snapshot of engine state for the status server.
type Status struct {
	State   State        `json:"status"`
	Healthy bool         `json:"healthy"`
	Uptime  string       `json:"uptime"`
	Stats   health.Stats `json:"stats"`
	Message string       `json:"message"`
}

// Status snapshots the engine for external monitoring.
func (e *Engine) Status() Status {
	e.mu.Lock()
	state := e.state
	startedAt := e.startedAt
	e.mu.Unlock()

	uptime := time.Duration(0)
	if !startedAt.IsZero() && (state == StateRunning || state == StateStopping) {
		uptime = time.Since(startedAt).Round(time.Second)
	}

	healthy := e.tracker.IsHealthy()
	message := "operating normally"
	if !healthy {
		message = "degraded: consecutive error threshold reached"
	}
	if state != StateRunning {
		message = "engine " + string(state)
	}

	return Status{
		State:   state,
		Healthy: healthy,
		Uptime:  uptime.String(),
		Stats:   e.tracker.Stats(),
		Message: message,
	}
}

// Observer returns the resolved observer account, if reporting is
// enabled.
func (e *Engine) Observer() (domain.User, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.observer == nil {
		return domain.User{}, false
	}
	return *e.observer, true
}
