// Package engine drives the periodic action schedule: two phase-offset
// action timers, a health-check timer with self-recovery, and the
// start/stop lifecycle around them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/ambler/internal/domain"
	"github.com/gosuda/ambler/internal/health"
	"github.com/gosuda/ambler/internal/report"
)

// State is the engine lifecycle state.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateStopping     State = "stopping"
	StateStopped      State = "stopped"
)

// healthCheckInterval is the recovery timer period, independent of the
// configured action interval.
const healthCheckInterval = 30 * time.Second

// stopGrace bounds how long Stop waits for in-flight ticks.
const stopGrace = 10 * time.Second

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("engine: already started")

// Authenticator re-establishes the backend session.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}

// UserFinder resolves a username to a backend user.
type UserFinder interface {
	FindUser(ctx context.Context, username string) (domain.User, error)
}

// ActionRunner executes the two action categories and exposes the
// message-send primitive for reporting.
type ActionRunner interface {
	RunMessage(ctx context.Context) *domain.ActionOutcome
	RunComment(ctx context.Context) *domain.ActionOutcome
	SendDirectMessage(ctx context.Context, userID int64, content string) error
}

// Config holds the engine's schedule settings.
type Config struct {
	ObserverUsername string
	ActionInterval   time.Duration
}

// Engine owns all scheduler and session state and coordinates the
// periodic timers. All mutable state lives on the struct; timer
// callbacks receive it explicitly.
type Engine struct {
	cfg     Config
	auth    Authenticator
	users   UserFinder
	actions ActionRunner
	tracker *health.Tracker

	// extraSinks are report sinks beyond the observer chat (the
	// optional Slack mirror). May be empty.
	extraSinks []report.Sink

	mu        sync.Mutex
	state     State
	startedAt time.Time
	observer  *domain.User
	reporter  *report.Reporter
	cancel    context.CancelFunc

	loopWG sync.WaitGroup
	tickWG sync.WaitGroup

	// done closes when the engine reaches StateStopped, whether by
	// Stop or by a tick panic. The process main selects on it.
	done chan struct{}
}

// New creates an idle Engine.
func New(cfg Config, auth Authenticator, users UserFinder, actions ActionRunner, tracker *health.Tracker, extraSinks ...report.Sink) *Engine {
	return &Engine{
		cfg:        cfg,
		auth:       auth,
		users:      users,
		actions:    actions,
		tracker:    tracker,
		extraSinks: extraSinks,
		state:      StateIdle,
		reporter:   report.NewReporter(),
		done:       make(chan struct{}),
	}
}

// Done returns a channel that closes once the engine has fully
// stopped. It fires for self-initiated stops too, such as a tick
// panic, so callers blocked on a signal context also observe those.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start authenticates, resolves the observer, runs the first message
// action, and arms the timers. Startup authentication failure is fatal
// and leaves the engine stopped.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return fmt.Errorf("engine.Engine.Start: state %q: %w", e.state, ErrAlreadyStarted)
	}
	e.state = StateInitializing
	e.mu.Unlock()

	if err := e.auth.Authenticate(ctx); err != nil {
		e.setState(StateStopped)
		return fmt.Errorf("engine.Engine.Start: %w", err)
	}
	e.tracker.Record(domain.LevelInfo, "authenticated")

	// Observer resolution is tolerant: a missing observer disables
	// chat reporting for the run instead of failing startup.
	sinks := make([]report.Sink, 0, 1+len(e.extraSinks))
	observer, err := e.users.FindUser(ctx, e.cfg.ObserverUsername)
	if err != nil {
		log.Warn().Err(err).Str("observer", e.cfg.ObserverUsername).Msg("observer not resolved, chat reporting disabled")
		e.tracker.Record(domain.LevelWarning, "observer @"+e.cfg.ObserverUsername+" not found, chat reporting disabled")
	} else {
		sinks = append(sinks, report.NewChatSink(e.actions, observer.ID, observer.Username))
	}
	sinks = append(sinks, e.extraSinks...)

	runCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	if e.state != StateInitializing {
		// Stop raced the init phase and owns the lifecycle from here;
		// arming the loop would resurrect a stopped engine.
		state := e.state
		e.mu.Unlock()
		cancel()
		log.Info().Str("state", string(state)).Msg("stop requested during initialization, engine not started")
		return nil
	}
	if err == nil {
		e.observer = &observer
	}
	e.reporter = report.NewReporter(sinks...)
	e.cancel = cancel
	e.state = StateRunning
	e.startedAt = time.Now()
	e.mu.Unlock()

	e.tracker.Record(domain.LevelInfo, "engine started")
	log.Info().Dur("interval", e.cfg.ActionInterval).Msg("engine running")

	e.loopWG.Add(1)
	go e.loop(runCtx)

	return nil
}

// loop runs the timers until the context is cancelled. The comment
// timer is phase-offset by half the action interval so the two action
// categories alternate.
func (e *Engine) loop(ctx context.Context) {
	defer e.loopWG.Done()

	// First message action fires immediately.
	e.spawnTick(ctx, e.messageTick)

	messageTicker := time.NewTicker(e.cfg.ActionInterval)
	defer messageTicker.Stop()

	healthTicker := time.NewTicker(healthCheckInterval)
	defer healthTicker.Stop()

	commentDelay := time.NewTimer(e.cfg.ActionInterval / 2)
	defer commentDelay.Stop()

	var commentTicker *time.Ticker
	var commentTicks <-chan time.Time
	defer func() {
		if commentTicker != nil {
			commentTicker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-messageTicker.C:
			e.spawnTick(ctx, e.messageTick)
		case <-commentDelay.C:
			commentTicker = time.NewTicker(e.cfg.ActionInterval)
			commentTicks = commentTicker.C
			e.spawnTick(ctx, e.commentTick)
		case <-commentTicks:
			e.spawnTick(ctx, e.commentTick)
		case <-healthTicker.C:
			e.spawnTick(ctx, e.healthTick)
		}
	}
}

// spawnTick runs one tick handler in its own goroutine. In-flight
// ticks keep running through Stop; only the timers are cancelled, so
// the tick context is detached from the loop context. A panicking tick
// drives the full stop transition instead of crashing the process:
// the engine must not linger in StateRunning with dead timers. Stop
// runs on its own goroutine because it waits for this tick to finish.
func (e *Engine) spawnTick(ctx context.Context, tick func(context.Context)) {
	tickCtx := context.WithoutCancel(ctx)

	e.tickWG.Add(1)
	go func() {
		defer e.tickWG.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("tick panicked, stopping engine")
				e.tracker.Record(domain.LevelError, fmt.Sprintf("tick panicked: %v", r))
				go e.Stop()
			}
		}()
		tick(tickCtx)
	}()
}

// messageTick runs one message action unless the engine is unhealthy,
// in which case the tick is skipped outright rather than queued.
func (e *Engine) messageTick(ctx context.Context) {
	if !e.tracker.IsHealthy() {
		log.Warn().Int("consecutive_errors", e.tracker.ConsecutiveErrors()).Msg("skipping message tick, engine unhealthy")
		return
	}

	started := time.Now()
	outcome := e.actions.RunMessage(ctx)
	if outcome == nil {
		return
	}

	log.Info().Str("action", "message").Str("target", outcome.Target).Bool("success", outcome.Success).Dur("took", time.Since(started)).Msg("message tick finished")
	e.report(ctx, *outcome)
}

// commentTick mirrors messageTick for the comment action.
func (e *Engine) commentTick(ctx context.Context) {
	if !e.tracker.IsHealthy() {
		log.Warn().Int("consecutive_errors", e.tracker.ConsecutiveErrors()).Msg("skipping comment tick, engine unhealthy")
		return
	}

	started := time.Now()
	outcome := e.actions.RunComment(ctx)
	if outcome == nil {
		return
	}

	log.Info().Str("action", "comment").Str("target", outcome.Target).Bool("success", outcome.Success).Dur("took", time.Since(started)).Msg("comment tick finished")
	e.report(ctx, *outcome)
}

// healthTick attempts recovery when the error run has crossed the
// threshold: one fresh authentication per tick, counter reset on
// success. This is the only automatic recovery path.
func (e *Engine) healthTick(ctx context.Context) {
	if e.tracker.IsHealthy() {
		return
	}

	log.Warn().Int("consecutive_errors", e.tracker.ConsecutiveErrors()).Msg("engine unhealthy, attempting recovery")

	if err := e.auth.Authenticate(ctx); err != nil {
		e.tracker.Record(domain.LevelWarning, "recovery re-authentication failed: "+err.Error())
		log.Error().Err(err).Msg("recovery re-authentication failed")
		return
	}

	e.tracker.ResetErrors()
	e.tracker.Record(domain.LevelInfo, "recovered: re-authentication succeeded, error counter reset")
	log.Info().Msg("recovered from unhealthy state")
}

func (e *Engine) report(ctx context.Context, outcome domain.ActionOutcome) {
	e.mu.Lock()
	reporter := e.reporter
	e.mu.Unlock()

	if !reporter.Enabled() {
		return
	}
	reporter.Report(ctx, outcome)
}

// Stop cancels the timers, waits briefly for in-flight ticks, and
// emits final statistics. Safe to call once after Start.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StateRunning && e.state != StateInitializing {
		e.mu.Unlock()
		return
	}
	e.state = StateStopping
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.loopWG.Wait()

	// In-flight actions are not aborted; give them a bounded window
	// to finish.
	done := make(chan struct{})
	go func() {
		e.tickWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopGrace):
		log.Warn().Msg("in-flight ticks did not finish within grace period")
	}

	e.tracker.Record(domain.LevelInfo, "engine stopped")
	stats := e.tracker.Stats()
	log.Info().
		Int("total", stats.Total).
		Int("successes", stats.Successes).
		Int("errors", stats.Errors).
		Str("success_rate", stats.SuccessRate).
		Msg("final statistics")

	// Only the caller that won the stopping transition reaches this
	// point, so the close happens exactly once.
	e.setState(StateStopped)
	close(e.done)
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}
