// Package report relays action outcomes to the observer account.
// Reporting is best-effort: failures are logged and never propagate
// into the scheduling loop.
package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/ambler/internal/domain"
)

// Sink delivers one formatted report line somewhere.
type Sink interface {
	Deliver(ctx context.Context, summary string) error
	Name() string
}

// Reporter formats outcomes and fans them out to its sinks.
type Reporter struct {
	sinks []Sink
}

// NewReporter creates a Reporter over the given sinks. With no sinks,
// reporting is effectively disabled.
func NewReporter(sinks ...Sink) *Reporter {
	return &Reporter{sinks: sinks}
}

// Enabled reports whether at least one sink is configured.
func (r *Reporter) Enabled() bool {
	return len(r.sinks) > 0
}

// Report sends the outcome summary to every sink. Each sink failure is
// logged and swallowed.
func (r *Reporter) Report(ctx context.Context, outcome domain.ActionOutcome) {
	summary := Summary(outcome)

	for _, sink := range r.sinks {
		if err := sink.Deliver(ctx, summary); err != nil {
			log.Warn().Err(err).Str("sink", sink.Name()).Msg("report delivery failed")
		}
	}
}

// Summary renders a human-readable report line for one outcome, with
// distinct phrasing per action kind and result.
func Summary(outcome domain.ActionOutcome) string {
	switch {
	case outcome.Kind == domain.ActionMessage && outcome.Success:
		return fmt.Sprintf("Report: direct message sent to %s: %q", outcome.Target, outcome.Content)
	case outcome.Kind == domain.ActionMessage:
		return fmt.Sprintf("Report: direct message to %s failed: %s", outcome.Target, outcome.ErrorDetail)
	case outcome.Success:
		return fmt.Sprintf("Report: comment posted on %s: %q", outcome.Target, outcome.Content)
	default:
		return fmt.Sprintf("Report: comment on %s failed: %s", outcome.Target, outcome.ErrorDetail)
	}
}
