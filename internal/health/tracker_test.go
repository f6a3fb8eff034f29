package health_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/ambler/internal/domain"
	"github.com/gosuda/ambler/internal/health"
)

func TestTracker_ConsecutiveErrors(t *testing.T) {
	t.Parallel()

	t.Run("starts at zero and healthy", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()

		assert.Zero(t, tr.ConsecutiveErrors())
		assert.True(t, tr.IsHealthy())
	})

	t.Run("N failures without success count N", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()

		for i := 1; i <= 3; i++ {
			tr.Record(domain.LevelError, "boom")
			assert.Equal(t, i, tr.ConsecutiveErrors())
		}
	})

	t.Run("success resets counter to exactly zero", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()

		tr.Record(domain.LevelError, "boom")
		tr.Record(domain.LevelError, "boom")
		tr.Record(domain.LevelSuccess, "recovered")

		assert.Zero(t, tr.ConsecutiveErrors())
	})

	t.Run("info and warning entries leave counter untouched", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()

		tr.Record(domain.LevelError, "boom")
		tr.Record(domain.LevelInfo, "note")
		tr.Record(domain.LevelWarning, "hmm")

		assert.Equal(t, 1, tr.ConsecutiveErrors())
	})

	t.Run("unhealthy at threshold of five", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()

		for range 4 {
			tr.Record(domain.LevelError, "boom")
		}
		assert.True(t, tr.IsHealthy())

		tr.Record(domain.LevelError, "boom")
		assert.False(t, tr.IsHealthy())
	})

	t.Run("ResetErrors restores health", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()

		for range 7 {
			tr.Record(domain.LevelError, "boom")
		}
		require.False(t, tr.IsHealthy())

		tr.ResetErrors()

		assert.True(t, tr.IsHealthy())
		assert.Zero(t, tr.ConsecutiveErrors())
	})
}

func TestTracker_Stats(t *testing.T) {
	t.Parallel()

	t.Run("empty log yields zeroes and 0.00% rate", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()

		s := tr.Stats()

		assert.Zero(t, s.Total)
		assert.Zero(t, s.Successes)
		assert.Zero(t, s.Errors)
		assert.Equal(t, "0.00%", s.SuccessRate)
	})

	t.Run("total equals log length including info and warning", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()

		tr.Record(domain.LevelInfo, "started")
		tr.Record(domain.LevelSuccess, "ok")
		tr.Record(domain.LevelError, "boom")
		tr.Record(domain.LevelWarning, "skip")

		s := tr.Stats()

		assert.Equal(t, 4, s.Total)
		assert.Equal(t, 1, s.Successes)
		assert.Equal(t, 1, s.Errors)
		assert.LessOrEqual(t, s.Successes+s.Errors, s.Total)
	})

	t.Run("rate is over actions only, two decimals", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()

		tr.Record(domain.LevelInfo, "started")
		tr.Record(domain.LevelSuccess, "ok")
		tr.Record(domain.LevelSuccess, "ok")
		tr.Record(domain.LevelError, "boom")

		assert.Equal(t, "66.67%", tr.Stats().SuccessRate)
	})

	t.Run("all successes is 100.00%", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()

		tr.Record(domain.LevelSuccess, "ok")

		assert.Equal(t, "100.00%", tr.Stats().SuccessRate)
	})
}

func TestTracker_RecordOutcome(t *testing.T) {
	t.Parallel()

	t.Run("successful outcome appends success entry", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()
		tr.Record(domain.LevelError, "boom")

		out := domain.SucceededOutcome(domain.ActionComment, "post 1 by @x", "nice")
		rec := tr.RecordOutcome(out)

		assert.Equal(t, domain.LevelSuccess, rec.Level)
		assert.Contains(t, rec.Message, "comment action succeeded")
		assert.Zero(t, tr.ConsecutiveErrors())
	})

	t.Run("failed outcome appends error entry with detail", func(t *testing.T) {
		t.Parallel()
		tr := health.NewTracker()

		out := domain.FailedOutcome(domain.ActionMessage, "@bo", fmt.Errorf("status 500"))
		rec := tr.RecordOutcome(out)

		assert.Equal(t, domain.LevelError, rec.Level)
		assert.Contains(t, rec.Message, "message action failed")
		assert.Contains(t, rec.Message, "status 500")
		assert.Equal(t, 1, tr.ConsecutiveErrors())
	})
}

func TestTracker_Recent(t *testing.T) {
	t.Parallel()

	tr := health.NewTracker()
	tr.Record(domain.LevelInfo, "first")
	tr.Record(domain.LevelInfo, "second")
	tr.Record(domain.LevelInfo, "third")

	t.Run("newest first with limit", func(t *testing.T) {
		t.Parallel()
		recent := tr.Recent(2)

		require.Len(t, recent, 2)
		assert.Equal(t, "third", recent[0].Message)
		assert.Equal(t, "second", recent[1].Message)
	})

	t.Run("zero limit returns whole log", func(t *testing.T) {
		t.Parallel()
		assert.Len(t, tr.Recent(0), 3)
	})
}
