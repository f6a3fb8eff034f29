// Package action performs the engine's two action categories end to
// end and converts every failure into a result object, so the
// scheduling loop never observes an error from an action.
package action

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/ambler/internal/domain"
	"github.com/gosuda/ambler/internal/health"
	"github.com/gosuda/ambler/internal/selector"
)

// API abstracts the subset of the backend client used by the Executor.
// This allows testing without real HTTP calls.
type API interface {
	OpenDirectChat(ctx context.Context, otherUserID int64) (chatID string, err error)
	SendChatMessage(ctx context.Context, chatID, content string) error
	CreateComment(ctx context.Context, postID int64, content string) error
}

// Selector provides action candidates.
type Selector interface {
	CandidateUsers(ctx context.Context) ([]domain.User, error)
	CandidatePosts(ctx context.Context) ([]domain.Post, error)
}

// Picker draws one element uniformly at random. Variable so tests can
// pin the draw.
type Picker[T any] func(items []T) (T, bool)

// Executor runs message and comment actions. Every run yields either
// an ActionOutcome or nil when no eligible candidate existed; errors
// never escape. Success and failure drive the tracker's
// consecutive-error counter as a side effect.
type Executor struct {
	api      API
	selector Selector
	tracker  *health.Tracker

	pickUser Picker[domain.User]
	pickPost Picker[domain.Post]
}

// Option customizes an Executor.
type Option func(*Executor)

// WithUserPicker replaces the uniform user draw. Tests use this to pin
// the selection.
func WithUserPicker(pick Picker[domain.User]) Option {
	return func(e *Executor) { e.pickUser = pick }
}

// WithPostPicker replaces the uniform post draw.
func WithPostPicker(pick Picker[domain.Post]) Option {
	return func(e *Executor) { e.pickPost = pick }
}

// NewExecutor creates an Executor wired to the given collaborators.
func NewExecutor(api API, sel Selector, tracker *health.Tracker, opts ...Option) *Executor {
	e := &Executor{
		api:      api,
		selector: sel,
		tracker:  tracker,
		pickUser: selector.PickRandom[domain.User],
		pickPost: selector.PickRandom[domain.Post],
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SendDirectMessage resolves the direct channel with the user and
// submits one text message. This is the shared message-send primitive;
// the reporter uses it too.
func (e *Executor) SendDirectMessage(ctx context.Context, userID int64, content string) error {
	chatID, err := e.api.OpenDirectChat(ctx, userID)
	if err != nil {
		return fmt.Errorf("action.Executor.SendDirectMessage: resolve channel: %w", err)
	}

	if err := e.api.SendChatMessage(ctx, chatID, content); err != nil {
		return fmt.Errorf("action.Executor.SendDirectMessage: submit: %w", err)
	}

	return nil
}

// RunMessage performs one direct-message action against a randomly
// chosen user. A nil result means the tick was skipped for lack of
// candidates.
func (e *Executor) RunMessage(ctx context.Context) *domain.ActionOutcome {
	users, err := e.selector.CandidateUsers(ctx)
	if err != nil {
		return e.fail(domain.ActionMessage, "user selection", err)
	}

	target, ok := e.pickUser(users)
	if !ok {
		e.skip(domain.ActionMessage, "no eligible users found")
		return nil
	}

	descriptor := "@" + target.Username
	content := randomTemplate(messageTemplates)

	if err := e.SendDirectMessage(ctx, target.ID, content); err != nil {
		return e.fail(domain.ActionMessage, descriptor, err)
	}

	return e.succeed(domain.ActionMessage, descriptor, content)
}

// RunComment performs one comment action against a randomly chosen
// post. A nil result means the tick was skipped for lack of candidates.
func (e *Executor) RunComment(ctx context.Context) *domain.ActionOutcome {
	posts, err := e.selector.CandidatePosts(ctx)
	if err != nil {
		return e.fail(domain.ActionComment, "post selection", err)
	}

	target, ok := e.pickPost(posts)
	if !ok {
		e.skip(domain.ActionComment, "no eligible posts found")
		return nil
	}

	descriptor := fmt.Sprintf("post %d by @%s", target.ID, target.Username)
	content := randomTemplate(commentTemplates)

	if err := e.api.CreateComment(ctx, target.ID, content); err != nil {
		return e.fail(domain.ActionComment, descriptor, err)
	}

	return e.succeed(domain.ActionComment, descriptor, content)
}

func (e *Executor) succeed(kind domain.ActionKind, target, content string) *domain.ActionOutcome {
	outcome := domain.SucceededOutcome(kind, target, content)
	e.tracker.RecordOutcome(outcome)
	log.Info().Str("action", string(kind)).Str("target", target).Msg("action succeeded")
	return &outcome
}

func (e *Executor) fail(kind domain.ActionKind, target string, err error) *domain.ActionOutcome {
	outcome := domain.FailedOutcome(kind, target, err)
	e.tracker.RecordOutcome(outcome)
	log.Error().Err(err).Str("action", string(kind)).Str("target", target).Msg("action failed")
	return &outcome
}

func (e *Executor) skip(kind domain.ActionKind, reason string) {
	e.tracker.Record(domain.LevelWarning, fmt.Sprintf("%s action skipped: %s", kind, reason))
	log.Warn().Str("action", string(kind)).Msg(reason)
}
