package action_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/ambler/internal/action"
	"github.com/gosuda/ambler/internal/domain"
	"github.com/gosuda/ambler/internal/health"
)

type mockAPI struct {
	openChatID  string
	openChatErr error
	sendErr     error
	commentErr  error

	openedWith    int64
	sentToChat    string
	sentContent   string
	commentedPost int64
}

func (m *mockAPI) OpenDirectChat(_ context.Context, otherUserID int64) (string, error) {
	m.openedWith = otherUserID
	return m.openChatID, m.openChatErr
}

func (m *mockAPI) SendChatMessage(_ context.Context, chatID, content string) error {
	m.sentToChat = chatID
	m.sentContent = content
	return m.sendErr
}

func (m *mockAPI) CreateComment(_ context.Context, postID int64, _ string) error {
	m.commentedPost = postID
	return m.commentErr
}

type mockSelector struct {
	users    []domain.User
	usersErr error
	posts    []domain.Post
	postsErr error
}

func (m *mockSelector) CandidateUsers(context.Context) ([]domain.User, error) {
	return m.users, m.usersErr
}

func (m *mockSelector) CandidatePosts(context.Context) ([]domain.Post, error) {
	return m.posts, m.postsErr
}

// pinFirst pins the random draw to the first element.
func pinFirst[T any](items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[0], true
}

func TestExecutor_RunMessage(t *testing.T) {
	t.Parallel()

	t.Run("sends a templated message to the chosen user", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{openChatID: "31"}
		sel := &mockSelector{users: []domain.User{{ID: 7, Username: "bob"}}}
		tracker := health.NewTracker()
		exec := action.NewExecutor(api, sel, tracker, action.WithUserPicker(pinFirst[domain.User]))

		outcome := exec.RunMessage(t.Context())

		require.NotNil(t, outcome)
		assert.True(t, outcome.Success)
		assert.Equal(t, domain.ActionMessage, outcome.Kind)
		assert.Equal(t, "@bob", outcome.Target)
		assert.Contains(t, action.MessageTemplates(), outcome.Content)

		assert.Equal(t, int64(7), api.openedWith)
		assert.Equal(t, "31", api.sentToChat)
		assert.Equal(t, outcome.Content, api.sentContent)

		assert.Zero(t, tracker.ConsecutiveErrors())
		assert.Equal(t, 1, tracker.Stats().Successes)
	})

	t.Run("selection failure becomes a failed outcome", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{}
		sel := &mockSelector{usersErr: errors.New("search exploded")}
		tracker := health.NewTracker()
		exec := action.NewExecutor(api, sel, tracker)

		outcome := exec.RunMessage(t.Context())

		require.NotNil(t, outcome)
		assert.False(t, outcome.Success)
		assert.Equal(t, "user selection", outcome.Target)
		assert.Contains(t, outcome.ErrorDetail, "search exploded")
		assert.Equal(t, 1, tracker.ConsecutiveErrors())
	})

	t.Run("send failure becomes a failed outcome against the target", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{openChatID: "31", sendErr: errors.New("channel closed")}
		sel := &mockSelector{users: []domain.User{{ID: 7, Username: "bob"}}}
		tracker := health.NewTracker()
		exec := action.NewExecutor(api, sel, tracker, action.WithUserPicker(pinFirst[domain.User]))

		outcome := exec.RunMessage(t.Context())

		require.NotNil(t, outcome)
		assert.False(t, outcome.Success)
		assert.Equal(t, "@bob", outcome.Target)
		assert.Contains(t, outcome.ErrorDetail, "channel closed")
		assert.Equal(t, 1, tracker.ConsecutiveErrors())
	})

	t.Run("no candidates records a warning and yields no outcome", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{}
		sel := &mockSelector{}
		tracker := health.NewTracker()
		exec := action.NewExecutor(api, sel, tracker)

		outcome := exec.RunMessage(t.Context())

		assert.Nil(t, outcome)
		assert.Zero(t, tracker.ConsecutiveErrors(), "a skipped tick is not an error")

		recent := tracker.Recent(1)
		require.Len(t, recent, 1)
		assert.Equal(t, domain.LevelWarning, recent[0].Level)
		assert.Equal(t, "message action skipped: no eligible users found", recent[0].Message)
	})
}

func TestExecutor_RunComment(t *testing.T) {
	t.Parallel()

	t.Run("comments on the chosen post", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{}
		sel := &mockSelector{posts: []domain.Post{{ID: 55, UserID: 3, Username: "alice"}}}
		tracker := health.NewTracker()
		exec := action.NewExecutor(api, sel, tracker, action.WithPostPicker(pinFirst[domain.Post]))

		outcome := exec.RunComment(t.Context())

		require.NotNil(t, outcome)
		assert.True(t, outcome.Success)
		assert.Equal(t, domain.ActionComment, outcome.Kind)
		assert.Equal(t, "post 55 by @alice", outcome.Target)
		assert.Contains(t, action.CommentTemplates(), outcome.Content)
		assert.Equal(t, int64(55), api.commentedPost)
	})

	t.Run("comment failure becomes a failed outcome", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{commentErr: errors.New("post locked")}
		sel := &mockSelector{posts: []domain.Post{{ID: 55, UserID: 3, Username: "alice"}}}
		tracker := health.NewTracker()
		exec := action.NewExecutor(api, sel, tracker, action.WithPostPicker(pinFirst[domain.Post]))

		outcome := exec.RunComment(t.Context())

		require.NotNil(t, outcome)
		assert.False(t, outcome.Success)
		assert.Equal(t, "post 55 by @alice", outcome.Target)
		assert.Contains(t, outcome.ErrorDetail, "post locked")
		assert.Equal(t, 1, tracker.ConsecutiveErrors())
	})

	t.Run("no candidates records a warning and yields no outcome", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{}
		sel := &mockSelector{}
		tracker := health.NewTracker()
		exec := action.NewExecutor(api, sel, tracker)

		outcome := exec.RunComment(t.Context())

		assert.Nil(t, outcome)
		recent := tracker.Recent(1)
		require.Len(t, recent, 1)
		assert.Equal(t, "comment action skipped: no eligible posts found", recent[0].Message)
	})
}

func TestExecutor_SendDirectMessage(t *testing.T) {
	t.Parallel()

	t.Run("resolves the channel before sending", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{openChatID: "9"}
		exec := action.NewExecutor(api, &mockSelector{}, health.NewTracker())

		err := exec.SendDirectMessage(t.Context(), 4, "status report")

		require.NoError(t, err)
		assert.Equal(t, int64(4), api.openedWith)
		assert.Equal(t, "9", api.sentToChat)
		assert.Equal(t, "status report", api.sentContent)
	})

	t.Run("channel resolution failure is returned", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{openChatErr: errors.New("no such user")}
		exec := action.NewExecutor(api, &mockSelector{}, health.NewTracker())

		err := exec.SendDirectMessage(t.Context(), 4, "status report")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such user")
		assert.Empty(t, api.sentToChat, "nothing is sent when the channel is unknown")
	})
}
