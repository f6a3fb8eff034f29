package report

import (
	"context"
	"fmt"
)

// Messenger sends a direct message to a backend user. Implemented by
// the action executor's message-send primitive.
type Messenger interface {
	SendDirectMessage(ctx context.Context, userID int64, content string) error
}

// ChatSink delivers reports as direct messages to the observer account
// through the backend's own chat.
type ChatSink struct {
	messenger    Messenger
	observerID   int64
	observerName string
}

// NewChatSink creates a sink targeting the resolved observer.
func NewChatSink(messenger Messenger, observerID int64, observerName string) *ChatSink {
	return &ChatSink{
		messenger:    messenger,
		observerID:   observerID,
		observerName: observerName,
	}
}

// Deliver DMs the summary to the observer.
func (s *ChatSink) Deliver(ctx context.Context, summary string) error {
	if err := s.messenger.SendDirectMessage(ctx, s.observerID, summary); err != nil {
		return fmt.Errorf("report.ChatSink.Deliver: observer @%s: %w", s.observerName, err)
	}
	return nil
}

// Name identifies the sink in logs.
func (s *ChatSink) Name() string {
	return "chat"
}
