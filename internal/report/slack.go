package report

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"
)

// SlackAPI abstracts the subset of the Slack client used by SlackSink.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (channel, timestamp string, err error)
}

// SlackSink mirrors reports into a Slack channel. Optional; only wired
// when the Slack config is set.
type SlackSink struct {
	api     SlackAPI
	channel string
}

// NewSlackSink creates a sink posting to the given channel.
func NewSlackSink(api SlackAPI, channel string) *SlackSink {
	return &SlackSink{api: api, channel: channel}
}

// Deliver posts the summary to the configured channel.
func (s *SlackSink) Deliver(ctx context.Context, summary string) error {
	_, _, err := s.api.PostMessageContext(ctx, s.channel, slacklib.MsgOptionText(summary, false))
	if err != nil {
		return fmt.Errorf("report.SlackSink.Deliver: %w", err)
	}
	return nil
}

// Name identifies the sink in logs.
func (s *SlackSink) Name() string {
	return "slack"
}
