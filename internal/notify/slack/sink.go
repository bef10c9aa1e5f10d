// Package slack announces company and user lifecycle events in a Slack
// channel.
package slack

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/tenantry/internal/domain"
)

// API is the subset of the Slack client the sink uses.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// Sink posts lifecycle events to one channel. Other events are dropped.
type Sink struct {
	api     API
	channel string
}

// NewSink creates a Sink posting to channel through api.
func NewSink(api API, channel string) *Sink {
	return &Sink{api: api, channel: channel}
}

// NewClientSink creates a Sink backed by a real Slack client.
func NewClientSink(botToken, channel string) *Sink {
	return NewSink(slacklib.New(botToken), channel)
}

func (s *Sink) PublishEvent(ctx context.Context, ev domain.Event) error {
	if !Announced(ev.Type) {
		return nil
	}

	_, _, err := s.api.PostMessageContext(ctx, s.channel,
		slacklib.MsgOptionText(Summary(ev), false),
		slacklib.MsgOptionBlocks(BuildEventBlocks(ev)...),
	)
	if err != nil {
		return fmt.Errorf("slack.Sink.PublishEvent: %w", err)
	}

	return nil
}
