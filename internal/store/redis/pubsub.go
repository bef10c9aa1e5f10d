package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gosuda/tenantry/internal/domain"
)

type PubSub struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &PubSub{client: client}, nil
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

func (ps *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ps.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Publish: %w", err)
	}
	return nil
}

// PublishEvent sends ev to its company channel. User events are also sent to
// the user's own channel.
func (ps *PubSub) PublishEvent(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis.PubSub.PublishEvent: marshal: %w", err)
	}

	for _, channel := range EventChannels(ev) {
		if err := ps.Publish(ctx, channel, payload); err != nil {
			return fmt.Errorf("redis.PubSub.PublishEvent: %w", err)
		}
	}

	return nil
}

func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

// SubscribeEvents decodes a company or user channel into events. Payloads
// that do not decode are dropped.
func (ps *PubSub) SubscribeEvents(ctx context.Context, channel string) (<-chan domain.Event, func(), error) {
	raw, cleanup, err := ps.Subscribe(ctx, channel)
	if err != nil {
		return nil, nil, fmt.Errorf("redis.PubSub.SubscribeEvents: %w", err)
	}

	out := make(chan domain.Event, 64)
	go func() {
		defer close(out)
		for payload := range raw {
			ev, ok := DecodeEvent(payload)
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup, nil
}

// DecodeEvent parses a published payload.
func DecodeEvent(payload []byte) (domain.Event, bool) {
	var ev domain.Event
	if err := json.Unmarshal(payload, &ev); err != nil || ev.Type == "" {
		return domain.Event{}, false
	}
	return ev, true
}

// EventChannels lists the channels an event is published on.
func EventChannels(ev domain.Event) []string {
	channels := []string{CompanyChannel(ev.CompanyID)}
	if ev.Type.IsUserEvent() && ev.SubjectID != uuid.Nil {
		channels = append(channels, UserChannel(ev.CompanyID, ev.SubjectID))
	}
	return channels
}

// CompanyChannel returns the Redis channel name for company-wide events.
func CompanyChannel(companyID uuid.UUID) string {
	return "company:" + companyID.String()
}

// UserChannel returns the Redis channel name for events about one user.
func UserChannel(companyID, userID uuid.UUID) string {
	return "user:" + companyID.String() + ":" + userID.String()
}
