// internal/service/identity/events.go
package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"mohandz-service/internal/domain/auth"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventChannelPrefix = "auth:events:"

// Bus carries auth events between processes so that every open tab of an
// identity learns about sign-outs and profile changes made elsewhere.
type Bus interface {
	Publish(ctx context.Context, ev auth.Event) error
	Subscribe(ctx context.Context, identityID uuid.UUID) (<-chan auth.Event, func() error, error)
}

// RedisBus is a Bus over Redis pub/sub, one channel per identity.
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisBus(client *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{client: client, logger: logger}
}

func eventChannel(id uuid.UUID) string {
	return eventChannelPrefix + id.String()
}

func (b *RedisBus) Publish(ctx context.Context, ev auth.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal auth event: %w", err)
	}
	if err := b.client.Publish(ctx, eventChannel(ev.IdentityID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish auth event: %w", err)
	}
	return nil
}

// Subscribe returns a channel of events for identityID. The channel closes
// when the returned close func is called or ctx ends.
func (b *RedisBus) Subscribe(ctx context.Context, identityID uuid.UUID) (<-chan auth.Event, func() error, error) {
	ps := b.client.Subscribe(ctx, eventChannel(identityID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to auth events: %w", err)
	}

	out := make(chan auth.Event, 16)
	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev auth.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("dropping malformed auth event", zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, ps.Close, nil
}
