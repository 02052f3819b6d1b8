// Package redis carries the live session mirror. Every outbound message a
// session sends is also published on that session's channel, so a read-only
// observer attached to any server instance sees the same stream.
package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// observerBuffer bounds how many mirrored messages wait for a slow observer.
const observerBuffer = 64

// PubSub is the broker behind the session mirror. The tutoring side only
// publishes; observers only subscribe.
type PubSub struct {
	client *redis.Client
}

// New connects to addr and fails fast when the server does not answer a
// ping, letting serve start without a mirror instead.
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

// Ping backs the readiness probe.
func (ps *PubSub) Ping(ctx context.Context) error {
	if err := ps.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Ping: %w", err)
	}
	return nil
}

// Publish sends one encoded session event. Nobody listening is not an error.
func (ps *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ps.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Publish: %w", err)
	}
	return nil
}

// Subscribe attaches an observer to a session channel. Events arrive on the
// returned channel until ctx ends or the release func is called; the
// channel is closed either way.
func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)

	// The first reply confirms the subscription; events sent before it are lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe: confirm %s: %w", channel, err)
	}

	events := make(chan []byte, observerBuffer)
	go relay(ctx, sub.Channel(redis.WithChannelSize(observerBuffer)), events)

	release := func() { _ = sub.Close() }
	return events, release, nil
}

func relay(ctx context.Context, in <-chan *redis.Message, out chan<- []byte) {
	defer close(out)
	for {
		var msg *redis.Message
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			msg = m
		}

		select {
		case out <- []byte(msg.Payload):
		case <-ctx.Done():
			return
		}
	}
}

// SessionChannel names the mirror channel of one tutoring session.
func SessionChannel(sessionID uuid.UUID) string {
	return "session:" + sessionID.String()
}
