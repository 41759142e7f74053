package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/whereonearth/internal/game"
)

// Announcers delivers each announcement to every member and joins their
// errors.
type Announcers []game.Announcer

func (as Announcers) Announce(ctx context.Context, a game.Announcement) error {
	var errs []error
	for _, an := range as {
		if err := an.Announce(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RedisAnnouncer publishes announcements on a Redis channel so every
// instance's feeds see them.
type RedisAnnouncer struct {
	client  *redis.Client
	channel string
}

func NewRedisAnnouncer(client *redis.Client, channel string) *RedisAnnouncer {
	return &RedisAnnouncer{client: client, channel: channel}
}

func (r *RedisAnnouncer) Announce(ctx context.Context, a game.Announcement) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", r.channel, err)
	}
	return nil
}

// Relay copies announcements from the Redis channel into the local broker
// until ctx is done.
func (r *RedisAnnouncer) Relay(ctx context.Context, logger *slog.Logger, broker *Broker) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", r.channel, err)
	}
	logger.Info("relaying announcements", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var a game.Announcement
			if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
				logger.Warn("dropping malformed announcement", "channel", r.channel, "error", err)
				continue
			}
			broker.publish(a.Conversation, []byte(msg.Payload))
		}
	}
}

// logAnnouncer records every announcement at debug level.
type logAnnouncer struct {
	logger *slog.Logger
}

func (l logAnnouncer) Announce(_ context.Context, a game.Announcement) error {
	l.logger.Debug("announcement",
		"kind", a.Kind,
		"day_key", a.DayKey,
		"conversation", a.Conversation,
		"text", a.Text,
	)
	return nil
}

// NewAnnouncer builds the announcer the game service talks to. With Redis
// the local broker is fed by Relay; without it the broker is called
// directly.
func NewAnnouncer(logger *slog.Logger, broker *Broker, redisAnnouncer *RedisAnnouncer) game.Announcer {
	as := Announcers{logAnnouncer{logger: logger}}
	if redisAnnouncer != nil {
		return append(as, redisAnnouncer)
	}
	return append(as, broker)
}
