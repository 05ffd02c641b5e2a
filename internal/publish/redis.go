package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis opens a client and verifies it with a ping.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("publish.ConnectRedis: %w", err)
	}
	return rdb, nil
}

// Redis publishes envelopes on channel "<prefix>:<topic>". Gateways holding
// client connections subscribe to the channels of their users.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	return &Redis{
		rdb:    rdb,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *Redis) Channel(topic string) string {
	if r.prefix == "" {
		return topic
	}
	return r.prefix + ":" + topic
}

func (r *Redis) Publish(ctx context.Context, topic, event string, payload any) error {
	data, err := Encode(Envelope{
		Event:       event,
		Topic:       topic,
		Payload:     payload,
		PublishedAt: r.now(),
	})
	if err != nil {
		return fmt.Errorf("publish.Redis.Publish: %w", err)
	}

	err = r.rdb.Publish(ctx, r.Channel(topic), data).Err()
	if err != nil {
		return fmt.Errorf("publish.Redis.Publish: %s on %s: %w", event, topic, err)
	}
	return nil
}

func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}
