package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rent:webhook:"

// WebhookDeduper remembers processed gateway deliveries in redis for a limited time.
type WebhookDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "could not reach redis at %s", addr)
	}
	return client, nil
}

func NewWebhookDeduper(client *redis.Client, ttl time.Duration) *WebhookDeduper {
	return &WebhookDeduper{client: client, ttl: ttl}
}

func (d *WebhookDeduper) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, errors.Wrap(err, "could not read webhook marker")
	}
	return n > 0, nil
}

func (d *WebhookDeduper) Remember(ctx context.Context, key string) error {
	err := d.client.Set(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), d.ttl).Err()
	return errors.Wrap(err, "could not write webhook marker")
}
