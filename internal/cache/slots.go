// Package cache is an optional Redis read-through cache for generated
// slot lists. Invalidation is by per-mentor generation counter: bumping
// the counter orphans every cached window for that mentor at once, and
// the orphans age out via TTL.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mentorbook/internal/slots"
)

type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewSlotCache(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *SlotCache {
	return &SlotCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached slot list for the mentor and window, if any.
// Any Redis failure is treated as a miss.
func (c *SlotCache) Get(ctx context.Context, mentorID string, from, to time.Time) ([]slots.Slot, bool) {
	key, err := c.key(ctx, mentorID, from, to)
	if err != nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Slot cache read failed")
		}
		return nil, false
	}

	var cached []slots.Slot
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Corrupt slot cache entry")
		return nil, false
	}
	return cached, true
}

// Set stores the slot list for the mentor and window.
func (c *SlotCache) Set(ctx context.Context, mentorID string, from, to time.Time, open []slots.Slot) {
	key, err := c.key(ctx, mentorID, from, to)
	if err != nil {
		return
	}
	raw, err := json.Marshal(open)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Slot cache write failed")
	}
}

// Invalidate bumps the mentor's generation counter, orphaning every
// cached window for them.
func (c *SlotCache) Invalidate(ctx context.Context, mentorID string) {
	if err := c.client.Incr(ctx, c.genKey(mentorID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("mentor_id", mentorID).Msg("Slot cache invalidation failed")
	}
}

func (c *SlotCache) key(ctx context.Context, mentorID string, from, to time.Time) (string, error) {
	gen, err := c.client.Get(ctx, c.genKey(mentorID)).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("slots:%s:%d:%s:%s", mentorID, gen, from.Format("2006-01-02"), to.Format("2006-01-02")), nil
}

func (c *SlotCache) genKey(mentorID string) string {
	return "slots:gen:" + mentorID
}
