package directory

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hostcampaign/site/internal/pkg/distlock"
	"github.com/hostcampaign/site/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	lookupKeyPrefix = "mp:lookup:"
	emailKeyPrefix  = "mp:email:"
	fillLockPrefix  = "mp:fill:"
	fillLockTTL     = 30 * time.Second
)

// Cache stores resolved members in Redis. A nil *Cache is a valid no-op
// cache, so the directory works without Redis.
type Cache struct {
	client   *redis.Client
	ttl      time.Duration
	pollWait time.Duration
}

// NewCache returns a cache keeping entries for ttl, or nil when client is nil.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{client: client, ttl: ttl, pollWait: 2 * time.Second}
}

// Get returns the cached member for a normalised postcode.
func (c *Cache) Get(ctx context.Context, pc string) (Member, bool) {
	if c == nil {
		return Member{}, false
	}
	data, err := c.client.Get(ctx, lookupKeyPrefix+pc).Bytes()
	if err == redis.Nil {
		return Member{}, false
	}
	if err != nil {
		logger.Warn("directory: cache read failed", "postcode", pc, "error", err)
		return Member{}, false
	}
	var m Member
	if err := json.Unmarshal(data, &m); err != nil {
		logger.Warn("directory: cache entry corrupt", "postcode", pc, "error", err)
		return Member{}, false
	}
	return m, true
}

// Put stores m under its postcode and indexes its email by name.
func (c *Cache) Put(ctx context.Context, m Member) {
	if c == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	pipe := c.client.Pipeline()
	pipe.Set(ctx, lookupKeyPrefix+NormalizePostcode(m.Postcode), data, c.ttl)
	if m.Email != "" {
		pipe.Set(ctx, emailKeyPrefix+nameKey(m.Name), m.Email, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("directory: cache write failed", "postcode", m.Postcode, "error", err)
	}
}

// EmailFor returns the cached address of the MP named name.
func (c *Cache) EmailFor(ctx context.Context, name string) (string, bool) {
	if c == nil || strings.TrimSpace(name) == "" {
		return "", false
	}
	email, err := c.client.Get(ctx, emailKeyPrefix+nameKey(name)).Result()
	if err != nil {
		return "", false
	}
	return email, true
}

// LockFill takes the per-postcode fill lock. held is false when another
// process is filling; unlock is always safe to call.
func (c *Cache) LockFill(ctx context.Context, pc string) (unlock func(), held bool) {
	if c == nil {
		return func() {}, true
	}
	lock := distlock.NewLock(c.client, fillLockPrefix+pc, fillLockTTL)
	ok, err := lock.Acquire(ctx)
	if err != nil {
		logger.Warn("directory: fill lock failed", "postcode", pc, "error", err)
		return func() {}, false
	}
	if !ok {
		return func() {}, false
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Debug("directory: fill lock release", "postcode", pc, "error", err)
		}
	}, true
}

// WaitFor polls for another process's fill of pc.
func (c *Cache) WaitFor(ctx context.Context, pc string) (Member, bool) {
	if c == nil {
		return Member{}, false
	}
	deadline := time.NewTimer(c.pollWait)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return Member{}, false
		case <-deadline.C:
			return Member{}, false
		case <-tick.C:
			if m, ok := c.Get(ctx, pc); ok {
				return m, true
			}
		}
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
