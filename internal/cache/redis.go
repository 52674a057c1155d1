// Package cache implements activity.StreamCache on Redis. Every cached page
// is stored under a key derived from the current generation of each subject
// (user, video, team) it depends on; writers bump the generations, which
// orphans the stale pages until their TTL expires.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rpggio/captionlog/internal/domain/activity"
)

// Connect parses url, connects and pings.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// RedisCache is a generation-keyed stream page cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// New creates a RedisCache. Pages expire after ttl.
func New(client *redis.Client, ttl time.Duration, prefix string, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if prefix == "" {
		prefix = "captionlog"
	}
	return &RedisCache{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

func (c *RedisCache) genKey(subject string) string {
	return c.prefix + ":gen:" + subject
}

// Load returns the cached page for key under the current generations of
// subjects. On a miss the returned token names the slot to Save into; it is
// computed before the caller queries, so a write racing the query bumps a
// generation and the saved page is never served.
func (c *RedisCache) Load(ctx context.Context, subjects []string, key string) (*activity.Page, string, bool) {
	genKeys := make([]string, len(subjects))
	for i, s := range subjects {
		genKeys[i] = c.genKey(s)
	}

	var gens []any
	if len(genKeys) > 0 {
		var err error
		gens, err = c.client.MGet(ctx, genKeys...).Result()
		if err != nil {
			c.logger.Warn("stream cache generation read failed", "error", err)
			return nil, "", false
		}
	}

	var b strings.Builder
	b.WriteString(key)
	for i, s := range subjects {
		gen := "0"
		if v, ok := gens[i].(string); ok {
			gen = v
		}
		fmt.Fprintf(&b, "|%s=%s", s, gen)
	}
	sum := sha256.Sum256([]byte(b.String()))
	token := c.prefix + ":page:" + hex.EncodeToString(sum[:])

	data, err := c.client.Get(ctx, token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, token, false
	}
	if err != nil {
		c.logger.Warn("stream cache read failed", "error", err)
		return nil, "", false
	}
	var page activity.Page
	if err := json.Unmarshal(data, &page); err != nil {
		c.logger.Warn("stream cache entry corrupt", "error", err)
		return nil, token, false
	}
	return &page, token, true
}

// Save stores page under token.
func (c *RedisCache) Save(ctx context.Context, token string, page *activity.Page) {
	if token == "" || page == nil {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		c.logger.Warn("stream cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, token, data, c.ttl).Err(); err != nil {
		c.logger.Warn("stream cache write failed", "error", err)
	}
}

// Invalidate bumps the generation of every subject.
func (c *RedisCache) Invalidate(ctx context.Context, subjects ...string) error {
	if len(subjects) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, s := range subjects {
			pipe.Incr(ctx, c.genKey(s))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bumping stream generations: %w", err)
	}
	return nil
}

var _ activity.StreamCache = (*RedisCache)(nil)
