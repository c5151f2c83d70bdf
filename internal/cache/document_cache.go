package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"slidedeck/internal/model"
)

const (
	DefaultDocumentTTL = 30 * time.Minute
	// DefaultRetryAfter is how long reads and writes skip Redis after a
	// connection failure.
	DefaultRetryAfter = 5 * time.Second
)

// ErrUnavailable is returned without contacting Redis while a recent
// failure is cooling down.
var ErrUnavailable = errors.New("document cache unavailable")

// DocumentCache stores serialized documents under document:{id}.
type DocumentCache struct {
	client     *redisv9.Client
	ttl        time.Duration
	retryAfter time.Duration
	now        func() time.Time
	downUntil  atomic.Int64
}

func NewDocumentCache(client *redisv9.Client, ttl time.Duration) *DocumentCache {
	if ttl <= 0 {
		ttl = DefaultDocumentTTL
	}
	return &DocumentCache{client: client, ttl: ttl, retryAfter: DefaultRetryAfter, now: time.Now}
}

// MarkUnavailable makes Get and Set skip Redis until the retry window passes.
func (c *DocumentCache) MarkUnavailable() {
	c.downUntil.Store(c.now().Add(c.retryAfter).UnixNano())
}

func (c *DocumentCache) available() bool {
	return c.now().UnixNano() >= c.downUntil.Load()
}

// observe opens the retry window on connection errors. Misses and caller
// cancellations say nothing about the server.
func (c *DocumentCache) observe(ctx context.Context, err error) {
	if err == nil || errors.Is(err, redisv9.Nil) || ctx.Err() != nil {
		return
	}
	c.MarkUnavailable()
}

func (c *DocumentCache) TTL() time.Duration {
	return c.ttl
}

// Get reports a miss as (nil, false, nil).
func (c *DocumentCache) Get(ctx context.Context, documentID string) (*model.Document, bool, error) {
	if !c.available() {
		return nil, false, ErrUnavailable
	}
	raw, err := c.client.Get(ctx, Key(documentID)).Bytes()
	c.observe(ctx, err)
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get document failed: %w", err)
	}

	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached document failed: %w", err)
	}
	return &doc, true, nil
}

func (c *DocumentCache) Set(ctx context.Context, doc *model.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document cache failed: %w", err)
	}
	if !c.available() {
		return ErrUnavailable
	}
	err = c.client.Set(ctx, Key(doc.DocumentID), payload, c.ttl).Err()
	c.observe(ctx, err)
	if err != nil {
		return fmt.Errorf("redis set document failed: %w", err)
	}
	return nil
}

// Delete always contacts Redis so a recovered server never keeps a removed
// document.
func (c *DocumentCache) Delete(ctx context.Context, documentID string) error {
	err := c.client.Del(ctx, Key(documentID)).Err()
	c.observe(ctx, err)
	if err != nil {
		return fmt.Errorf("redis delete document failed: %w", err)
	}
	return nil
}

// Ping always contacts Redis; a successful ping closes the retry window.
func (c *DocumentCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.observe(ctx, err)
		return fmt.Errorf("ping redis failed: %w", err)
	}
	c.downUntil.Store(0)
	return nil
}

func Key(documentID string) string {
	return "document:" + documentID
}
