package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient builds a client without contacting the server. Retries are
// disabled so a dead server fails a cache call after one dial.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		MaxRetries:   -1,
	})
}

// New builds a client and pings it. On ping failure the client is still
// returned alongside the error so callers may keep it and degrade.
func New(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := NewClient(addr, password, db)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return client, fmt.Errorf("ping redis failed: %w", err)
	}

	return client, nil
}
