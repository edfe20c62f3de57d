package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceCache tracks which connections are currently watching a room.
// The hub is the source of truth for routing; this mirror exists so REST
// lookups can report viewer counts without touching the hub.
type PresenceCache interface {
	Add(ctx context.Context, roomCode, connID, username string) error
	Remove(ctx context.Context, roomCode, connID string) error
	Count(ctx context.Context, roomCode string) (int64, error)
	Usernames(ctx context.Context, roomCode string) ([]string, error)
}

type presenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPresenceCache creates a new presence cache
func NewPresenceCache(client *redis.Client) PresenceCache {
	return &presenceCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *presenceCache) viewersKey(roomCode string) string {
	return fmt.Sprintf("room:%s:viewers", roomCode)
}

func (c *presenceCache) namesKey(roomCode string) string {
	return fmt.Sprintf("room:%s:viewer_names", roomCode)
}

func (c *presenceCache) Add(ctx context.Context, roomCode, connID, username string) error {
	pipe := c.client.TxPipeline()
	pipe.SAdd(ctx, c.viewersKey(roomCode), connID)
	pipe.HSet(ctx, c.namesKey(roomCode), connID, username)
	pipe.Expire(ctx, c.viewersKey(roomCode), c.ttl)
	pipe.Expire(ctx, c.namesKey(roomCode), c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *presenceCache) Remove(ctx context.Context, roomCode, connID string) error {
	pipe := c.client.TxPipeline()
	pipe.SRem(ctx, c.viewersKey(roomCode), connID)
	pipe.HDel(ctx, c.namesKey(roomCode), connID)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *presenceCache) Count(ctx context.Context, roomCode string) (int64, error) {
	return c.client.SCard(ctx, c.viewersKey(roomCode)).Result()
}

func (c *presenceCache) Usernames(ctx context.Context, roomCode string) ([]string, error) {
	names, err := c.client.HVals(ctx, c.namesKey(roomCode)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	return names, err
}
