package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the redis client used as the secondary session channel.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

const backupPrefix = "session:backup:"

// SessionBackup returns the mirrored identity for key, or "" when absent.
// The cookie remains authoritative; this channel is consulted only when
// the cookie yields nothing.
func (r *Redis) SessionBackup(ctx context.Context, key string) string {
	if r == nil || r.Client == nil {
		return ""
	}
	val, err := r.Client.Get(ctx, backupPrefix+key).Result()
	if err != nil {
		return ""
	}
	return val
}

// SaveSessionBackup mirrors identity under key for ttl. Best effort.
func (r *Redis) SaveSessionBackup(ctx context.Context, key, identity string, ttl time.Duration) error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Set(ctx, backupPrefix+key, identity, ttl).Err()
}

// DropSessionBackup removes the mirrored identity for key.
func (r *Redis) DropSessionBackup(ctx context.Context, key string) error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Del(ctx, backupPrefix+key).Err()
}
