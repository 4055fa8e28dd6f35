package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "wmsd:session:"

// RedisMirror stores serialized sessions in redis with the session TTL.
type RedisMirror struct {
	rdb *redis.Client
}

func NewRedisMirror(rdb *redis.Client) *RedisMirror {
	return &RedisMirror{rdb: rdb}
}

func (r *RedisMirror) Save(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, redisKeyPrefix+id, data, ttl).Err()
}

func (r *RedisMirror) Load(ctx context.Context, id string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	return data, err
}

func (r *RedisMirror) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, redisKeyPrefix+id).Err()
}
