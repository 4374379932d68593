package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrsingh-rishi/storybook-narrator/model"
)

const (
	redisPrefix   = "narrator:"
	redisRunKey   = redisPrefix + "run:"
	redisIndexKey = redisPrefix + "runs"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL expires run records; zero keeps them forever.
	TTL time.Duration
}

// Redis keeps each run as a JSON string plus a sorted-set index by
// creation time.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{client: client, ttl: cfg.TTL}, nil
}

func (r *Redis) Save(ctx context.Context, run model.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, redisRunKey+run.ID, data, r.ttl)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(run.CreatedAt.UnixNano()), Member: run.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save run %s: %w", run.ID, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (model.Run, error) {
	data, err := r.client.Get(ctx, redisRunKey+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Run{}, fmt.Errorf("redis get: %w", err)
	}

	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return model.Run{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, nil
}

// List drops index entries whose records have expired.
func (r *Redis) List(ctx context.Context, limit int) ([]model.Run, error) {
	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}
	ids, err := r.client.ZRevRange(ctx, redisIndexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisRunKey + id
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	runs := make([]model.Run, 0, len(vals))
	var expired []any
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var run model.Run
		if err := json.Unmarshal([]byte(s), &run); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", ids[i], err)
		}
		runs = append(runs, run)
	}
	if len(expired) > 0 {
		r.client.ZRem(ctx, redisIndexKey, expired...)
	}
	return runs, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
