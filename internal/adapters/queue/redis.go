package queue

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// ParseRedisURL turns a redis:// URL into the client options both the broker
// and the result cache connect with
func ParseRedisURL(url string) (asynq.RedisClientOpt, *redis.Options, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return asynq.RedisClientOpt{}, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	}, opts, nil
}

// NewRedisClient opens the plain go-redis connection used by the result cache
func NewRedisClient(opts *redis.Options) *redis.Client {
	return redis.NewClient(opts)
}
