package config

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects the optional history cache. An empty address means
// the cache is disabled and nil is returned without error.
func InitRedis(addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	var client *redis.Client
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
