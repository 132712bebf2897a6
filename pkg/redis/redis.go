package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// MustConnect opens a Redis client and verifies the connection. The
// process cannot do anything useful without the store, so a failure is
// fatal.
func MustConnect(addr, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
	}
	return rdb
}
