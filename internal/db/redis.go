package db

import (
	"context"
	"fmt"
	"time"

	"task_tracker/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// ConnectRedis creates a client and pings the server.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		MinIdleConns:    2,
		DialTimeout:     5 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	logger.Info("redis connected", "addr", addr, "db", db)
	return client, nil
}
