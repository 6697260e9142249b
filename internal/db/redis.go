package db

import (
  "context"
  "fmt"
  "time"

  "github.com/redis/go-redis/v9"

  "github.com/sineva-org/sineva-backend/internal/config"
  "github.com/sineva-org/sineva-backend/internal/logger"
)

func NewRedisClient(cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
  clientLog := log.With("component", "RedisClient")
  rdb := redis.NewClient(&redis.Options{
    Addr:         cfg.Address(),
    Password:     cfg.Password,
    DB:           cfg.DB,
  })

  ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    _ = rdb.Close()
    return nil, fmt.Errorf("redis ping failed: %w", err)
  }
  clientLog.Info("Connected to Redis :)", "address", cfg.Address())
  return rdb, nil
}
