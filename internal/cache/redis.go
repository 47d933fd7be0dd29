package cache

import (
	"context"
	"fmt"
	"time"

	"mileage-service/common/env"
	"mileage-service/common/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func GetRedisConfig() *RedisConfig {
	ttl := time.Duration(env.GetInt("REDIS_TIME_TO_LIVE", 3600)) * time.Second
	// Statuses are keyed by calendar day, holding them longer than a day
	// only serves stale answers.
	if ttl > 24*time.Hour {
		ttl = 24 * time.Hour
	}

	return &RedisConfig{
		Host:     env.Get("REDIS_HOST", "redis"),
		Port:     env.Get("REDIS_PORT", "6379"),
		Password: env.Get("REDIS_PASSWORD", "redispassword"),
		DB:       env.GetInt("REDIS_DB", 0),
		TTL:      ttl,
	}
}

func ConnectRedis() (*redis.Client, error) {
	config := GetRedisConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis",
		zap.String("host", config.Host),
		zap.String("port", config.Port))
	return client, nil
}
