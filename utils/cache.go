// File: utils/cache.go
package utils

import (
	"context"
	"frontdesk/config"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	// SessionCacheClient holds the live dialogue sessions.
	SessionCacheClient *redis.Client
	// ReminderCacheClient is the dedicated client asynq shares for
	// reminder scheduling.
	ReminderCacheClient *redis.Client
)

// InitSessionCache initializes the Redis client for dialogue session state.
func InitSessionCache() {
	SessionCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := SessionCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Sessions): %v", err)
	}
}

// GetSessionCacheClient returns the session state client.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		InitSessionCache()
	}
	return SessionCacheClient
}

// InitReminderCache initializes the Redis client backing the reminder queue.
func InitReminderCache() {
	ReminderCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := ReminderCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Reminders): %v", err)
	}
}

// GetReminderCacheClient returns the Redis client backing the reminder queue.
func GetReminderCacheClient() *redis.Client {
	if ReminderCacheClient == nil {
		InitReminderCache()
	}
	return ReminderCacheClient
}
