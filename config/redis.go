package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

var RedisClient *redis.Client

// Every key is namespaced so the store can share a Redis instance with
// other services.
const redisKeyPrefix = "snowstorm:"

// RedisKey namespaces a cache key under the service prefix.
func RedisKey(key string) string {
	return redisKeyPrefix + key
}

// ConnectRedis establishes the Redis connection. Redis backs the affiliate
// code cache, referral click dedup and remember-me sessions; every caller
// degrades gracefully without it, so timeouts stay short and a failed
// connection only logs a warning.
func ConnectRedis() *redis.Client {
	opts, err := redisOptions()
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL: %v", err)
		return nil
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		log.Println("Remember-me tokens and referral click dedup will be disabled")
		return nil
	}

	log.Println("Connected to Redis")
	RedisClient = client
	return client
}

func redisOptions() (*redis.Options, error) {
	// A full connection URL wins over the individual settings.
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, err
		}
		tuneRedisOptions(opts)
		return opts, nil
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	db := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsed, err := strconv.Atoi(dbStr); err == nil {
			db = parsed
		}
	}

	opts := &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}
	tuneRedisOptions(opts)
	return opts, nil
}

// All Redis use here is best-effort caching, so a slow instance must not
// stall checkouts waiting on it.
func tuneRedisOptions(opts *redis.Options) {
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 1
}

// GetRedisClient returns the Redis client instance
func GetRedisClient() *redis.Client {
	return RedisClient
}

// CloseRedis closes the Redis connection
func CloseRedis() {
	if RedisClient != nil {
		RedisClient.Close()
	}
}
