package config

import (
	"testing"
	"time"
)

func TestRedisKey(t *testing.T) {
	t.Parallel()

	if got := RedisKey("affiliate:AFF-ABC123"); got != "snowstorm:affiliate:AFF-ABC123" {
		t.Errorf("RedisKey = %q, want service-prefixed key", got)
	}
}

func TestRedisOptionsFromURL(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://:secret@cache.internal:6380/2")

	opts, err := redisOptions()
	if err != nil {
		t.Fatalf("redisOptions: %v", err)
	}
	if opts.Addr != "cache.internal:6380" {
		t.Errorf("Addr = %q, want cache.internal:6380", opts.Addr)
	}
	if opts.Password != "secret" || opts.DB != 2 {
		t.Errorf("credentials not taken from URL: password=%q db=%d", opts.Password, opts.DB)
	}
	if opts.ReadTimeout != 2*time.Second {
		t.Errorf("ReadTimeout = %v, want the short cache timeout", opts.ReadTimeout)
	}
}

func TestRedisOptionsInvalidURL(t *testing.T) {
	t.Setenv("REDIS_URL", "http://not-redis")

	if _, err := redisOptions(); err == nil {
		t.Fatal("expected error for non-redis URL scheme")
	}
}

func TestRedisOptionsDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_PASSWORD", "")
	t.Setenv("REDIS_DB", "")

	opts, err := redisOptions()
	if err != nil {
		t.Fatalf("redisOptions: %v", err)
	}
	if opts.Addr != "localhost:6379" {
		t.Errorf("Addr = %q, want localhost:6379", opts.Addr)
	}
	if opts.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want 1", opts.MaxRetries)
	}
}
