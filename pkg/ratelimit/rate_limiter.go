package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type LimitType string

const (
	LimitTypeDefault LimitType = "default"
	LimitTypeBrowse  LimitType = "browse"
	LimitTypeBooking LimitType = "booking"
	LimitTypeHealth  LimitType = "health"
)

type Config struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	BrowseRequests  int           `json:"browse_requests"`
	BookingRequests int           `json:"booking_requests"`
	HealthRequests  int           `json:"health_requests"`
}

type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// RateLimiter enforces per-IP sliding-window limits backed by Redis sorted
// sets, so limits hold across multiple server instances.
type RateLimiter struct {
	client *redis.Client
	config *Config
}

func NewRateLimiter(client *redis.Client, config *Config) *RateLimiter {
	return &RateLimiter{client: client, config: config}
}

var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_seconds = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local current_count = redis.call('ZCARD', key)

	if current_count >= limit then
		redis.call('EXPIRE', key, window_seconds)
		return {current_count, limit - current_count}
	end

	redis.call('ZADD', key, now, now)
	redis.call('EXPIRE', key, window_seconds)
	return {current_count + 1, limit - current_count - 1}
`)

func (r *RateLimiter) IsAllowed(ctx context.Context, clientIP string, limitType LimitType) (*Result, error) {
	limit := r.getLimit(limitType)
	if !r.config.Enabled {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: time.Now().Add(r.config.WindowDuration).Unix(),
		}, nil
	}

	key := fmt.Sprintf("shipline:ratelimit:%s:%s", clientIP, limitType)
	return r.checkLimit(ctx, key, limit)
}

func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-r.config.WindowDuration)

	result, err := slidingWindowScript.Run(ctx, r.client, []string{key},
		windowStart.UnixNano(),
		now.UnixNano(),
		limit,
		int(r.config.WindowDuration.Seconds()),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return nil, fmt.Errorf("unexpected rate limit script response")
	}
	currentCount, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   int(currentCount) <= limit,
		Limit:     limit,
		Remaining: int(remaining),
		ResetTime: now.Add(r.config.WindowDuration).Unix(),
	}, nil
}

func (r *RateLimiter) getLimit(limitType LimitType) int {
	switch limitType {
	case LimitTypeBrowse:
		return r.config.BrowseRequests
	case LimitTypeBooking:
		return r.config.BookingRequests
	case LimitTypeHealth:
		return r.config.HealthRequests
	default:
		return r.config.DefaultRequests
	}
}
