package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-collection/internal/config"
)

// bucketScript implements a token bucket in Redis. One atomic call refills
// the bucket for the elapsed time, takes a token if available, and returns
// {allowed, remaining, retry_ms}.
var bucketScript = redis.NewScript(`
local tokens, stamp = unpack(redis.call('HMGET', KEYS[1], 't', 'ts'))
local now = tonumber(ARGV[1])
local cap = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local period = tonumber(ARGV[4])

tokens = tonumber(tokens)
stamp = tonumber(stamp)
if tokens == nil or stamp == nil then
  tokens = cap
  stamp = now
end

if period > 0 and refill > 0 then
  local steps = math.floor(math.max(0, now - stamp) / period)
  if steps > 0 then
    tokens = math.min(cap, tokens + steps * refill)
    stamp = stamp + steps * period
  end
end

local allowed = 0
local retry = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.max(0, period - (now - stamp))
end

redis.call('HMSET', KEYS[1], 't', tokens, 'ts', stamp)
redis.call('EXPIRE', KEYS[1], ARGV[5])
return {allowed, tokens, retry}
`)

// takeTokenFunc asks the bucket behind key for one token and reports whether
// the request may proceed, how many tokens remain and how long to wait when
// denied. In production this is one atomic Lua call against Redis.
type takeTokenFunc func(ctx context.Context, key string) (allowed bool, remaining, retryMs int64, err error)

// NewTokenBucket returns a distributed rate limiter applied to the auth
// endpoints to slow down credential stuffing. Redis errors fail open: an
// unavailable cache must not take the API down with it.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	take := func(ctx context.Context, key string) (bool, int64, int64, error) {
		res, err := bucketScript.Run(ctx, rdb, []string{key},
			time.Now().UnixMilli(),
			cfg.Capacity,
			cfg.RefillTokens,
			cfg.RefillInterval.Milliseconds(),
			int64(cfg.TTL/time.Second),
		).Int64Slice()
		if err != nil {
			return false, 0, 0, err
		}
		if len(res) != 3 {
			return false, 0, 0, fmt.Errorf("unexpected limiter result: %v", res)
		}
		return res[0] == 1, res[1], res[2], nil
	}
	return newTokenBucketMiddleware(cfg, take)
}

func newTokenBucketMiddleware(cfg config.RateLimitConfig, take takeTokenFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			allowed, remaining, retryMs, err := take(c.Request().Context(), key)
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("rate limiter unavailable for %s: %v", key, err)
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}

			if !allowed {
				secs := int((retryMs + 999) / 1000)
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// rateKey derives the bucket key per the configured strategy. The default
// buckets by client IP and route so one abusive client cannot starve the
// login endpoint for everyone.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := "anon"
	if v := c.Get("user_id"); v != nil {
		uid = fmt.Sprint(v)
	}
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default: // ip_route
		parts = append(parts, "ip", ip, "route", route)
	}
	return strings.Join(parts, ":")
}
