package cache

import (
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/redis"
)

// rate limiter counters live apart from the comment counts (DB 0)
const limiterDatabase = 2

// NewLimiterStorage returns a redis backed fiber.Storage for the API rate
// limiter, shared by all server instances. It returns nil when the cache is
// unavailable so the limiter falls back to its in-memory store.
func NewLimiterStorage() fiber.Storage {
	if !Available() {
		return nil
	}

	opts := GetClient().Options()
	host, port := "localhost", 6379
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: opts.Password,
		Database: limiterDatabase,
		Reset:    false,
	})
}
