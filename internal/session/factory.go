package session

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Driver selects the session store backend.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverRedis  Driver = "redis"
)

const defaultCapacity = 1000

// StoreOption is a functional option for configuring a session store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	capacity    int
	redisClient *redis.Client
	redisTTL    time.Duration
}

// WithCapacity bounds the memory driver to n live sessions.
func WithCapacity(n int) StoreOption {
	return func(c *storeConfig) {
		c.capacity = n
	}
}

// WithRedisClient sets the Redis client for the Redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the TTL on Redis session keys.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// NewStore builds a session store for the given driver.
// The Redis driver requires WithRedisClient.
func NewStore(driver Driver, opts ...StoreOption) (Store, error) {
	config := &storeConfig{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(config)
	}

	switch driver {
	case DriverMemory:
		if config.capacity <= 0 {
			return nil, ErrInvalidConfig
		}
		return &memoryStore{
			sessions: make(map[string]*ChatSession),
			capacity: config.capacity,
		}, nil

	case DriverRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		ttl := config.redisTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		return &redisStore{
			client: config.redisClient,
			ttl:    ttl,
		}, nil

	default:
		return nil, ErrInvalidDriver
	}
}
