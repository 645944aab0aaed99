package config

import (
	"context"
	"errors"
	"os"

	"github.com/akeren/archive-waitlist/internal/log"
	pkgredis "github.com/akeren/archive-waitlist/pkg/redis"
	"github.com/akeren/archive-waitlist/pkg/utils"
	"github.com/go-redis/redis/v8"
)

// Cache is the shared Redis connection. It backs the active-session registry
// so a logout is honoured by every replica.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
	Client() *redis.Client
}

var ErrCacheNotConfigured = errors.New("cache host is not configured")

type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Required makes an unreachable Redis fatal instead of falling back to
	// the in-memory session registry.
	Required bool
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     utils.GetEnvOrDefault("REDIS_PORT", "6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       int(utils.GetEnvInt64("REDIS_DB", 0)),
		Required: utils.GetEnvBool("REDIS_REQUIRED", isProductionEnv(GetAppEnv())),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) NewCache(ctx context.Context, logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	conn, err := pkgredis.Connect(ctx, &pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
	})
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		return nil, err
	}

	logger.Info("Redis connected successfully", "addr", cc.Host+":"+cc.Port, "db", cc.DB)
	return conn, nil
}

// Connect returns (nil, nil) when Redis is not configured, or when it is
// unreachable and not Required.
func (cc *CacheConfig) Connect(ctx context.Context, logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		logger.Info("Redis is not configured; sessions use the in-memory registry")
		return nil, nil
	}

	cache, err := cc.NewCache(ctx, logger)
	if err != nil {
		if cc.Required {
			return nil, err
		}
		logger.Warn("Continuing without Redis; sessions use the in-memory registry")
		return nil, nil
	}

	return cache, nil
}

func GetRedisClient(cache Cache) *redis.Client {
	if cache == nil {
		return nil
	}
	return cache.Client()
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	logger.Info("Redis connection closed")
	return nil
}
