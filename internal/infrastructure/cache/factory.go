package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/infrastructure/auth"
	"github.com/shivfurniture/erp/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores bundles the state that must be shared between API instances: the
// idempotency claims of gateway receipts and the revoked token list. Both
// use one Redis client when Redis is configured.
type Stores struct {
	Idempotency shared.IdempotencyStore
	Blacklist   auth.TokenBlacklist
	Backend     string
	client      *redis.Client
}

// Close releases the Redis client, if any
func (s *Stores) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// StoreFactory creates shared stores based on configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	pingTimeout           time.Duration
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithPingTimeout bounds the Redis connectivity check
func WithPingTimeout(d time.Duration) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.pingTimeout = d
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		pingTimeout:           5 * time.Second,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStores connects to Redis and builds both stores over one client
func (f *StoreFactory) CreateRedisStores(ctx context.Context) (*Stores, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.RedisAddr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, f.pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", f.redisConfig.RedisAddr(), err)
	}

	return &Stores{
		Idempotency: NewRedisIdempotencyStore(client),
		Blacklist:   auth.NewRedisTokenBlacklist(client),
		Backend:     "redis",
		client:      client,
	}, nil
}

// CreateInMemoryStores creates in-memory stores.
// WARNING: in-memory stores do not share state across process instances, so
// a gateway payment could be recorded twice by two instances racing on it
// (the unique gateway_payment_id column still rejects the second insert).
func (f *StoreFactory) CreateInMemoryStores() *Stores {
	return &Stores{
		Idempotency: NewInMemoryIdempotencyStore(),
		Blacklist:   auth.NewInMemoryTokenBlacklist(),
		Backend:     "memory",
	}
}

// CreateStores uses Redis when a host is configured and falls back to memory
// when Redis cannot be reached and fallback is allowed
func (f *StoreFactory) CreateStores(ctx context.Context) (*Stores, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory stores")
		return f.CreateInMemoryStores(), nil
	}

	stores, err := f.CreateRedisStores(ctx)
	if err == nil {
		f.logger.Info("using Redis stores", zap.String("addr", f.redisConfig.RedisAddr()))
		return stores, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Idempotency claims and token revocations will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStores(), nil
}
