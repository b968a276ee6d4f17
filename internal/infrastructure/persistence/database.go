package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shivfurniture/erp/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the PostgreSQL pool shared by every repository
type Database struct {
	DB *gorm.DB
}

type openOptions struct {
	gormLogger   gormlogger.Interface
	logger       *zap.Logger
	pingAttempts int
	pingBackoff  time.Duration
}

// Option customizes NewDatabase
type Option func(*openOptions)

// WithLogger routes GORM's own logging, typically to the zap-backed logger
func WithLogger(l gormlogger.Interface) Option {
	return func(o *openOptions) {
		o.gormLogger = l
	}
}

// WithStartupLogger logs connection attempts
func WithStartupLogger(l *zap.Logger) Option {
	return func(o *openOptions) {
		o.logger = l
	}
}

// WithPingRetry retries the startup ping, for databases that come up
// alongside the API
func WithPingRetry(attempts int, backoff time.Duration) Option {
	return func(o *openOptions) {
		o.pingAttempts = attempts
		o.pingBackoff = backoff
	}
}

// NewDatabase opens the pool described by cfg and waits until it answers
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	return open(ctx, postgres.Open(cfg.DSN()), cfg, opts...)
}

func open(ctx context.Context, dialector gorm.Dialector, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := openOptions{
		gormLogger:   gormlogger.Default.LogMode(gormlogger.Silent),
		logger:       zap.NewNop(),
		pingAttempts: 1,
		pingBackoff:  time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	// SkipDefaultTransaction: writes that must be atomic go through GormStore.Execute
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Database{DB: db}
	sqlDB, err := d.SQL()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := d.waitReady(ctx, o); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) waitReady(ctx context.Context, o openOptions) error {
	attempts := max(o.pingAttempts, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = d.Ping(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		o.logger.Warn("Database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", o.pingBackoff),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.pingBackoff):
		}
	}
	return fmt.Errorf("failed to ping database: %w", err)
}

// SQL returns the underlying pool
func (d *Database) SQL() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// Ping checks that the database answers within ctx
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.SQL()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Store returns the unit of work over this pool
func (d *Database) Store() *GormStore {
	return NewGormStore(d.DB)
}

// Close closes the pool
func (d *Database) Close() error {
	sqlDB, err := d.SQL()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
