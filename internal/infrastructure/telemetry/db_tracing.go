package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "telemetry:query_start"

// DBTracingConfig controls GORM query tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // record bound values in db.statement
	SlowQueryThresh time.Duration // default 200ms
	DBSystem        string        // "postgresql" or "sqlite"
}

// DBTracing registers otelgorm spans plus slow query annotations on a DB.
type DBTracing struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracing creates the GORM tracing plugin.
func NewDBTracing(cfg DBTracingConfig, logger *zap.Logger) *DBTracing {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	return &DBTracing{config: cfg, logger: logger}
}

// Register installs the plugin and callbacks. It is a no-op when disabled.
func (p *DBTracing) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register otelgorm plugin: %w", err)
	}

	cb := db.Callback()
	hooks := []struct {
		op       string
		register func(before, after func(*gorm.DB)) error
	}{
		{"create", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Create().Before("gorm:create").Register("telemetry:before_create", b),
				cb.Create().After("gorm:create").Register("telemetry:after_create", a))
		}},
		{"query", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Query().Before("gorm:query").Register("telemetry:before_query", b),
				cb.Query().After("gorm:query").Register("telemetry:after_query", a))
		}},
		{"update", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Update().Before("gorm:update").Register("telemetry:before_update", b),
				cb.Update().After("gorm:update").Register("telemetry:after_update", a))
		}},
		{"delete", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", b),
				cb.Delete().After("gorm:delete").Register("telemetry:after_delete", a))
		}},
		{"row", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Row().Before("gorm:row").Register("telemetry:before_row", b),
				cb.Row().After("gorm:row").Register("telemetry:after_row", a))
		}},
		{"raw", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", b),
				cb.Raw().After("gorm:raw").Register("telemetry:after_raw", a))
		}},
	}
	for _, h := range hooks {
		if err := h.register(p.before, p.after); err != nil {
			return fmt.Errorf("failed to register %s tracing callbacks: %w", h.op, err)
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.config.DBSystem),
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func (p *DBTracing) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

// after annotates the current span with row counts and slow query markers
func (p *DBTracing) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
