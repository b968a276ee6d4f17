// Package config loads the service configuration from config.toml and
// ERP_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ERP_DATABASE_PASSWORD
const EnvPrefix = "ERP"

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Swagger   SwaggerConfig   `mapstructure:"swagger"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// IsProduction reports whether the stricter production checks apply
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type LogConfig struct {
	Level     string `mapstructure:"level"`  // debug, info, warn, error
	Format    string `mapstructure:"format"` // json, console
	Output    string `mapstructure:"output"` // stdout, stderr, or a file path
	GormLevel string `mapstructure:"gorm_level"`
}

// DatabaseConfig holds the PostgreSQL connection and pool settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	ConnectBackoff  time.Duration `mapstructure:"connect_backoff"`
}

// RedisConfig holds Redis connection settings. An empty Host selects in-memory stores.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	TokenExpiration time.Duration `mapstructure:"token_expiration"`
	Issuer          string        `mapstructure:"issuer"`
}

// AuthConfig holds the back-office administrator credentials
type AuthConfig struct {
	AdminUsername     string `mapstructure:"admin_username"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"` // bcrypt
}

type HTTPConfig struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	// portal and gateway endpoints are throttled per caller on top of the global limit
	PortalRateLimitRequests int           `mapstructure:"portal_rate_limit_requests"`
	PortalRateLimitWindow   time.Duration `mapstructure:"portal_rate_limit_window"`
	CORSAllowOrigins        []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods        []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders        []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies          []string      `mapstructure:"trusted_proxies"`
}

type SwaggerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TelemetryConfig holds OpenTelemetry and profiling configuration
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"` // OTLP gRPC, e.g. localhost:4317
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // never in production
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
	ProfilingEnabled  bool          `mapstructure:"profiling_enabled"`
	ProfilingServer   string        `mapstructure:"profiling_server"` // Pyroscope
}

// GatewayConfig holds the online payment gateway credentials
type GatewayConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	KeyID     string        `mapstructure:"key_id"`
	KeySecret string        `mapstructure:"key_secret"`
	Currency  string        `mapstructure:"currency"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// ClaimTTL is how long a verified gateway payment id stays claimed
	ClaimTTL  time.Duration `mapstructure:"claim_ttl"`
}

// StorageConfig points at the S3-compatible bucket (AWS S3, MinIO, RustFS)
// that archived budget reports are written to
type StorageConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
}

// LedgerConfig holds the accounting policy switches
type LedgerConfig struct {
	ReverseBudgetOnCancel        bool `mapstructure:"reverse_budget_on_cancel"`
	PaidRequiresConfirmedPayment bool `mapstructure:"paid_requires_confirmed_payment"`
	SingleDerivedDocument        bool `mapstructure:"single_derived_document"`
}

// defaults lists every key. Viper only resolves environment overrides for
// keys it knows about, so secrets without a default are listed as "".
var defaults = map[string]any{
	"app.name": "shiv-erp",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "shiv_erp",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  time.Hour,
	"database.conn_max_idle_time": 30 * time.Minute,
	"database.connect_attempts":   5,
	"database.connect_backoff":    2 * time.Second,

	"redis.host":     "",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":           "",
	"jwt.token_expiration": 12 * time.Hour,
	"jwt.issuer":           "shiv-erp",

	"auth.admin_username":      "admin",
	"auth.admin_password_hash": "",

	"log.level":      "info",
	"log.format":     "console",
	"log.output":     "stdout",
	"log.gorm_level": "warn",

	"http.read_timeout":               15 * time.Second,
	"http.write_timeout":              15 * time.Second,
	"http.idle_timeout":               time.Minute,
	"http.shutdown_timeout":           30 * time.Second,
	"http.max_header_bytes":           1 << 20,
	"http.max_body_size":              int64(10 << 20),
	"http.rate_limit_enabled":         false,
	"http.rate_limit_requests":        100,
	"http.rate_limit_window":          time.Minute,
	"http.portal_rate_limit_requests": 20,
	"http.portal_rate_limit_window":   time.Minute,
	// no cross-origin requests until origins are configured
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.trusted_proxies":    []string{},

	"swagger.enabled": false,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "shiv-erp",
	"telemetry.insecure":                false,
	"telemetry.metrics_interval":        30 * time.Second,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.profiling_enabled":       false,
	"telemetry.profiling_server":        "http://localhost:4040",

	"gateway.enabled":    false,
	"gateway.base_url":   "https://api.razorpay.com",
	"gateway.key_id":     "",
	"gateway.key_secret": "",
	"gateway.currency":   "INR",
	"gateway.timeout":    30 * time.Second,
	"gateway.claim_ttl":  24 * time.Hour,

	"storage.enabled":            false,
	"storage.endpoint":           "http://localhost:9000",
	"storage.region":             "us-east-1",
	"storage.bucket":             "shiv-erp-reports",
	"storage.access_key":         "",
	"storage.secret_key":         "",
	"storage.use_ssl":            false,
	"storage.use_path_style":     true,
	"storage.presign_expiration": 15 * time.Minute,

	"ledger.reverse_budget_on_cancel":        false,
	"ledger.paid_requires_confirmed_payment": false,
	"ledger.single_derived_document":         true,
}

// Load reads configuration. Precedence, highest first:
// ERP_ environment variables, config.toml (in . or /app), built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Database.MaxOpenConns <= 0 {
		errs = append(errs, errors.New("database.max_open_conns must be positive"))
	}
	if c.Database.MaxIdleConns < 0 {
		errs = append(errs, errors.New("database.max_idle_conns cannot be negative"))
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns))
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %g",
			c.Telemetry.SamplingRatio))
	}
	if c.Gateway.Enabled && (c.Gateway.KeyID == "" || c.Gateway.KeySecret == "") {
		errs = append(errs, errors.New("gateway.key_id and gateway.key_secret are required when the gateway is enabled"))
	}
	if c.Storage.Enabled {
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("storage.bucket is required when storage is enabled"))
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			errs = append(errs, errors.New("storage.access_key and storage.secret_key are required when storage is enabled"))
		}
	}
	if c.App.IsProduction() {
		errs = append(errs, c.productionErrors()...)
	}
	return errors.Join(errs...)
}

func (c *Config) productionErrors() []error {
	var errs []error
	if len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("jwt.secret must be at least 32 characters in production"))
	}
	if c.Auth.AdminPasswordHash == "" {
		errs = append(errs, errors.New("auth.admin_password_hash is required in production"))
	}
	if c.Database.Password == "" {
		errs = append(errs, errors.New("database.password is required in production"))
	}
	if c.Database.SSLMode == "disable" {
		errs = append(errs, errors.New("database.sslmode cannot be 'disable' in production"))
	}
	if slices.Contains(c.HTTP.CORSAllowOrigins, "*") {
		errs = append(errs, errors.New("http.cors_allow_origins cannot contain '*' in production"))
	}
	if c.Swagger.Enabled {
		errs = append(errs, errors.New("swagger must be disabled in production"))
	}
	if c.Telemetry.DBLogFullSQL {
		errs = append(errs, errors.New("telemetry.db_log_full_sql must be false in production"))
	}
	return errs
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisAddr returns host:port, or "" when Redis is not configured
func (r *RedisConfig) RedisAddr() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
