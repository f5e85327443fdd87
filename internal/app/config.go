package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	minHoldTTL  = 2 * time.Minute
	maxHoldTTL  = 30 * time.Minute
	maxSeatsCap = 20
	maxCacheTTL = 10 * time.Second
)

type Config struct {
	Port             int
	Env              string
	OtelCollectorUrl string

	DB struct {
		DSN          string
		MaxOpenConns int
		MaxIdleTime  time.Duration
	}

	Redis struct {
		URL          string
		MaxOpenConns int
		MaxIdleConns int
		MaxIdleTime  time.Duration
		EventChannel string
	}

	Booking struct {
		HoldTTL          time.Duration
		MaxSeats         int
		SweepInterval    time.Duration
		SweepBatchSize   int
		CacheTTL         time.Duration
		RetryAttempts    uint
		RetryBaseBackoff time.Duration
	}

	AMQP struct {
		URL      string
		Exchange string
	}

	Stripe struct {
		SecretKey string
	}

	Auth struct {
		JWTSecret string
		Issuer    string
	}
}

// parseConfig reads flags from args. Every flag falls back to an environment
// variable so the service can be configured from a .env file.
func parseConfig(fs *flag.FlagSet, args []string) (Config, bool, error) {
	var cfg Config

	fs.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	fs.StringVar(&cfg.Env, "env", envString("ENV", "dev"), "Environment (dev|staging|prod)")
	fs.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envString("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")

	fs.StringVar(&cfg.DB.DSN, "db-dsn", envString("DB_DSN", ""), "PostgreSQL DSN")
	fs.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", envInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	fs.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", envDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")

	fs.StringVar(&cfg.Redis.URL, "redis-url", envString("REDIS_URL", ""), "Redis URL")
	fs.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", envInt("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	fs.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", envInt("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	fs.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", envDuration("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")
	fs.StringVar(&cfg.Redis.EventChannel, "redis-event-channel", envString("REDIS_EVENT_CHANNEL", "booking-events"), "Redis pub/sub channel for booking events")

	fs.DurationVar(&cfg.Booking.HoldTTL, "hold-ttl", envDuration("HOLD_TTL", 10*time.Minute), "How long seats stay locked for an unpaid booking")
	fs.IntVar(&cfg.Booking.MaxSeats, "max-seats", envInt("MAX_SEATS", 8), "Maximum seats per booking")
	fs.DurationVar(&cfg.Booking.SweepInterval, "sweep-interval", envDuration("SWEEP_INTERVAL", 30*time.Second), "Interval of the expired hold sweep")
	fs.IntVar(&cfg.Booking.SweepBatchSize, "sweep-batch-size", envInt("SWEEP_BATCH_SIZE", 200), "Bookings expired per sweep transaction")
	fs.DurationVar(&cfg.Booking.CacheTTL, "availability-cache-ttl", envDuration("AVAILABILITY_CACHE_TTL", 2*time.Second), "Upper bound for cached availability snapshots")
	fs.UintVar(&cfg.Booking.RetryAttempts, "store-retry-attempts", uint(envInt("STORE_RETRY_ATTEMPTS", 3)), "Attempts for transient store failures")
	fs.DurationVar(&cfg.Booking.RetryBaseBackoff, "store-retry-backoff", envDuration("STORE_RETRY_BACKOFF", 25*time.Millisecond), "Initial backoff between store retries")

	fs.StringVar(&cfg.AMQP.URL, "amqp-url", envString("AMQP_URL", ""), "RabbitMQ URL, events are not streamed when empty")
	fs.StringVar(&cfg.AMQP.Exchange, "amqp-exchange", envString("AMQP_EXCHANGE", "booking.events"), "RabbitMQ topic exchange for booking events")

	fs.StringVar(&cfg.Stripe.SecretKey, "stripe-key", envString("STRIPE_KEY", ""), "Stripe secret key")

	fs.StringVar(&cfg.Auth.JWTSecret, "jwt-secret", envString("JWT_SECRET", ""), "HMAC secret for staff tokens")
	fs.StringVar(&cfg.Auth.Issuer, "jwt-issuer", envString("JWT_ISSUER", "seat-reservation-core"), "Expected issuer of staff tokens")

	displayVersion := fs.Bool("version", false, "Display version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}

	return cfg, *displayVersion, nil
}

func (cfg Config) Validate() error {
	var errs []error

	if cfg.Booking.HoldTTL < minHoldTTL || cfg.Booking.HoldTTL > maxHoldTTL {
		errs = append(errs, fmt.Errorf("hold-ttl must be between %s and %s", minHoldTTL, maxHoldTTL))
	}

	if cfg.Booking.MaxSeats < 1 || cfg.Booking.MaxSeats > maxSeatsCap {
		errs = append(errs, fmt.Errorf("max-seats must be between 1 and %d", maxSeatsCap))
	}

	if cfg.Booking.SweepInterval <= 0 {
		errs = append(errs, errors.New("sweep-interval must be positive"))
	}

	if cfg.Booking.SweepBatchSize < 1 {
		errs = append(errs, errors.New("sweep-batch-size must be positive"))
	}

	if cfg.Booking.CacheTTL < 0 || cfg.Booking.CacheTTL >= maxCacheTTL {
		errs = append(errs, fmt.Errorf("availability-cache-ttl must be shorter than %s", maxCacheTTL))
	}

	if cfg.DB.DSN == "" {
		errs = append(errs, errors.New("db-dsn is required"))
	}

	if cfg.Redis.URL == "" {
		errs = append(errs, errors.New("redis-url is required"))
	}

	if cfg.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("jwt-secret is required"))
	}

	return errors.Join(errs...)
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}

	return d
}
