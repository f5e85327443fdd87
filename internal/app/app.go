package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation-core/api"
	"github.com/metinatakli/seat-reservation-core/internal/booking"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/metinatakli/seat-reservation-core/internal/notify"
	"github.com/metinatakli/seat-reservation-core/internal/payment"
	"github.com/metinatakli/seat-reservation-core/internal/repository"
	appvalidator "github.com/metinatakli/seat-reservation-core/internal/validator"
	"github.com/metinatakli/seat-reservation-core/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"github.com/stripe/stripe-go/v82"
)

var (
	version = vcs.Version()
)

var _ api.ServerInterface = (*Application)(nil)

type Application struct {
	config         Config
	logger         *slog.Logger
	db             *pgxpool.Pool
	redis          redis.UniversalClient
	validator      *validator.Validate
	sessionManager *scs.SessionManager

	seatRepo    domain.SeatRepository
	lockRepo    domain.SeatLockRepository
	bookingRepo domain.BookingRepository

	bookings   *booking.Service
	payments   domain.PaymentVerifier
	publishers notify.MultiPublisher
	events     *notify.RedisPublisher
	hub        *notify.Hub
}

type Option func(*Application)

// WithEventPublisher adds a destination for booking events next to the Redis
// fan-out.
func WithEventPublisher(p domain.EventPublisher) Option {
	return func(app *Application) {
		app.publishers = append(app.publishers, p)
	}
}

func WithPaymentVerifier(v domain.PaymentVerifier) Option {
	return func(app *Application) {
		app.payments = v
	}
}

func Run() error {
	cfg, displayVersion, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		return nil
	}

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	stripe.Key = cfg.Stripe.SecretKey

	baseHandler := slog.NewTextHandler(os.Stdout, nil)

	bootstrap := &Application{config: cfg, logger: slog.New(baseHandler)}

	shutdownTelemetry, err := bootstrap.InitTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	logger := newLogger(baseHandler, cfg.OtelCollectorUrl != "")

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var opts []Option

	if cfg.AMQP.URL != "" {
		amqpPublisher, err := notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()

		opts = append(opts, WithEventPublisher(amqpPublisher))
	}

	return NewApp(cfg, logger, db, redisClient, opts...).run()
}

// NewApp wires repositories, the booking service and the notification path
// on top of open store connections.
func NewApp(cfg Config, logger *slog.Logger, db *pgxpool.Pool, redisClient *redis.Client, opts ...Option) *Application {
	events := notify.NewRedisPublisher(redisClient, cfg.Redis.EventChannel, logger)

	app := &Application{
		config:         cfg,
		logger:         logger,
		db:             db,
		redis:          redisClient,
		validator:      appvalidator.NewValidator(),
		sessionManager: newSessionManager(redisClient),
		seatRepo:       repository.NewPostgresSeatRepository(db),
		lockRepo:       repository.NewPostgresSeatLockRepository(db),
		bookingRepo:    repository.NewPostgresBookingRepository(db),
		payments:       newPaymentRegistry(cfg),
		publishers:     notify.MultiPublisher{events},
		events:         events,
		hub:            notify.NewHub(logger),
	}

	for _, opt := range opts {
		opt(app)
	}

	serviceOpts := []booking.Option{
		booking.WithHoldTTL(cfg.Booking.HoldTTL),
		booking.WithMaxSeats(cfg.Booking.MaxSeats),
		booking.WithSweepBatchSize(cfg.Booking.SweepBatchSize),
		booking.WithRetry(cfg.Booking.RetryAttempts, cfg.Booking.RetryBaseBackoff),
		booking.WithLogger(logger),
	}

	if cfg.Booking.CacheTTL > 0 {
		cache := repository.NewRedisAvailabilityCache(redisClient)
		serviceOpts = append(serviceOpts, booking.WithAvailabilityCache(cache, cfg.Booking.CacheTTL))
	}

	app.bookings = booking.NewService(app.seatRepo, app.lockRepo, app.bookingRepo, app.publishers, serviceOpts...)

	return app
}

func newPaymentRegistry(cfg Config) *payment.Registry {
	var card domain.PaymentVerifier = payment.NewStaticVerifier(
		fmt.Errorf("%w: card payments are not configured", domain.ErrPaymentDeclined))

	if cfg.Stripe.SecretKey != "" {
		card = payment.NewStripeVerifier()
	}

	return payment.NewRegistry().
		Register(domain.PaymentMethodCash, payment.NewManualVerifier(false)).
		Register(domain.PaymentMethodTransfer, payment.NewManualVerifier(true)).
		Register(domain.PaymentMethodCrypto, payment.NewManualVerifier(true)).
		Register(domain.PaymentMethodCard, card)
}

func newSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb))
	if err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	scheduler, err := app.startSweeper()
	if err != nil {
		return fmt.Errorf("starting expired hold sweeper: %w", err)
	}

	listenCtx, stopListening := context.WithCancel(context.Background())
	defer stopListening()

	go func() {
		err := app.events.Listen(listenCtx, app.hub.Deliver)
		if err != nil {
			app.logger.Error("booking event listener stopped", "error", err)
		}
	}()

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		stopListening()

		shutdownError <- errors.Join(srv.Shutdown(ctx), scheduler.Shutdown())
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err = srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(app.requestLogger)
	r.Use(app.recoverPanic)

	r.Get("/healthcheck", app.GetHealth)

	r.Get("/openapi.json", app.GetOpenAPISpec)

	// The WebSocket endpoint reads the session itself; LoadAndSave buffers
	// the response and cannot be hijacked.
	r.With(app.authenticate).Get("/ws", app.ServeNotifications)

	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(app.ensureGuestUserSession)
		r.Use(app.authenticate)

		api.HandlerWithOptions(app, api.ChiServerOptions{
			BaseRouter:       r,
			Middlewares:      []api.MiddlewareFunc{app.authorize},
			ErrorHandlerFunc: app.paramErrorResponse,
		})
	})

	return r
}
