package integration_test

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation-core/internal/app"
	"github.com/metinatakli/seat-reservation-core/internal/booking"
	"github.com/metinatakli/seat-reservation-core/internal/notify"
	"github.com/metinatakli/seat-reservation-core/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	dbName         = "seat_reservation"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"

	testJWTSecret = "integration-secret"
	testIssuer    = "seat-reservation-core"
)

type TestApp struct {
	App      *app.Application
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Bookings *booking.Service
	Config   app.Config
}

// newTestApp wires the HTTP application and a second booking service on the
// same stores. Tests drive concurrency through the service directly.
func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	bookings := booking.NewService(
		repository.NewPostgresSeatRepository(db),
		repository.NewPostgresSeatLockRepository(db),
		repository.NewPostgresBookingRepository(db),
		notify.NewRedisPublisher(redisClient, cfg.Redis.EventChannel, logger),
		booking.WithHoldTTL(cfg.Booking.HoldTTL),
		booking.WithMaxSeats(cfg.Booking.MaxSeats),
		booking.WithSweepBatchSize(cfg.Booking.SweepBatchSize),
		booking.WithRetry(cfg.Booking.RetryAttempts, cfg.Booking.RetryBaseBackoff),
		booking.WithAvailabilityCache(repository.NewRedisAvailabilityCache(redisClient), cfg.Booking.CacheTTL),
		booking.WithLogger(logger),
	)

	return &TestApp{
		App:      app.NewApp(cfg, logger, db, redisClient),
		DB:       db,
		Redis:    redisClient,
		Bookings: bookings,
		Config:   cfg,
	}, nil
}

type BaseSuite struct {
	suite.Suite
	app    *TestApp
	stores *backingStores
	server *httptest.Server
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	stores, err := startBackingStores(ctx)
	if err != nil {
		s.T().Fatalf("failed to start containers: %s", err)
	}
	s.stores = stores

	var cfg app.Config
	cfg.Port = 3000
	cfg.Env = "test"
	cfg.DB.DSN = stores.dsn
	cfg.DB.MaxOpenConns = 40
	cfg.DB.MaxIdleTime = 2 * time.Minute
	cfg.Redis.URL = stores.redisAddr
	cfg.Redis.MaxOpenConns = 20
	cfg.Redis.MaxIdleConns = 10
	cfg.Redis.MaxIdleTime = 2 * time.Minute
	cfg.Redis.EventChannel = notify.DefaultRedisChannel
	cfg.Booking.HoldTTL = 10 * time.Minute
	cfg.Booking.MaxSeats = 8
	cfg.Booking.SweepInterval = time.Minute
	cfg.Booking.SweepBatchSize = 2
	cfg.Booking.CacheTTL = 2 * time.Second
	cfg.Booking.RetryAttempts = 5
	cfg.Booking.RetryBaseBackoff = 10 * time.Millisecond
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Auth.Issuer = testIssuer

	s.Require().NoError(cfg.Validate())

	testApp, err := newTestApp(cfg)
	if err != nil {
		s.T().Fatalf("cannot initialize app: %s", err)
	}

	s.app = testApp
	s.server = httptest.NewServer(testApp.App.Routes())
}

func (s *BaseSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}

	if s.app != nil {
		s.app.Redis.Close()
		s.app.DB.Close()
	}

	if s.stores != nil {
		if err := s.stores.terminate(context.Background()); err != nil {
			log.Printf("failed to terminate containers: %s", err)
		}
	}
}

func (s *BaseSuite) SetupTest() {
	resetState(s.T(), s.app)
}

type Scenario struct {
	Name             string
	Method           string
	URL              string
	Body             io.Reader
	Headers          map[string]string
	Cookies          []*http.Cookie
	ExpectedStatus   int
	ExpectedResponse string
	BeforeTestFunc   func(t testing.TB, app *TestApp)
	AfterTestFunc    func(t testing.TB, app *TestApp, res *http.Response)
}

func (s Scenario) Run(t *testing.T, testApp *TestApp) {
	t.Run(s.Name, func(t *testing.T) {
		if s.BeforeTestFunc != nil {
			s.BeforeTestFunc(t, testApp)
		}

		req := prepareRequest(s.Method, s.URL, s.Body, s.Headers, s.Cookies)

		rec := httptest.NewRecorder()
		testApp.App.Routes().ServeHTTP(rec, req)

		res := rec.Result()
		defer res.Body.Close()

		assert.Equal(t, s.ExpectedStatus, res.StatusCode)

		if s.ExpectedResponse != "" {
			compareResponse(t, res.Body, s.ExpectedResponse)
		}

		if s.AfterTestFunc != nil {
			s.AfterTestFunc(t, testApp, res)
		}
	})
}

func requireStatus(t testing.TB, res *http.Response, status int) {
	t.Helper()
	require.Equal(t, status, res.StatusCode)
}
