package integration_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	pgxstd "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

const migrationsSource = "file://../../migrations"

// backingStores are the containers one integration suite runs against.
type backingStores struct {
	postgres *postgres.PostgresContainer
	redis    *tcredis.RedisContainer

	dsn       string
	redisAddr string
}

func startBackingStores(ctx context.Context) (*backingStores, error) {
	stores := &backingStores{}

	pg, err := postgres.Run(ctx, dbImageName,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
			wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
				return postgresURL(host, port.Port())
			}).WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("starting postgres: %w", err)
	}
	stores.postgres = pg

	stores.dsn, err = pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, errors.Join(fmt.Errorf("postgres connection string: %w", err), stores.terminate(ctx))
	}

	if err := migrateUp(stores.dsn); err != nil {
		return nil, errors.Join(err, stores.terminate(ctx))
	}

	rdb, err := tcredis.Run(ctx, cacheImageName)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("starting redis: %w", err), stores.terminate(ctx))
	}
	stores.redis = rdb

	// go-redis expects host:port rather than a redis:// URL.
	stores.redisAddr, err = rdb.Endpoint(ctx, "")
	if err != nil {
		return nil, errors.Join(fmt.Errorf("redis endpoint: %w", err), stores.terminate(ctx))
	}

	return stores, nil
}

func (b *backingStores) terminate(ctx context.Context) error {
	var errs []error

	if b.redis != nil {
		errs = append(errs, b.redis.Terminate(ctx))
	}

	if b.postgres != nil {
		errs = append(errs, b.postgres.Terminate(ctx))
	}

	return errors.Join(errs...)
}

func postgresURL(host, port string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, host, port, dbName)
}

func migrateUp(dsn string) error {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parsing dsn: %w", err)
	}

	db := pgxstd.OpenDB(*config)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsSource, "pgx", driver)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	return nil
}
