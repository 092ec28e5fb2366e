// Package testutil provides the Postgres-backed test harness. Tests
// that need a database call SetupTestDB, which creates a throwaway
// database, applies the embedded migrations, and skips the test when
// no Postgres is reachable from the POSTGRES_* environment.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/actionforest/api/internal/config"
	"github.com/actionforest/api/internal/migrate"
)

// TestDB holds the per-test database resources.
type TestDB struct {
	Config *config.Config
	Pool   *pgxpool.Pool
	DB     *bun.DB
	Name   string
}

// SetupTestDB creates an isolated test database and migrates it. The
// database is dropped via t.Cleanup. Skips the test when Postgres is
// not available.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	baseCfg, err := config.NewConfig(log)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adminCfg := *baseCfg
	adminCfg.Database.Database = "postgres"

	adminPool, err := createPool(ctx, &adminCfg)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	if err := adminPool.Ping(ctx); err != nil {
		adminPool.Close()
		t.Skipf("postgres not available: %v", err)
	}

	name := fmt.Sprintf("actionforest_test_%d", time.Now().UnixNano())
	if _, err := adminPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", name)); err != nil {
		adminPool.Close()
		t.Fatalf("create test database: %v", err)
	}
	adminPool.Close()

	testCfg := *baseCfg
	testCfg.Database.Database = name

	pool, err := createPool(ctx, &testCfg)
	if err != nil {
		dropDB(&adminCfg, name)
		t.Fatalf("connect to test database: %v", err)
	}

	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())

	if err := migrate.NewMigrator(db, log).Up(ctx); err != nil {
		db.Close()
		pool.Close()
		dropDB(&adminCfg, name)
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		pool.Close()
		dropDB(&adminCfg, name)
	})

	return &TestDB{
		Config: &testCfg,
		Pool:   pool,
		DB:     db,
		Name:   name,
	}
}

func createPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = 5
	return pgxpool.NewWithConfig(ctx, poolConfig)
}

func dropDB(adminCfg *config.Config, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := createPool(ctx, adminCfg)
	if err != nil {
		return
	}
	defer pool.Close()

	// Terminate leftover connections so the drop cannot hang
	_, _ = pool.Exec(ctx, fmt.Sprintf(`
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = '%s' AND pid <> pg_backend_pid()
	`, name))
	_, _ = pool.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", name))
}
