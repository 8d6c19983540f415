package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "clasedesurf", cfg.Database)
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=clasedesurf sslmode=disable", cfg.DSN())
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "uq_class_sessions_slot"}

	assert.True(t, IsUniqueViolation(dup, ""))
	assert.True(t, IsUniqueViolation(dup, "uq_class_sessions_slot"))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert session: %w", dup), "uq_class_sessions_slot"))
	assert.False(t, IsUniqueViolation(dup, "other_constraint"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestNewPostgres_Unreachable(t *testing.T) {
	cfg := DefaultPostgresConfig()
	cfg.Host = "invalid-host-that-does-not-exist"
	cfg.MaxRetries = 0
	cfg.ConnectTimeout = 500 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := NewPostgres(ctx, cfg)
	assert.Error(t, err)
}

func TestWithTx_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	cfg := DefaultPostgresConfig()
	if host := os.Getenv("TEST_DATABASE_HOST"); host != "" {
		cfg.Host = host
	}
	cfg.Password = os.Getenv("TEST_DATABASE_PASSWORD")

	ctx := context.Background()
	db, err := NewPostgres(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.HealthCheck(ctx))

	sentinel := errors.New("rollback please")
	err = WithTx(ctx, db.Pool(), func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "CREATE TEMP TABLE tx_scratch (id int)")
		require.NoError(t, err)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}
