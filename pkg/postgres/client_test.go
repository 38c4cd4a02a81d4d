package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/config"
)

func TestNewUnreachable(t *testing.T) {
	cfg := config.Default().Postgres
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestInTxAgainstPostgres(t *testing.T) {
	host := os.Getenv("SP_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("SP_TEST_POSTGRES_HOST not set")
	}
	cfg := config.Default().Postgres
	cfg.Host = host
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.EnsureSchema(ctx,
		`CREATE TABLE IF NOT EXISTS tx_test (id INT PRIMARY KEY)`,
		`TRUNCATE tx_test`,
	))

	boom := errors.New("boom")
	err = c.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tx_test (id) VALUES (1)`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tx_test`).Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, c.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO tx_test (id) VALUES (1)`)
		return err
	}))
	require.NoError(t, c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tx_test`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, c.Ping(ctx))
}
