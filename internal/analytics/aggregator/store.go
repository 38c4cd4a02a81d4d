// Package aggregator provides persistent storage and periodic snapshotting
// of aggregated analytics stats to PostgreSQL.
package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/postgres"
)

// Schema creates the snapshot tables. Each snapshot stores the full stats
// as JSONB, and the per-query counts are upserted into their own table so
// they can be queried without decoding snapshots.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS snippet_analytics_snapshots (
		id          BIGSERIAL PRIMARY KEY,
		fingerprint TEXT NOT NULL DEFAULT '',
		data        JSONB NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS snippet_analytics_snapshots_captured_at
		ON snippet_analytics_snapshots (captured_at DESC)`,
	`CREATE TABLE IF NOT EXISTS snippet_query_counts (
		query      TEXT PRIMARY KEY,
		count      BIGINT NOT NULL,
		no_match   BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Store persists aggregated analytics snapshots in PostgreSQL.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore creates a new analytics persistence store.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "analytics-store"),
	}
}

// Migrate creates the tables the store writes to.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.EnsureSchema(ctx, Schema...); err != nil {
		return fmt.Errorf("migrating analytics store: %w", err)
	}
	return nil
}

// SaveSnapshot stores stats and refreshes the query counts in one
// transaction.
func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	now := time.Now().UTC()
	noMatch := make(map[string]bool, len(stats.NoMatchQueries))
	for _, q := range stats.NoMatchQueries {
		noMatch[q.Value] = true
	}

	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snippet_analytics_snapshots (fingerprint, data, captured_at) VALUES ($1, $2, $3)`,
			stats.LastFingerprint, data, now,
		); err != nil {
			return fmt.Errorf("inserting snapshot: %w", err)
		}
		for _, q := range stats.TopQueries {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO snippet_query_counts (query, count, no_match, updated_at)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (query) DO UPDATE
				 SET count = EXCLUDED.count, no_match = EXCLUDED.no_match, updated_at = EXCLUDED.updated_at`,
				q.Value, q.Count, noMatch[q.Value], now,
			); err != nil {
				return fmt.Errorf("upserting query count for %q: %w", q.Value, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}

	s.logger.Info("analytics snapshot saved",
		"total_queries", stats.TotalQueries,
		"index_builds", stats.IndexBuilds,
	)
	return nil
}

// LatestSnapshot loads the most recent snapshot from the database.
// Returns nil, nil if no snapshots exist yet.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.AggregatedStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM snippet_analytics_snapshots ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}

	var stats analytics.AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// ListSnapshots returns the last N snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]analytics.AggregatedStats, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data FROM snippet_analytics_snapshots ORDER BY captured_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]analytics.AggregatedStats, 0, limit)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		var stats analytics.AggregatedStats
		if err := json.Unmarshal(data, &stats); err != nil {
			s.logger.Warn("skipping corrupt snapshot", "error", err)
			continue
		}
		snapshots = append(snapshots, stats)
	}

	return snapshots, rows.Err()
}

// StartPeriodicSave launches a goroutine that periodically snapshots
// the aggregator's current stats to the database, plus once more on
// shutdown.
func (s *Store) StartPeriodicSave(ctx context.Context, agg *analytics.Aggregator, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.SaveSnapshot(ctx, agg.Stats()); err != nil {
					s.logger.Error("periodic snapshot failed", "error", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := s.SaveSnapshot(shutdownCtx, agg.Stats()); err != nil {
					s.logger.Error("final snapshot failed", "error", err)
				}
				return
			}
		}
	}()
	s.logger.Info("periodic snapshot started", "interval", interval)
}
