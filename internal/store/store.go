// Package store persists converted rows to PostgreSQL.
//
// Each converted file is written in one transaction: a processed_files ledger
// row keyed by the input checksum, then every canonical row via COPY. The
// ledger lets repeated batch runs skip files that are already stored.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/mcasconvert/internal/batch"
	"github.com/JonMunkholm/mcasconvert/internal/config"
	"github.com/JonMunkholm/mcasconvert/internal/logging"
)

// Store writes converted files to PostgreSQL. It implements batch.Sink and
// batch.Ledger.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ batch.Sink   = (*Store)(nil)
	_ batch.Ledger = (*Store)(nil)
)

// Open connects to the database described by cfg and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logging.FromContext(ctx).Info("connected to database", "name", databaseName(cfg.URL))
	return &Store{pool: pool}, nil
}

// Close releases all pooled connections.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the ledger and score tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Processed reports whether a file with checksum is already in the ledger.
func (s *Store) Processed(ctx context.Context, checksum string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_files WHERE checksum = $1)`,
		checksum,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check processed file: %w", err)
	}
	return exists, nil
}

// Store records out in the ledger and copies its rows into canonical_scores.
// A checksum that is already recorded stores nothing and returns 0.
func (s *Store) Store(ctx context.Context, out batch.Output) (int64, error) {
	runID, err := toPgUUID(out.RunID)
	if err != nil {
		return 0, err
	}

	// All inserts for one file are atomic
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	tag, err := tx.Exec(ctx,
		`INSERT INTO processed_files (checksum, source_file, run_id, row_count)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (checksum) DO NOTHING`,
		out.Checksum, out.Source, runID, len(out.Rows),
	)
	if err != nil {
		return 0, fmt.Errorf("record processed file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		logging.WithFields(ctx, "file", out.Source).Info("file already stored", "checksum", out.Checksum)
		return 0, nil
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"canonical_scores"},
		copyColumns,
		pgx.CopyFromSlice(len(out.Rows), func(i int) ([]any, error) {
			return copyRow(runID, out, i), nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy canonical rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func toPgUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid run id %q: %w", s, err)
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

// databaseName returns the database name from a connection URL for logging.
func databaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
