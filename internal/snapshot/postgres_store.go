package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/betversa/ev-engine/internal/models"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps snapshot history in a PostgreSQL table
type PostgresStore struct {
	db        *sql.DB
	retention Retention
	now       func() time.Time
	logger    zerolog.Logger
}

// PostgresConfig holds PostgreSQL snapshot store configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	ConnTimeout  time.Duration
}

// NewPostgresStore opens the database, checks it and creates the schema
func NewPostgresStore(ctx context.Context, config PostgresConfig, retention Retention, logger zerolog.Logger) (*PostgresStore, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	timeout := config.ConnTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := NewPostgresStoreFromDB(db, retention, logger)
	if err := s.initSchema(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Info().Msg("postgres snapshot store initialized")
	return s, nil
}

// NewPostgresStoreFromDB wraps an open database handle without touching the schema
func NewPostgresStoreFromDB(db *sql.DB, retention Retention, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		db:        db,
		retention: retention,
		now:       time.Now,
		logger:    logger.With().Str("component", "postgres_snapshot_store").Logger(),
	}
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS bet_snapshots (
		id UUID PRIMARY KEY,
		bet_identity TEXT NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL,
		minimized_quote JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bet_snapshots_identity_time ON bet_snapshots(bet_identity, captured_at DESC);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

const (
	lockQuery   = `SELECT pg_advisory_xact_lock(hashtext($1))`
	insertQuery = `INSERT INTO bet_snapshots (id, bet_identity, captured_at, minimized_quote) VALUES ($1, $2, $3, $4)`
	agedQuery   = `DELETE FROM bet_snapshots WHERE bet_identity = $1 AND captured_at < $2`
	excessQuery = `DELETE FROM bet_snapshots WHERE id IN (
		SELECT id FROM bet_snapshots WHERE bet_identity = $1
		ORDER BY captured_at DESC, id DESC OFFSET $2
	)`
	selectQuery = `SELECT id, bet_identity, captured_at, minimized_quote FROM bet_snapshots
		WHERE bet_identity = $1 ORDER BY captured_at DESC, id DESC`
)

// Append inserts a snapshot without applying retention
func (s *PostgresStore) Append(ctx context.Context, snap models.Snapshot) error {
	quote, err := json.Marshal(snap.Quote)
	if err != nil {
		return fmt.Errorf("%w: marshal quote: %w", ErrPersistence, err)
	}

	if _, err := s.db.ExecContext(ctx, insertQuery, snap.ID, snap.BetIdentity, snap.CapturedAt.UTC(), quote); err != nil {
		return fmt.Errorf("%w: insert: %w", ErrPersistence, err)
	}
	return nil
}

// Prune applies retention to one identity inside a transaction
func (s *PostgresStore) Prune(ctx context.Context, identity string) error {
	return s.inTx(ctx, identity, func(tx *sql.Tx) error {
		return s.prune(ctx, tx, identity)
	})
}

// Record inserts and prunes in one transaction holding the identity's advisory lock
func (s *PostgresStore) Record(ctx context.Context, snap models.Snapshot) error {
	quote, err := json.Marshal(snap.Quote)
	if err != nil {
		return fmt.Errorf("%w: marshal quote: %w", ErrPersistence, err)
	}

	return s.inTx(ctx, snap.BetIdentity, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertQuery, snap.ID, snap.BetIdentity, snap.CapturedAt.UTC(), quote); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		return s.prune(ctx, tx, snap.BetIdentity)
	})
}

func (s *PostgresStore) prune(ctx context.Context, tx *sql.Tx, identity string) error {
	if cutoff, ok := s.retention.cutoff(s.now()); ok {
		if _, err := tx.ExecContext(ctx, agedQuery, identity, cutoff.UTC()); err != nil {
			return fmt.Errorf("delete aged: %w", err)
		}
	}
	if s.retention.MaxCount > 0 {
		if _, err := tx.ExecContext(ctx, excessQuery, identity, s.retention.MaxCount); err != nil {
			return fmt.Errorf("delete excess: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) inTx(ctx context.Context, identity string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrPersistence, err)
	}

	if _, err := tx.ExecContext(ctx, lockQuery, identity); err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: advisory lock: %w", ErrPersistence, err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}
	return nil
}

// Query returns an identity's history newest first
func (s *PostgresStore) Query(ctx context.Context, identity string, limit int) ([]models.Snapshot, error) {
	query := selectQuery
	args := []any{identity}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrPersistence, err)
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		var snap models.Snapshot
		var quote []byte
		if err := rows.Scan(&snap.ID, &snap.BetIdentity, &snap.CapturedAt, &quote); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrPersistence, err)
		}
		if err := json.Unmarshal(quote, &snap.Quote); err != nil {
			s.logger.Warn().Err(err).Str("identity", identity).Msg("failed to unmarshal snapshot quote")
			continue
		}
		snap.CapturedAt = snap.CapturedAt.UTC()
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", ErrPersistence, err)
	}

	return out, nil
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
