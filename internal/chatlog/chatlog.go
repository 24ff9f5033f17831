// Package chatlog persists completed chat interactions. Every recorded
// entry implies the user row exists, so the upsert and the log append
// share one transaction.
package chatlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const upsertUserSQL = `INSERT INTO users (user_id)
	VALUES ($1)
	ON CONFLICT (user_id) DO NOTHING`

// A zero distortion id means no canonical distortion was matched; the
// log column is nullable, so it is stored as NULL rather than 0.
const insertLogSQL = `INSERT INTO logs (id, user_id, situation, thought, answer, distortion_id)
	VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0))`

// Entry is one completed interaction. DistortionID 0 means no canonical
// distortion was matched.
type Entry struct {
	UserID       string
	Situation    string
	Thought      string
	Answer       string
	DistortionID int
}

// Store writes interaction history to PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a chatlog Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Record ensures the user row exists and appends one log entry, both in
// the same transaction. Log rows are append-only; nothing updates them
// afterwards.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if entry.Thought == "" {
		return fmt.Errorf("thought is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", rbErr)
		}
	}()

	if _, err := tx.Exec(ctx, upsertUserSQL, entry.UserID); err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}

	id := uuid.New()
	if _, err := tx.Exec(ctx, insertLogSQL,
		id, entry.UserID, entry.Situation, entry.Thought, entry.Answer, entry.DistortionID); err != nil {
		return fmt.Errorf("inserting log entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing log entry: %w", err)
	}

	s.logger.Debug("interaction recorded", "log_id", id, "user_id", entry.UserID)
	return nil
}
