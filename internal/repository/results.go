package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iqnite/eggsplode/internal/game"
)

const resultsSchema = `
CREATE TABLE IF NOT EXISTS game_results (
	session_id  TEXT PRIMARY KEY,
	winner      TEXT NOT NULL,
	players     TEXT[] NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	turns       INTEGER NOT NULL
)`

// ResultRepository stores finished game results. It implements
// game.ResultSink.
type ResultRepository struct {
	db  *DB
	log *zap.Logger
}

// NewResultRepository creates the repository.
func NewResultRepository(db *DB, log *zap.Logger) *ResultRepository {
	return &ResultRepository{db: db, log: log}
}

// EnsureSchema creates the results table if it does not exist.
func (r *ResultRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.pool.Exec(ctx, resultsSchema); err != nil {
		return fmt.Errorf("creating game_results table: %w", err)
	}
	return nil
}

// RecordResult inserts one finished game. Replaying the same session ID is a
// no-op, so a retried delivery never duplicates a row.
func (r *ResultRepository) RecordResult(ctx context.Context, res game.Result) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO game_results (session_id, winner, players, started_at, finished_at, turns)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id) DO NOTHING`,
		res.SessionID, res.Winner, res.Players, res.StartedAt, res.FinishedAt, res.Turns,
	)
	if err != nil {
		return fmt.Errorf("inserting game result: %w", err)
	}
	r.log.Debug("game result recorded",
		zap.String("session_id", res.SessionID),
		zap.String("winner", res.Winner),
		zap.Int("turns", res.Turns),
	)
	return nil
}
