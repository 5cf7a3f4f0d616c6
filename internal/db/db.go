// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldmark/booking-analytics/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers the statements the analytics read
// paths use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Users
		"all_user_ids": "SELECT id FROM users ORDER BY id",

		// Games — the three filter shapes the analytics computations issue
		"games_since": `
			SELECT id, field_id, location, start_time, user_ids
			FROM games WHERE start_time >= $1`,
		"games_by_participant_recent": `
			SELECT id, field_id, location, start_time, user_ids
			FROM games WHERE $1 = ANY(user_ids)
			ORDER BY start_time DESC, id ASC
			LIMIT $2`,
		"games_on_field_between": `
			SELECT id, field_id, location, start_time, user_ids
			FROM games WHERE field_id = $1 AND start_time BETWEEN $2 AND $3`,

		// Reviews
		"review_by_user_game": `
			SELECT id, game_id, user_id, rating, COALESCE(comment, ''), created_at
			FROM reviews WHERE user_id = $1 AND game_id = $2`,

		// Fields
		"field_by_id": `
			SELECT id, name, description, location
			FROM fields WHERE id = $1`,
		"field_slots": `
			SELECT slot_from, slot_to
			FROM field_availability WHERE field_id = $1
			ORDER BY slot_from`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
