// Package postgres implements the record-store repositories on PostgreSQL
// via pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentorlink/mentorship-platform/internal/feed"
	"github.com/mentorlink/mentorship-platform/internal/store"
)

// Connect creates a pgx connection pool from the DSN and verifies it with a
// ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 8
	}
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// New builds a store.Store over the pool. Inserts publish change events
// through pub after the row is durable.
func New(pool *pgxpool.Pool, pub feed.Publisher) *store.Store {
	return &store.Store{
		Conversations: &conversationRepo{pool: pool, pub: pub},
		Messages:      &messageRepo{pool: pool, pub: pub},
		Profiles:      &profileRepo{pool: pool},
		Mentors:       &mentorRepo{pool: pool},
	}
}
