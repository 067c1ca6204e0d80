package history

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pontoon/cmd/internal/game"
)

// PostgresStore archives results in PostgreSQL.
//
// Expected schema (managed externally, not by this store):
//
//	CREATE TABLE pontoon.results (
//	    game_id        text PRIMARY KEY,
//	    finished_at    timestamptz NOT NULL,
//	    dealer_points  int NOT NULL,
//	    dealer_busted  boolean NOT NULL,
//	    winner         text NOT NULL DEFAULT '',
//	    highest_score  int NOT NULL,
//	    players        jsonb NOT NULL
//	);
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// StoreOption configures PostgresStore.
type StoreOption func(*PostgresStore) error

// WithSchema sets the DB schema used by the store (default: "pontoon").
func WithSchema(schema string) StoreOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return ErrInvalidInput
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore. The pool is owned by the
// caller; Close here is a no-op.
func NewPostgresStore(pool *pgxpool.Pool, opts ...StoreOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "pontoon"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, ErrInvalidInput
	}
	return st, nil
}

// Close is a no-op; the pool lifecycle belongs to the app.
func (s *PostgresStore) Close() error { return nil }

// Save upserts one finished game. Finished games never change, so a replay
// of the same game id is a harmless overwrite with identical data.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.GameID == "" {
		return ErrInvalidInput
	}

	players, err := json.Marshal(rec.Players)
	if err != nil {
		return err
	}

	results := pgIdent(s.schema, "results")
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+results+` (
		     game_id, finished_at, dealer_points, dealer_busted, winner, highest_score, players
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7)
		   ON CONFLICT (game_id) DO NOTHING`,
		rec.GameID,
		rec.FinishedAt,
		rec.DealerPoints,
		rec.DealerBusted,
		rec.Winner,
		rec.HighestScore,
		players,
	)
	return err
}

// ListRecent returns archived results newest-first.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.pool == nil {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	results := pgIdent(s.schema, "results")
	rows, err := s.pool.Query(ctx,
		`SELECT game_id, finished_at, dealer_points, dealer_busted, winner, highest_score, players
		   FROM `+results+`
		  ORDER BY finished_at DESC
		  LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var players []byte
		if err := rows.Scan(
			&rec.GameID,
			&rec.FinishedAt,
			&rec.DealerPoints,
			&rec.DealerBusted,
			&rec.Winner,
			&rec.HighestScore,
			&players,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(players, &rec.Players); err != nil {
			return nil, err
		}
		if rec.Players == nil {
			rec.Players = []game.PlayerResult{}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func pgIdent(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}
