// Package history archives the results of finished games. The game core
// owns truth in process memory; the archive is a best-effort record for
// listing past outcomes and survives restarts only with the Postgres store.
package history

import (
	"context"
	"errors"
	"time"

	"pontoon/cmd/internal/game"
)

var ErrInvalidInput = errors.New("invalid input")

// Record is one archived game result.
type Record struct {
	GameID       string              `json:"game_id"`
	FinishedAt   time.Time           `json:"finished_at"`
	DealerPoints int                 `json:"dealer_points"`
	DealerBusted bool                `json:"dealer_busted"`
	Winner       string              `json:"winner,omitempty"`
	HighestScore int                 `json:"highest_score"`
	Players      []game.PlayerResult `json:"players"`
}

// RecordOf flattens a game result into an archive record.
func RecordOf(res game.Result) Record {
	return Record{
		GameID:       res.GameID,
		FinishedAt:   res.FinishedAt,
		DealerPoints: res.DealerPoints,
		DealerBusted: res.DealerBusted,
		Winner:       res.Winner,
		HighestScore: res.HighestScore,
		Players:      append([]game.PlayerResult(nil), res.Players...),
	}
}

// Store is the persistence boundary for archived results.
type Store interface {
	Save(ctx context.Context, rec Record) error
	// ListRecent returns records newest-first, at most limit.
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
