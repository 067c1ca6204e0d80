package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pontoon/cmd/internal/ids"
)

// Registry owns every live game instance, keyed by game id. The registry
// lock only protects the map; each Game carries its own lock, so operations
// on unrelated games never contend.
type Registry struct {
	log *slog.Logger

	mu    sync.RWMutex
	games map[string]*Game
}

// NewRegistry constructs an empty registry. Construct one at startup and
// pass it by handle; there is no package-level instance.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:   log,
		games: make(map[string]*Game),
	}
}

// CreateInput describes a new game.
type CreateInput struct {
	CreatorID string
	// EnrollmentTimeout bounds the lobby; zero or negative means the
	// 300s default.
	EnrollmentTimeout time.Duration
	// Rules zero value gives the standard table (10 players, dealer
	// stands on 17, including soft 17).
	Rules Rules
	// Now supplies the clock; zero means time.Now().UTC().
	Now time.Time
	// Deck fixes the draw order instead of shuffling. Deterministic
	// deals for tests; leave nil in production.
	Deck []Card
}

// Create allocates a new game in Enrollment phase with a full shuffled deck
// and no players, and returns its handle.
func (r *Registry) Create(ctx context.Context, in CreateInput) (*Game, error) {
	if in.CreatorID == "" {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := orNow(in.Now)
	timeout := in.EnrollmentTimeout
	if timeout <= 0 {
		timeout = DefaultEnrollmentTimeout
	}

	deck := in.Deck
	if deck == nil {
		deck = ShuffledDeck()
	} else {
		if len(deck) != DeckSize {
			return nil, ErrInvalidInput
		}
		deck = append([]Card(nil), deck...)
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return nil, err
	}

	g := newGame(r.log, id, in.CreatorID, now, now.Add(timeout), deck, in.Rules)

	r.mu.Lock()
	r.games[id] = g
	r.mu.Unlock()

	r.log.Info("game.create",
		"game_id", id, "creator", in.CreatorID, "deadline", g.deadline)
	return g, nil
}

// Get resolves a game id to its live instance.
func (r *Registry) Get(ctx context.Context, id string) (*Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	g, ok := r.games[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// Len reports the number of games held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
