// Package invite manages time-boxed offers to join a specific game. An
// invitation expires with its game's enrollment deadline, and accepting one
// converges into the same enroll path as joining directly.
package invite

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"pontoon/cmd/internal/game"
	"pontoon/cmd/internal/ids"
)

// Status is the invitation lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
)

// Invitation is one offer to join a game. ExpiresAt mirrors the game's
// enrollment deadline; expiry is evaluated lazily, never by a timer.
type Invitation struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	Inviter   string    `json:"inviter"`
	Invitee   string    `json:"invitee"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service owns all invitations in memory, alongside the games they point at.
type Service struct {
	log   *slog.Logger
	games *game.Registry

	mu   sync.Mutex
	byID map[string]*Invitation
}

// NewService constructs a Service bound to the game registry.
func NewService(log *slog.Logger, games *game.Registry) (*Service, error) {
	if games == nil {
		return nil, ErrInvalidInput
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		log:   log,
		games: games,
		byID:  make(map[string]*Invitation),
	}, nil
}

// CreateInput describes a new invitation. Now supplies the clock; zero
// means time.Now().UTC().
type CreateInput struct {
	GameID  string
	Inviter string
	Invitee string
	Now     time.Time
}

// Create issues an invitation to Invitee for a game whose enrollment is
// still open. The inviter must already be enrolled.
func (s *Service) Create(ctx context.Context, in CreateInput) (Invitation, error) {
	if err := ctx.Err(); err != nil {
		return Invitation{}, err
	}
	inviter := strings.TrimSpace(in.Inviter)
	invitee := strings.TrimSpace(in.Invitee)
	if inviter == "" || invitee == "" {
		return Invitation{}, ErrInvalidInput
	}
	now := orNow(in.Now)

	g, err := s.games.Get(ctx, in.GameID)
	if err != nil {
		return Invitation{}, err
	}
	if !g.EnrollmentOpenAt(now) {
		return Invitation{}, game.ErrEnrollmentClosed
	}
	if !g.IsEnrolled(inviter) {
		return Invitation{}, game.ErrPlayerNotEnrolled
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Invitation{}, err
	}
	inv := &Invitation{
		ID:        id,
		GameID:    g.ID(),
		Inviter:   inviter,
		Invitee:   invitee,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: g.Deadline(),
	}

	s.mu.Lock()
	s.byID[id] = inv
	s.mu.Unlock()

	s.log.Info("invite.create",
		"invitation_id", id, "game_id", g.ID(), "inviter", inviter, "invitee", invitee)
	return *inv, nil
}

// DecisionInput identifies an invitation and the caller deciding on it.
type DecisionInput struct {
	ID    string
	Email string
	Now   time.Time
}

// Accept enrolls the invitee into the game, running the same capacity and
// duplicate checks as a direct enroll, and marks the invitation Accepted.
// Returns the invitation and the enrolled player count.
func (s *Service) Accept(ctx context.Context, in DecisionInput) (Invitation, int, error) {
	now := orNow(in.Now)

	inv, err := s.takePending(ctx, in, now)
	if err != nil {
		return Invitation{}, 0, err
	}

	g, err := s.games.Get(ctx, inv.GameID)
	if err != nil {
		return Invitation{}, 0, err
	}
	enrolled, err := g.Enroll(inv.Invitee, now)
	if err != nil {
		// Enrollment failures (full, duplicate, closed) surface verbatim
		// and leave the invitation Pending.
		return Invitation{}, 0, err
	}

	s.mu.Lock()
	inv.Status = StatusAccepted
	out := *inv
	s.mu.Unlock()

	s.log.Info("invite.accept", "invitation_id", inv.ID, "game_id", inv.GameID, "invitee", inv.Invitee)
	return out, enrolled, nil
}

// Decline marks the invitation Declined.
func (s *Service) Decline(ctx context.Context, in DecisionInput) (Invitation, error) {
	inv, err := s.takePending(ctx, in, orNow(in.Now))
	if err != nil {
		return Invitation{}, err
	}

	s.mu.Lock()
	inv.Status = StatusDeclined
	out := *inv
	s.mu.Unlock()

	s.log.Info("invite.decline", "invitation_id", inv.ID, "game_id", inv.GameID, "invitee", inv.Invitee)
	return out, nil
}

// takePending resolves a decision input to a still-pending, unexpired
// invitation owned by the caller. Expired-but-pending invitations are
// transitioned to Expired on the way.
func (s *Service) takePending(ctx context.Context, in DecisionInput, now time.Time) (*Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.ID == "" || strings.TrimSpace(in.Email) == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.byID[in.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if inv.Invitee != strings.TrimSpace(in.Email) {
		return nil, ErrNotInvitee
	}
	if inv.Status == StatusPending && !now.Before(inv.ExpiresAt) {
		inv.Status = StatusExpired
	}
	switch inv.Status {
	case StatusPending:
		return inv, nil
	case StatusExpired:
		return nil, ErrExpired
	default:
		// Already accepted or declined; no longer an open invitation.
		return nil, ErrNotFound
	}
}

// ListPending returns the caller's pending invitations, oldest first. Any
// invitation whose deadline has passed is moved to Expired first and
// excluded from the result.
func (s *Service) ListPending(ctx context.Context, email string, now time.Time) ([]Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrInvalidInput
	}
	now = orNow(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Invitation
	for _, inv := range s.byID {
		if inv.Invitee != email {
			continue
		}
		if inv.Status == StatusPending && !now.Before(inv.ExpiresAt) {
			inv.Status = StatusExpired
		}
		if inv.Status == StatusPending {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
