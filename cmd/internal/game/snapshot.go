package game

import "time"

// PlayerView is a player's hand as seen in a snapshot.
type PlayerView struct {
	Email  string      `json:"email"`
	Hand   []Card      `json:"hand"`
	Points int         `json:"points"`
	State  PlayerState `json:"state"`
}

// Snapshot is a consistent point-in-time view of one game, safe to hand out
// and serialize after the game's lock is released.
type Snapshot struct {
	GameID         string       `json:"game_id"`
	CreatorID      string       `json:"creator_id"`
	Phase          Phase        `json:"phase"`
	Deadline       time.Time    `json:"enrollment_deadline"`
	Players        []PlayerView `json:"players"`
	TurnOrder      []string     `json:"turn_order,omitempty"`
	CurrentPlayer  string       `json:"current_player,omitempty"`
	Dealer         PlayerView   `json:"dealer"`
	CardsRemaining int          `json:"cards_remaining"`
	Result         *Result      `json:"result,omitempty"`
}

// Snapshot returns the game's observable state. Players appear in turn
// order once play has started, in enrollment order before that.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	listing := g.order
	if g.phase == PhaseEnrollment {
		listing = g.enrolled
	}

	snap := Snapshot{
		GameID:         g.id,
		CreatorID:      g.creatorID,
		Phase:          g.phase,
		Deadline:       g.deadline,
		Players:        make([]PlayerView, 0, len(listing)),
		TurnOrder:      append([]string(nil), g.order...),
		Dealer:         viewOf(g.dealer),
		CardsRemaining: len(g.deck),
	}
	for _, email := range listing {
		snap.Players = append(snap.Players, viewOf(g.players[email]))
	}
	snap.CurrentPlayer, _ = g.currentPlayerLocked()
	if g.result != nil {
		res := g.result.clone()
		snap.Result = &res
	}
	return snap
}

func viewOf(p *Player) PlayerView {
	return PlayerView{
		Email:  p.Email,
		Hand:   append([]Card(nil), p.Hand...),
		Points: p.Points,
		State:  p.State,
	}
}
