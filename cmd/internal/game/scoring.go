package game

import "time"

// Outcome is a player's result against the dealer.
type Outcome string

const (
	OutcomeWon    Outcome = "won"
	OutcomeLost   Outcome = "lost"
	OutcomePush   Outcome = "push"
	OutcomeBusted Outcome = "busted"
)

// PlayerResult is one player's line in a finished game.
type PlayerResult struct {
	Email      string  `json:"email"`
	Points     int     `json:"points"`
	CardsCount int     `json:"cards_count"`
	Busted     bool    `json:"busted"`
	Outcome    Outcome `json:"outcome"`
}

// Result is the immutable outcome of a finished game. Players are listed in
// turn order. Winner, TiedPlayers, and HighestScore are the legacy fields
// computed ignoring the dealer; they are populated from the same hands as
// the per-player outcomes, which is the backward-compatibility contract.
type Result struct {
	GameID       string         `json:"game_id"`
	FinishedAt   time.Time      `json:"finished_at"`
	Players      []PlayerResult `json:"players"`
	DealerPoints int            `json:"dealer_points"`
	DealerBusted bool           `json:"dealer_busted"`
	Winner       string         `json:"winner,omitempty"`
	TiedPlayers  []string       `json:"tied_players,omitempty"`
	HighestScore int            `json:"highest_score"`
}

func (r *Result) clone() Result {
	out := *r
	out.Players = append([]PlayerResult(nil), r.Players...)
	out.TiedPlayers = append([]string(nil), r.TiedPlayers...)
	return out
}

// scoreLocked computes the result of a finished game. It is a pure read of
// game state: busted players lose outright, everyone else wins when the
// dealer busts, and otherwise compares points against the dealer's total.
func (g *Game) scoreLocked(now time.Time) Result {
	dealerBusted := g.dealer.State == PlayerBusted

	res := Result{
		GameID:       g.id,
		FinishedAt:   now,
		Players:      make([]PlayerResult, 0, len(g.order)),
		DealerPoints: g.dealer.Points,
		DealerBusted: dealerBusted,
	}

	for _, email := range g.order {
		p := g.players[email]
		pr := PlayerResult{
			Email:      email,
			Points:     p.Points,
			CardsCount: len(p.Hand),
			Busted:     p.State == PlayerBusted,
		}
		switch {
		case pr.Busted:
			pr.Outcome = OutcomeBusted
		case dealerBusted:
			pr.Outcome = OutcomeWon
		case p.Points > g.dealer.Points:
			pr.Outcome = OutcomeWon
		case p.Points == g.dealer.Points:
			pr.Outcome = OutcomePush
		default:
			pr.Outcome = OutcomeLost
		}
		res.Players = append(res.Players, pr)
	}

	// Legacy winner/tie fields ignore the dealer: highest score among
	// non-busted players, a unique winner or the full tied set.
	var top []string
	for _, pr := range res.Players {
		if pr.Busted {
			continue
		}
		switch {
		case pr.Points > res.HighestScore:
			res.HighestScore = pr.Points
			top = []string{pr.Email}
		case pr.Points == res.HighestScore && res.HighestScore > 0:
			top = append(top, pr.Email)
		}
	}
	switch {
	case len(top) == 1:
		res.Winner = top[0]
	case len(top) > 1:
		res.TiedPlayers = top
	}

	return res
}
