package game

// PlayerState is the per-game lifecycle state of one participant.
// Transitions are monotonic: Active -> Standing | Busted, both terminal.
type PlayerState string

const (
	PlayerActive   PlayerState = "active"
	PlayerStanding PlayerState = "standing"
	PlayerBusted   PlayerState = "busted"
)

// BustThreshold is the point total above which a hand is busted.
const BustThreshold = 21

// Player holds one participant's hand and derived score. The dealer is a
// Player without an enrollment identity. All fields are owned by the
// enclosing Game and mutated only under its lock.
type Player struct {
	Email      string
	Hand       []Card
	AceElevens map[string]bool // card id -> count this ace as 11
	Points     int
	State      PlayerState
}

func newPlayer(email string) *Player {
	return &Player{
		Email:      email,
		AceElevens: make(map[string]bool),
		State:      PlayerActive,
	}
}

// terminal reports whether the player can take no further actions.
func (p *Player) terminal() bool { return p.State != PlayerActive }

// recomputePoints derives the point total from the hand: every card counts
// its base value, except aces with an explicit override count 11.
func (p *Player) recomputePoints() {
	total := 0
	for _, c := range p.Hand {
		if c.IsAce() && p.AceElevens[c.ID] {
			total += 11
			continue
		}
		total += c.Value
	}
	p.Points = total
}

// ownsCard reports whether cardID is in the player's hand, returning the card.
func (p *Player) ownsCard(cardID string) (Card, bool) {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return c, true
		}
	}
	return Card{}, false
}

// bestHandValue returns the highest total not exceeding 21 when one is
// reachable (counting aces as 11 where they fit), along with whether that
// total is soft, i.e. includes an ace counted as 11. Used for dealer play,
// where the dealer always takes the best legal reading of their hand.
func bestHandValue(hand []Card) (total int, soft bool) {
	aces := 0
	for _, c := range hand {
		total += c.Value
		if c.IsAce() {
			aces++
		}
	}
	for ; aces > 0 && total+10 <= BustThreshold; aces-- {
		total += 10
		soft = true
	}
	return total, soft
}
