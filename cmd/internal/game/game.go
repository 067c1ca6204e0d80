package game

import (
	"log/slog"
	"sync"
	"time"
)

// Phase is the lifecycle stage of a game. Transitions are one-directional:
// Enrollment -> Playing -> Finished.
type Phase string

const (
	PhaseEnrollment Phase = "enrollment"
	PhasePlaying    Phase = "playing"
	PhaseFinished   Phase = "finished"
)

const (
	// DefaultMaxPlayers caps enrollment per game.
	DefaultMaxPlayers = 10
	// DefaultEnrollmentTimeout is applied when a creator does not pick one.
	DefaultEnrollmentTimeout = 300 * time.Second
	// defaultDealerStandsAt is the classic draw-to-17 dealer policy.
	defaultDealerStandsAt = 17
)

// Rules are per-game knobs fixed at creation.
type Rules struct {
	// MaxPlayers caps enrollment. Zero means DefaultMaxPlayers.
	MaxPlayers int
	// DealerStandsAt is the total at which the dealer stops drawing.
	// Zero means 17.
	DealerStandsAt int
	// DealerHitsSoft17 makes the dealer draw on a soft 17 (an ace counted
	// as 11 producing exactly 17). Default false: the dealer stands.
	DealerHitsSoft17 bool
}

func (r Rules) withDefaults() Rules {
	if r.MaxPlayers <= 0 {
		r.MaxPlayers = DefaultMaxPlayers
	}
	if r.DealerStandsAt <= 0 {
		r.DealerStandsAt = defaultDealerStandsAt
	}
	return r
}

// Game is the state machine for one table: enrollment lobby, turn-ordered
// play against a single pre-shuffled deck, automatic dealer play, and a
// cached result once finished.
//
// All exported methods take the game's own lock, so operations against the
// same game are linearized while unrelated games proceed in parallel. No
// method performs I/O under the lock.
type Game struct {
	mu  sync.Mutex
	log *slog.Logger

	id        string
	creatorID string
	rules     Rules
	createdAt time.Time
	deadline  time.Time

	phase    Phase
	players  map[string]*Player
	enrolled []string // enrollment order
	order    []string // turn order, fixed at Enrollment -> Playing
	turnIdx  int      // index into order; -1 when no active player remains
	deck     []Card
	dealer   *Player
	result   *Result
}

func newGame(log *slog.Logger, id, creatorID string, createdAt, deadline time.Time, deck []Card, rules Rules) *Game {
	if log == nil {
		log = slog.Default()
	}
	return &Game{
		log:       log,
		id:        id,
		creatorID: creatorID,
		rules:     rules.withDefaults(),
		createdAt: createdAt,
		deadline:  deadline,
		phase:     PhaseEnrollment,
		players:   make(map[string]*Player),
		turnIdx:   -1,
		deck:      deck,
		dealer:    newPlayer(""),
	}
}

// ID returns the game identifier.
func (g *Game) ID() string { return g.id }

// CreatorID returns the asserted identity that created the game.
func (g *Game) CreatorID() string { return g.creatorID }

// Deadline returns the absolute enrollment deadline.
func (g *Game) Deadline() time.Time { return g.deadline }

// Phase returns the current lifecycle phase.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// IsEnrolled reports whether email has joined this game.
func (g *Game) IsEnrolled(email string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.players[email]
	return ok
}

// EnrollmentOpenAt reports whether the lobby accepts players at now.
// Expiry is evaluated lazily; there is no background timer.
func (g *Game) EnrollmentOpenAt(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enrollmentOpenLocked(orNow(now))
}

func (g *Game) enrollmentOpenLocked(now time.Time) bool {
	return g.phase == PhaseEnrollment && now.Before(g.deadline)
}

// Enroll adds email to the lobby and returns the enrolled count.
func (g *Game) Enroll(email string, now time.Time) (int, error) {
	if email == "" {
		return 0, ErrInvalidInput
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseFinished {
		return 0, ErrGameFinished
	}
	if !g.enrollmentOpenLocked(orNow(now)) {
		return 0, ErrEnrollmentClosed
	}
	if _, ok := g.players[email]; ok {
		return 0, ErrDuplicateEnrollment
	}
	if len(g.enrolled) >= g.rules.MaxPlayers {
		return 0, ErrGameFull
	}

	g.players[email] = newPlayer(email)
	g.enrolled = append(g.enrolled, email)

	g.log.Info("game.enroll", "game_id", g.id, "email", email, "enrolled", len(g.enrolled))
	return len(g.enrolled), nil
}

// CloseEnrollment fixes the turn order as a uniformly random permutation of
// the enrolled emails and moves the game to Playing. Only the creator may
// close, only once, and only while the lobby is still open.
func (g *Game) CloseEnrollment(callerID string, now time.Time) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseFinished {
		return nil, ErrGameFinished
	}
	if callerID != g.creatorID {
		return nil, ErrNotGameCreator
	}
	if !g.enrollmentOpenLocked(orNow(now)) {
		return nil, ErrEnrollmentClosed
	}
	if len(g.enrolled) == 0 {
		return nil, ErrInvalidInput
	}

	order := make([]string, len(g.enrolled))
	copy(order, g.enrolled)
	shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	g.order = order
	g.turnIdx = 0
	g.phase = PhasePlaying

	g.log.Info("game.start", "game_id", g.id, "players", len(order), "first", order[0])

	out := make([]string, len(order))
	copy(out, order)
	return out, nil
}

// CurrentPlayer returns the email whose turn it is, or false when no active
// player remains (or the game is not in Playing phase).
func (g *Game) CurrentPlayer() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentPlayerLocked()
}

func (g *Game) currentPlayerLocked() (string, bool) {
	if g.phase != PhasePlaying || g.turnIdx < 0 || g.turnIdx >= len(g.order) {
		return "", false
	}
	return g.order[g.turnIdx], true
}

// canActLocked validates that email holds the turn and is still active.
func (g *Game) canActLocked(email string) (*Player, error) {
	switch g.phase {
	case PhaseFinished:
		return nil, ErrGameFinished
	case PhaseEnrollment:
		return nil, ErrEnrollmentOpen
	}
	p, ok := g.players[email]
	if !ok {
		return nil, ErrPlayerNotEnrolled
	}
	if cur, ok := g.currentPlayerLocked(); !ok || cur != email {
		return nil, ErrNotPlayerTurn
	}
	if p.terminal() {
		return nil, ErrPlayerNotActive
	}
	return p, nil
}

// DrawResult reports the effect of a single draw.
type DrawResult struct {
	Card       Card
	Points     int
	Busted     bool
	NextPlayer string // empty when no active player remains
	Finished   bool
}

// Draw pops the next card from the pre-shuffled deck into email's hand.
// A total above 21 busts the player and advances the turn; otherwise the
// turn stays with them.
func (g *Game) Draw(email string) (DrawResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.canActLocked(email)
	if err != nil {
		return DrawResult{}, err
	}
	if len(g.deck) == 0 {
		return DrawResult{}, ErrDeckEmpty
	}

	card := g.popCardLocked()
	p.Hand = append(p.Hand, card)
	p.recomputePoints()

	busted := p.Points > BustThreshold
	if busted {
		p.State = PlayerBusted
		g.advanceTurnLocked()
	}

	g.log.Info("game.draw",
		"game_id", g.id, "email", email, "card", card.ID, "points", p.Points, "busted", busted)

	g.checkAutoFinishLocked()
	g.assertConservationLocked()

	res := DrawResult{
		Card:     card,
		Points:   p.Points,
		Busted:   busted,
		Finished: g.phase == PhaseFinished,
	}
	res.NextPlayer, _ = g.currentPlayerLocked()
	return res, nil
}

// AceResult reports the recomputed score after an ace override change.
type AceResult struct {
	Points   int
	Busted   bool
	Finished bool
}

// SetAceValue records whether the given ace counts as 11 for its owner and
// re-evaluates the hand. The owner must still be active: a player who stood
// or busted on an earlier turn can no longer reinterpret their aces. Unlike
// Draw and Stand this does not require holding the turn.
func (g *Game) SetAceValue(email, cardID string, asEleven bool) (AceResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case PhaseFinished:
		return AceResult{}, ErrGameFinished
	case PhaseEnrollment:
		return AceResult{}, ErrEnrollmentOpen
	}
	p, ok := g.players[email]
	if !ok {
		return AceResult{}, ErrPlayerNotEnrolled
	}
	if p.terminal() {
		return AceResult{}, ErrPlayerNotActive
	}
	card, ok := p.ownsCard(cardID)
	if !ok || !card.IsAce() {
		return AceResult{}, ErrInvalidInput
	}

	if asEleven {
		p.AceElevens[cardID] = true
	} else {
		delete(p.AceElevens, cardID)
	}
	p.recomputePoints()

	busted := p.Points > BustThreshold
	if busted {
		p.State = PlayerBusted
		if cur, ok := g.currentPlayerLocked(); ok && cur == email {
			g.advanceTurnLocked()
		}
	}

	g.log.Info("game.ace",
		"game_id", g.id, "email", email, "card", cardID, "as_eleven", asEleven,
		"points", p.Points, "busted", busted)

	g.checkAutoFinishLocked()

	return AceResult{Points: p.Points, Busted: busted, Finished: g.phase == PhaseFinished}, nil
}

// StandResult reports the effect of standing.
type StandResult struct {
	Points     int
	Busted     bool
	Finished   bool
	NextPlayer string
}

// Stand ends email's participation for this game and advances the turn.
func (g *Game) Stand(email string) (StandResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.canActLocked(email)
	if err != nil {
		return StandResult{}, err
	}

	p.State = PlayerStanding
	g.advanceTurnLocked()

	g.log.Info("game.stand", "game_id", g.id, "email", email, "points", p.Points)

	g.checkAutoFinishLocked()

	res := StandResult{
		Points:   p.Points,
		Finished: g.phase == PhaseFinished,
	}
	res.NextPlayer, _ = g.currentPlayerLocked()
	return res, nil
}

// Finish force-ends a Playing game: the dealer plays out and the result is
// computed with every remaining active player scored on their current hand.
// Normally the game finishes on its own when the last player goes terminal;
// Finish is the escape hatch for a stalled table.
func (g *Game) Finish(now time.Time) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case PhaseFinished:
		return Result{}, ErrGameFinished
	case PhaseEnrollment:
		return Result{}, ErrEnrollmentOpen
	}

	g.finishLocked(orNow(now))
	return g.result.clone(), nil
}

// Results returns the cached result of a finished game. The same result is
// returned for every call thereafter.
func (g *Game) Results() (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseFinished {
		return Result{}, ErrGameNotFinished
	}
	return g.result.clone(), nil
}

// advanceTurnLocked scans forward cyclically from the slot after the current
// one for the next active player. The scan is bounded by len(order); when a
// full cycle finds nobody the turn cursor clears, which is the trigger
// condition for dealer auto-play rather than an error.
func (g *Game) advanceTurnLocked() {
	if g.turnIdx < 0 {
		return
	}
	n := len(g.order)
	for i := 1; i <= n; i++ {
		idx := (g.turnIdx + i) % n
		if p := g.players[g.order[idx]]; p != nil && !p.terminal() {
			g.turnIdx = idx
			return
		}
	}
	g.turnIdx = -1
}

// checkAutoFinishLocked finishes the game once every enrolled player is
// terminal. The phase check guards idempotency: the transition body runs at
// most once per game.
func (g *Game) checkAutoFinishLocked() {
	if g.phase != PhasePlaying {
		return
	}
	for _, email := range g.order {
		if !g.players[email].terminal() {
			return
		}
	}
	g.finishLocked(time.Now().UTC())
}

// finishLocked plays the dealer, fixes the result, and moves to Finished.
// Callers must have verified phase == PhasePlaying.
func (g *Game) finishLocked(now time.Time) {
	// A forced finish can arrive while players are still active; they are
	// stood on whatever they hold. No-op on the auto-finish path.
	for _, email := range g.order {
		if p := g.players[email]; !p.terminal() {
			p.State = PlayerStanding
		}
	}

	d := g.dealer
	for {
		total, soft := bestHandValue(d.Hand)
		if total >= g.rules.DealerStandsAt {
			if !(g.rules.DealerHitsSoft17 && soft && total == g.rules.DealerStandsAt) {
				break
			}
		}
		if len(g.deck) == 0 {
			// Deck exhausted: the dealer stands on whatever they hold.
			break
		}
		card := g.popCardLocked()
		d.Hand = append(d.Hand, card)
		total, _ = bestHandValue(d.Hand)
		g.log.Info("game.dealer.draw", "game_id", g.id, "card", card.ID, "points", total)
	}

	// Record the best reading in the override table so the dealer's hand
	// reports points the same way player hands do.
	g.applyBestAcesLocked(d)
	d.recomputePoints()
	if d.Points > BustThreshold {
		d.State = PlayerBusted
	} else {
		d.State = PlayerStanding
	}

	g.phase = PhaseFinished
	g.turnIdx = -1
	res := g.scoreLocked(now)
	g.result = &res

	g.assertConservationLocked()
	g.log.Info("game.finish",
		"game_id", g.id, "dealer_points", d.Points, "dealer_busted", d.State == PlayerBusted)
}

// applyBestAcesLocked marks aces as 11 greedily while they fit under 21.
func (g *Game) applyBestAcesLocked(p *Player) {
	total, _ := bestHandValue(p.Hand)
	base := 0
	for _, c := range p.Hand {
		base += c.Value
	}
	elevens := (total - base) / 10
	for _, c := range p.Hand {
		if elevens == 0 {
			break
		}
		if c.IsAce() {
			p.AceElevens[c.ID] = true
			elevens--
		}
	}
}

func (g *Game) popCardLocked() Card {
	card := g.deck[0]
	g.deck = g.deck[1:]
	return card
}

// assertConservationLocked verifies the 52-card partition across deck,
// player hands, and the dealer's hand. A breach means the state machine is
// corrupt, so it aborts loudly instead of playing on.
func (g *Game) assertConservationLocked() {
	seen := make(map[string]struct{}, DeckSize)
	count := 0
	track := func(cards []Card) {
		for _, c := range cards {
			if _, dup := seen[c.ID]; dup {
				panic("game: card conservation breach: duplicate card " + c.ID + " in game " + g.id)
			}
			seen[c.ID] = struct{}{}
			count++
		}
	}
	track(g.deck)
	for _, p := range g.players {
		track(p.Hand)
	}
	track(g.dealer.Hand)
	if count != DeckSize {
		panic("game: card conservation breach: wrong card count in game " + g.id)
	}
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
