// Package game implements the core 21 state machine: deck and hand
// mechanics, enrollment, turn order, dealer auto-play, scoring, and the
// concurrency-safe registry of independent game instances.
package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Suit is one of the four standard playing-card suits.
type Suit string

const (
	SuitSpades   Suit = "S"
	SuitHearts   Suit = "H"
	SuitDiamonds Suit = "D"
	SuitClubs    Suit = "C"
)

var suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

var ranks = []struct {
	Name  string
	Value int
}{
	{"A", 1},
	{"2", 2}, {"3", 3}, {"4", 4}, {"5", 5}, {"6", 6},
	{"7", 7}, {"8", 8}, {"9", 9}, {"10", 10},
	{"J", 10}, {"Q", 10}, {"K", 10},
}

// Card is immutable domain data. ID is unique within a deck (rank + suit,
// e.g. "AS", "10H"). Value is the base point value with aces counted as 1;
// the per-player ace override lives on Player, never on the Card itself.
type Card struct {
	ID    string `json:"id"`
	Rank  string `json:"rank"`
	Suit  Suit   `json:"suit"`
	Value int    `json:"value"`
}

// IsAce reports whether the card may be counted as 11 via an override.
func (c Card) IsAce() bool { return c.Rank == "A" }

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// NewDeck returns the full 52-card deck in canonical order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range suits {
		for _, r := range ranks {
			deck = append(deck, Card{
				ID:    r.Name + string(s),
				Rank:  r.Name,
				Suit:  s,
				Value: r.Value,
			})
		}
	}
	return deck
}

// ShuffledDeck returns a freshly shuffled 52-card deck. The shuffle is a
// Fisher-Yates pass driven by crypto/rand so draw order is not predictable
// to players.
func ShuffledDeck() []Card {
	deck := NewDeck()
	shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

func shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, cryptoIntn(i+1))
	}
}

func cryptoIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// No entropy means no fair game; fail loudly.
		panic(fmt.Sprintf("game: crypto/rand failed: %v", err))
	}
	return int(v.Int64())
}
