package game

import "testing"

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	if len(deck) != DeckSize {
		t.Fatalf("deck size = %d, want %d", len(deck), DeckSize)
	}

	seen := make(map[string]bool, DeckSize)
	perSuit := make(map[Suit]int)
	for _, c := range deck {
		if seen[c.ID] {
			t.Fatalf("duplicate card id %q", c.ID)
		}
		seen[c.ID] = true
		perSuit[c.Suit]++

		if c.Value < 1 || c.Value > 10 {
			t.Fatalf("card %s has value %d outside 1..10", c.ID, c.Value)
		}
		if c.IsAce() && c.Value != 1 {
			t.Fatalf("ace %s has base value %d, want 1", c.ID, c.Value)
		}
	}
	for _, s := range suits {
		if perSuit[s] != 13 {
			t.Fatalf("suit %s has %d cards, want 13", s, perSuit[s])
		}
	}
}

func TestShuffledDeckIsPermutation(t *testing.T) {
	deck := ShuffledDeck()
	if len(deck) != DeckSize {
		t.Fatalf("deck size = %d, want %d", len(deck), DeckSize)
	}
	seen := make(map[string]bool, DeckSize)
	for _, c := range deck {
		if seen[c.ID] {
			t.Fatalf("duplicate card id %q after shuffle", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestBestHandValue(t *testing.T) {
	byID := make(map[string]Card, DeckSize)
	for _, c := range NewDeck() {
		byID[c.ID] = c
	}
	hand := func(cardIDs ...string) []Card {
		out := make([]Card, 0, len(cardIDs))
		for _, id := range cardIDs {
			c, ok := byID[id]
			if !ok {
				t.Fatalf("unknown card %q", id)
			}
			out = append(out, c)
		}
		return out
	}

	cases := []struct {
		name     string
		hand     []Card
		total    int
		soft     bool
	}{
		{name: "hard twenty", hand: hand("KS", "QH"), total: 20, soft: false},
		{name: "blackjack", hand: hand("AS", "KS"), total: 21, soft: true},
		{name: "soft seventeen", hand: hand("AS", "6H"), total: 17, soft: true},
		{name: "two aces", hand: hand("AS", "AH"), total: 12, soft: true},
		{name: "ace forced low", hand: hand("AS", "KS", "QH"), total: 21, soft: false},
		{name: "bust", hand: hand("KS", "QH", "5D"), total: 25, soft: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total, soft := bestHandValue(tc.hand)
			if total != tc.total || soft != tc.soft {
				t.Fatalf("bestHandValue = (%d, %v), want (%d, %v)", total, soft, tc.total, tc.soft)
			}
		})
	}
}
