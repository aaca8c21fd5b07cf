package game

import (
	"math/rand"
	"time"
)

type Deck struct {
	Cards []Card
	rng   *rand.Rand
}

// NewDeck creates a new standard 52-card deck. Draws are picked with rng; a
// nil rng gets a time-seeded source.
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	deck := &Deck{
		Cards: make([]Card, 0, len(Suits)*len(Ranks)),
		rng:   rng,
	}
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck.Cards = append(deck.Cards, Card{Suit: suit, Rank: rank})
		}
	}

	return deck
}

// Draw removes a uniformly random card from the deck and returns it.
func (d *Deck) Draw() (Card, error) {
	n := len(d.Cards)
	if n == 0 {
		return Card{}, ErrEmptyDeck
	}

	i := d.rng.Intn(n)
	card := d.Cards[i]

	// order of the remaining cards carries no meaning, so swap-remove
	d.Cards[i] = d.Cards[n-1]
	d.Cards = d.Cards[:n-1]
	return card, nil
}

// RemainingCards returns the number of cards left in the deck
func (d *Deck) RemainingCards() int {
	return len(d.Cards)
}
