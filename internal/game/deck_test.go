package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(1)))
	require.Equal(t, 52, deck.RemainingCards())

	seen := make(map[Card]bool)
	for _, c := range deck.Cards {
		assert.False(t, seen[c], "duplicate card %v", c)
		seen[c] = true
	}
	for _, s := range Suits {
		for _, r := range Ranks {
			assert.True(t, seen[Card{Suit: s, Rank: r}])
		}
	}
}

func TestDeckDrawRemovesCard(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(7)))

	drawn := make(map[Card]bool)
	for i := 0; i < 52; i++ {
		c, err := deck.Draw()
		require.NoError(t, err)
		assert.False(t, drawn[c], "card %v drawn twice", c)
		assert.NotContains(t, deck.Cards, c)
		drawn[c] = true
		assert.Equal(t, 51-i, deck.RemainingCards())
	}

	_, err := deck.Draw()
	assert.ErrorIs(t, err, ErrEmptyDeck)
}

func TestDeckDrawIsSeeded(t *testing.T) {
	a := NewDeck(rand.New(rand.NewSource(42)))
	b := NewDeck(rand.New(rand.NewSource(42)))
	for i := 0; i < 10; i++ {
		ca, _ := a.Draw()
		cb, _ := b.Draw()
		assert.Equal(t, ca, cb)
	}
}
