package game

// Hand is the ordered sequence of cards held by the player or the dealer.
type Hand []Card

// Value returns the best blackjack total of cards. Every Ace starts at 11 and
// Aces are dropped to 1 one at a time while the total is over 21, which picks
// the highest total not above 21 over all Ace assignments, or the lowest
// total when every assignment busts.
func Value(cards []Card) int {
	score := 0
	aces := 0

	for _, card := range cards {
		if card.Rank == Ace {
			aces++
		}
		score += card.GetValue()
	}

	for aces > 0 && score > 21 {
		score -= 10
		aces--
	}

	return score
}

// IsBlackjack reports whether the two cards total exactly 21.
func IsBlackjack(card1, card2 Card) bool {
	return Value([]Card{card1, card2}) == 21
}

// Value returns the hand's blackjack total.
func (h Hand) Value() int {
	return Value(h)
}

// IsBlackjack reports whether h is a two-card 21.
func (h Hand) IsBlackjack() bool {
	return len(h) == 2 && IsBlackjack(h[0], h[1])
}

// IsBust reports whether the hand total is over 21.
func (h Hand) IsBust() bool {
	return h.Value() > 21
}
