package game

type Suit string
type Rank string

const (
	Hearts   Suit = "Hearts"
	Diamonds Suit = "Diamonds"
	Clubs    Suit = "Clubs"
	Spades   Suit = "Spades"
)

const (
	Ace   Rank = "Ace"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "Jack"
	Queen Rank = "Queen"
	King  Rank = "King"
)

// Suits and Ranks list the universe a deck is built from.
var (
	Suits = []Suit{Clubs, Diamonds, Hearts, Spades}
	Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}
)

// Card is an immutable (Rank, Suit) pair. Two cards are the same card when
// both fields match.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// GetValue returns the blackjack value of the card
func (c Card) GetValue() int {
	switch c.Rank {
	case Ace:
		return 11 // downgraded to 1 by Value when the hand would bust
	case Ten, Jack, Queen, King:
		return 10
	case Two:
		return 2
	case Three:
		return 3
	case Four:
		return 4
	case Five:
		return 5
	case Six:
		return 6
	case Seven:
		return 7
	case Eight:
		return 8
	case Nine:
		return 9
	default:
		return 0
	}
}

// String renders the card in short form, e.g. "A♠" or "10♥".
func (c Card) String() string {
	var r string
	switch c.Rank {
	case Ace:
		r = "A"
	case Jack:
		r = "J"
	case Queen:
		r = "Q"
	case King:
		r = "K"
	default:
		r = string(c.Rank)
	}

	switch c.Suit {
	case Clubs:
		return r + "♣"
	case Diamonds:
		return r + "♦"
	case Hearts:
		return r + "♥"
	case Spades:
		return r + "♠"
	default:
		return r + "?"
	}
}
