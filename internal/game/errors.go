package game

import "errors"

var (
	// ErrEmptyDeck is returned when a card is drawn from an empty deck.
	ErrEmptyDeck = errors.New("deck is empty")

	// ErrInvalidTransition is returned when a command is not allowed in the
	// session's current state. The session is left untouched.
	ErrInvalidTransition = errors.New("invalid transition")
)
