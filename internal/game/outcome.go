package game

type Outcome string

const (
	Win  Outcome = "win"
	Lose Outcome = "lose"
	Draw Outcome = "draw"
)

// Result is the final tally of a finished round.
type Result struct {
	PlayerTotal int     `json:"playerTotal"`
	DealerTotal int     `json:"dealerTotal"`
	Outcome     Outcome `json:"outcome"`
}

// Won reports whether the player won the round.
func (r Result) Won() bool {
	return r.Outcome == Win
}

// Determine resolves a round from the final totals. The loss check runs
// first, so a player bust loses even when the dealer busts too.
func Determine(playerTotal, dealerTotal int) Outcome {
	switch {
	case playerTotal > 21 || (dealerTotal <= 21 && dealerTotal > playerTotal):
		return Lose
	case dealerTotal > 21 || playerTotal > dealerTotal:
		return Win
	default:
		return Draw
	}
}

// Message is the line shown to the player when the round ends.
func (o Outcome) Message() string {
	switch o {
	case Win:
		return "You win!"
	case Lose:
		return "You lose!"
	default:
		return "It's a draw!"
	}
}
