package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record ID is unknown.
var ErrNotFound = errors.New("record not found")

// Record is one finished round as submitted by a client.
type Record struct {
	ID              string    `json:"id"`
	IP              string    `json:"ip"`
	Win             bool      `json:"win"`
	PlayerHandTotal int       `json:"playerHandTotal"`
	DealerHandTotal int       `json:"dealerHandTotal"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Stats aggregates recorded rounds. A round that is neither a win nor a loss
// by the table rules is counted as a draw.
type Stats struct {
	IP     string `json:"ip,omitempty"`
	Games  int    `json:"games"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
}

// RecordStore defines the interface for round record storage. Records are
// append-only.
type RecordStore interface {
	// SaveRecord stores r under a newly generated ID and returns that ID.
	SaveRecord(ctx context.Context, r Record) (string, error)

	// GetRecord retrieves a record by ID
	GetRecord(ctx context.Context, id string) (Record, error)

	// Stats aggregates the records of one caller, or of everyone if ip is empty
	Stats(ctx context.Context, ip string) (Stats, error)
}

// tally folds r into s.
func (s *Stats) tally(r Record) {
	s.Games++
	switch {
	case r.Win:
		s.Wins++
	case r.PlayerHandTotal > 21 || (r.DealerHandTotal <= 21 && r.DealerHandTotal > r.PlayerHandTotal):
		s.Losses++
	default:
		s.Draws++
	}
}
