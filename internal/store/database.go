package store

import (
	"context"
	"time"

	"github.com/calvinwijaya/blackjack/internal/db"
	"github.com/google/uuid"
)

// DatabaseStore is a database implementation of record storage
type DatabaseStore struct {
	db *db.Database
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.Database) *DatabaseStore {
	return &DatabaseStore{
		db: database,
	}
}

// SaveRecord inserts a record into the games table
func (s *DatabaseStore) SaveRecord(ctx context.Context, r Record) (string, error) {
	row := db.GameRow{
		ID:              uuid.New().String(),
		IP:              r.IP,
		Win:             r.Win,
		PlayerHandTotal: r.PlayerHandTotal,
		DealerHandTotal: r.DealerHandTotal,
		CreatedAt:       r.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	if err := s.db.InsertGame(ctx, row); err != nil {
		return "", err
	}
	return row.ID, nil
}

// GetRecord retrieves a record by ID
func (s *DatabaseStore) GetRecord(ctx context.Context, id string) (Record, error) {
	row, err := s.db.GetGame(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if row == nil {
		return Record{}, ErrNotFound
	}

	return Record{
		ID:              row.ID,
		IP:              row.IP,
		Win:             row.Win,
		PlayerHandTotal: row.PlayerHandTotal,
		DealerHandTotal: row.DealerHandTotal,
		CreatedAt:       row.CreatedAt,
	}, nil
}

// Stats aggregates the games table
func (s *DatabaseStore) Stats(ctx context.Context, ip string) (Stats, error) {
	counts, err := s.db.GameStats(ctx, ip)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		IP:     ip,
		Games:  counts.Games,
		Wins:   counts.Wins,
		Losses: counts.Losses,
		Draws:  counts.Games - counts.Wins - counts.Losses,
	}, nil
}
