package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/calvinwijaya/blackjack/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseStore(t *testing.T) {
	database, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "games.db"))
	require.NoError(t, err)
	defer database.Close()

	s := NewDatabaseStore(database)
	ctx := context.Background()

	id, err := s.SaveRecord(ctx, Record{IP: "10.1.1.1", Win: false, PlayerHandTotal: 19, DealerHandTotal: 19})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	r, err := s.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", r.IP)
	assert.Equal(t, 19, r.PlayerHandTotal)

	_, err = s.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SaveRecord(ctx, Record{IP: "10.1.1.1", Win: true, PlayerHandTotal: 21, DealerHandTotal: 20})
	require.NoError(t, err)

	stats, err := s.Stats(ctx, "10.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, Stats{IP: "10.1.1.1", Games: 2, Wins: 1, Draws: 1}, stats)
}
