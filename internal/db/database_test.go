package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "data", "blackjack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestInsertAndGetGame(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	row := GameRow{ID: "g1", IP: "10.0.0.1", Win: true, PlayerHandTotal: 20, DealerHandTotal: 18, CreatedAt: created}
	require.NoError(t, d.InsertGame(ctx, row))

	got, err := d.GetGame(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, row.IP, got.IP)
	assert.True(t, got.Win)
	assert.Equal(t, 20, got.PlayerHandTotal)
	assert.Equal(t, 18, got.DealerHandTotal)
	assert.True(t, created.Equal(got.CreatedAt))

	missing, err := d.GetGame(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, d.InsertGame(ctx, row), "duplicate id")
}

func TestGameStats(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	rows := []GameRow{
		{ID: "a", IP: "1.1.1.1", Win: true, PlayerHandTotal: 20, DealerHandTotal: 22},
		{ID: "b", IP: "1.1.1.1", Win: false, PlayerHandTotal: 22, DealerHandTotal: 18},
		{ID: "c", IP: "1.1.1.1", Win: false, PlayerHandTotal: 19, DealerHandTotal: 19},
		{ID: "d", IP: "2.2.2.2", Win: false, PlayerHandTotal: 17, DealerHandTotal: 20},
	}
	for _, r := range rows {
		r.CreatedAt = time.Now().UTC()
		require.NoError(t, d.InsertGame(ctx, r))
	}

	c, err := d.GameStats(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, GameCounts{Games: 3, Wins: 1, Losses: 1}, c)

	c, err = d.GameStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, GameCounts{Games: 4, Wins: 1, Losses: 2}, c)

	c, err = d.GameStats(ctx, "9.9.9.9")
	require.NoError(t, err)
	assert.Equal(t, GameCounts{}, c)
}

func TestRebind(t *testing.T) {
	pg := &Database{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM games WHERE id = $1 AND ip = $2", pg.rebind("SELECT * FROM games WHERE id = ? AND ip = ?"))

	lite := &Database{driver: DriverSQLite}
	assert.Equal(t, "WHERE id = ?", lite.rebind("WHERE id = ?"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}
