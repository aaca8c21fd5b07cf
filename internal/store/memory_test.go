package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSaveAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.SaveRecord(ctx, Record{IP: "127.0.0.1", Win: true, PlayerHandTotal: 20, DealerHandTotal: 19})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	r, err := s.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "127.0.0.1", r.IP)
	assert.True(t, r.Win)
	assert.False(t, r.CreatedAt.IsZero())

	other, err := s.SaveRecord(ctx, Record{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	_, err = s.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreStats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	records := []Record{
		{IP: "a", Win: true, PlayerHandTotal: 20, DealerHandTotal: 22},
		{IP: "a", PlayerHandTotal: 23, DealerHandTotal: 17},
		{IP: "a", PlayerHandTotal: 18, DealerHandTotal: 18},
		{IP: "b", PlayerHandTotal: 16, DealerHandTotal: 19},
	}
	for _, r := range records {
		_, err := s.SaveRecord(ctx, r)
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, Stats{IP: "a", Games: 3, Wins: 1, Losses: 1, Draws: 1}, stats)

	stats, err = s.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, Stats{Games: 4, Wins: 1, Losses: 2, Draws: 1}, stats)
}
