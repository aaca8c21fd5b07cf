package api

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/calvinwijaya/blackjack/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastSessionDropsOlderSnapshots(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hub := NewHub(store.NewSessions(nil), logger, "")

	client := &Client{send: make(chan []byte, 8), sessionID: "s1", hub: hub}
	hub.clients["s1"] = map[*Client]bool{client: true}

	// a round-1 update that lost the race to a round-2 update
	hub.BroadcastSession(game.Snapshot{ID: "s1", Version: 5, Round: 2})
	hub.BroadcastSession(game.Snapshot{ID: "s1", Version: 4, Round: 1, State: game.Done})
	hub.BroadcastSession(game.Snapshot{ID: "s1", Version: 5, Round: 2})
	hub.BroadcastSession(game.Snapshot{ID: "s1", Version: 6, Round: 2})

	var rounds []int
	var versions []uint64
	for len(client.send) > 0 {
		var msg struct {
			Type string        `json:"type"`
			Data game.Snapshot `json:"data"`
		}
		require.NoError(t, json.Unmarshal(<-client.send, &msg))
		assert.Equal(t, "state", msg.Type)
		rounds = append(rounds, msg.Data.Round)
		versions = append(versions, msg.Data.Version)
	}
	assert.Equal(t, []int{2, 2}, rounds)
	assert.Equal(t, []uint64{5, 6}, versions)
}

func TestBroadcastSessionWithoutWatchers(t *testing.T) {
	hub := NewHub(store.NewSessions(nil), nil, "")
	hub.BroadcastSession(game.Snapshot{ID: "nobody", Version: 3})
	assert.Empty(t, hub.versions)
}
