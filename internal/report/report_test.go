package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calvinwijaya/blackjack/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPReporter(t *testing.T) {
	var got GamePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	rep := NewHTTPReporter(srv.URL)
	require.NoError(t, rep.Report(context.Background(), 20, 19, true))
	assert.Equal(t, GamePayload{Win: true, PlayerHandTotal: 20, DealerHandTotal: 19}, got)
}

func TestHTTPReporterRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewHTTPReporter(srv.URL).Report(context.Background(), 20, 19, true)
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "post", perr.Op)
}

func TestHTTPReporterUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTPReporter(url).Report(context.Background(), 20, 19, true)
	var perr *PersistenceError
	assert.True(t, errors.As(err, &perr))
}

type failingStore struct{ store.RecordStore }

func (failingStore) SaveRecord(context.Context, store.Record) (string, error) {
	return "", errors.New("disk full")
}

func TestStoreReporter(t *testing.T) {
	mem := store.NewMemoryStore()
	rep := &StoreReporter{Store: mem, IP: "192.0.2.7"}
	require.NoError(t, rep.Report(context.Background(), 22, 18, false))

	stats, err := mem.Stats(context.Background(), "192.0.2.7")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Games)
	assert.Equal(t, 1, stats.Losses)

	err = (&StoreReporter{Store: failingStore{}}).Report(context.Background(), 1, 2, false)
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.EqualError(t, perr.Err, "disk full")
}
