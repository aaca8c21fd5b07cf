package report

import (
	"context"

	"github.com/calvinwijaya/blackjack/internal/store"
)

// StoreReporter writes results straight into a record store on behalf of
// the caller at IP.
type StoreReporter struct {
	Store store.RecordStore
	IP    string
}

func (r *StoreReporter) Report(ctx context.Context, playerTotal, dealerTotal int, won bool) error {
	_, err := r.Store.SaveRecord(ctx, store.Record{
		IP:              r.IP,
		Win:             won,
		PlayerHandTotal: playerTotal,
		DealerHandTotal: dealerTotal,
	})
	if err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}
