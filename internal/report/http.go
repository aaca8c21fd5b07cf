package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GamePayload is the body of POST /api/game.
type GamePayload struct {
	Win             bool `json:"win"`
	PlayerHandTotal int  `json:"playerHandTotal"`
	DealerHandTotal int  `json:"dealerHandTotal"`
}

// HTTPReporter posts round results to the persistence endpoint.
type HTTPReporter struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPReporter creates a reporter for endpoint, e.g.
// "http://localhost:8080/api/game".
func NewHTTPReporter(endpoint string) *HTTPReporter {
	return &HTTPReporter{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Report sends one result. Anything but a 201 is a *PersistenceError.
func (r *HTTPReporter) Report(ctx context.Context, playerTotal, dealerTotal int, won bool) error {
	body, err := json.Marshal(GamePayload{
		Win:             won,
		PlayerHandTotal: playerTotal,
		DealerHandTotal: dealerTotal,
	})
	if err != nil {
		return &PersistenceError{Op: "encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &PersistenceError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return &PersistenceError{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &PersistenceError{Op: "post", Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))}
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil || created.ID == "" {
		return &PersistenceError{Op: "decode", Err: fmt.Errorf("missing record id: %v", err)}
	}
	return nil
}
