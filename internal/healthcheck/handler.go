package healthcheck

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/angeloszaimis/invoice-relay/internal/upstream"
)

type Report struct {
	Status            string `json:"status"`
	Upstream          string `json:"upstream"`
	UpstreamChecked   bool   `json:"upstreamChecked"`
	UpstreamReachable bool   `json:"upstreamReachable"`
	UpstreamLatencyMS int64  `json:"upstreamLatencyMs"`
	// UpstreamSince is when reachability last flipped, absent before the
	// first probe.
	UpstreamSince *time.Time `json:"upstreamSince,omitempty"`
}

// Handler reports the relay as up and includes the last known state of the
// conversion service. The relay stays healthy while the service is down.
func Handler(client *upstream.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := client.Status()
		report := Report{
			Status:            "ok",
			Upstream:          client.URL().String(),
			UpstreamChecked:   status.Checked(),
			UpstreamReachable: status.Reachable(),
			UpstreamLatencyMS: status.EWMAResponse().Milliseconds(),
		}
		if since := status.LastChange(); !since.IsZero() {
			report.UpstreamSince = &since
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
