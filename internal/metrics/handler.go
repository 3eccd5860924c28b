package metrics

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handler serves the current snapshot as indented JSON. Snapshots are live
// counters, so responses are never cached.
func (c *Collector) Handler(upstreamURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := json.MarshalIndent(c.Snapshot(upstreamURL), "", "  ")
		if err != nil {
			c.logger.Error("Failed to encode metrics snapshot", slog.Any("err", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(append(body, '\n'))
	}
}
