package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/angeloszaimis/invoice-relay/internal/conversion"
	"github.com/angeloszaimis/invoice-relay/internal/healthcheck"
	"github.com/angeloszaimis/invoice-relay/internal/metrics"
	"github.com/angeloszaimis/invoice-relay/internal/relay"
	"github.com/angeloszaimis/invoice-relay/internal/upstream"
)

// setupRouter registers routes in match order: preflight for any path, the
// conversion endpoints, the operational endpoints, then static files.
func setupRouter(relayHandler *relay.Handler, collector *metrics.Collector, client *upstream.Client, staticRoot string) *mux.Router {
	r := mux.NewRouter()

	r.Methods(http.MethodOptions).HandlerFunc(relay.Preflight)

	for _, kind := range conversion.Kinds() {
		r.Handle(kind.Path, relayHandler.Convert(kind)).Methods(http.MethodPost)
	}

	r.Handle("/healthz", healthcheck.Handler(client)).Methods(http.MethodGet)
	r.Handle("/metrics", collector.Handler(client.URL().String())).Methods(http.MethodGet)

	r.PathPrefix("/").
		Methods(http.MethodGet, http.MethodHead, http.MethodPost).
		Handler(http.FileServer(http.Dir(staticRoot)))

	r.MethodNotAllowedHandler = http.HandlerFunc(relay.MethodNotAllowed)

	return r
}
