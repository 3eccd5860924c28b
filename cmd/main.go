package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/invoice-relay/config"
	"github.com/angeloszaimis/invoice-relay/internal/healthcheck"
	"github.com/angeloszaimis/invoice-relay/internal/httpserver"
	"github.com/angeloszaimis/invoice-relay/internal/metrics"
	"github.com/angeloszaimis/invoice-relay/internal/relay"
	"github.com/angeloszaimis/invoice-relay/internal/upstream"
	"github.com/angeloszaimis/invoice-relay/pkg/logger"
)

const (
	metricsBufferSize = 1000
	testPage          = "invoice_format_converter.html"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := newUpstreamClient(cfg)
	if err != nil {
		log.Error("Invalid conversion service URL",
			slog.String("url", cfg.Upstream.URL),
			slog.Any("err", err))
		os.Exit(1)
	}

	collector := metrics.NewCollector(metricsBufferSize, log)
	collector.Start(ctx)

	go healthcheck.HealthCheck(ctx, client, cfg.HealthCheckInterval(), log, collector)

	relayHandler := relay.NewHandler(log, client, collector)
	router := setupRouter(relayHandler, collector, client, cfg.Static.Root)

	srv, err := httpserver.New(cfg.Server.Address, relay.Wrap(log, router), cfg.UpstreamTimeout())
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	if err := srv.Listen(); err != nil {
		log.Error("Failed to start relay",
			slog.String("address", cfg.Server.Address),
			slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Invoice relay started",
		slog.String("url", fmt.Sprintf("http://%s", srv.Addr())),
		slog.String("test_page", fmt.Sprintf("http://%s/%s", srv.Addr(), testPage)),
		slog.String("upstream", client.URL().String()),
		slog.String("hint", upstream.StartHint))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Serve()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error serving relay", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func newUpstreamClient(cfg *config.Config) (*upstream.Client, error) {
	u, err := url.Parse(cfg.Upstream.URL)
	if err != nil {
		return nil, err
	}
	return upstream.New(u, cfg.UpstreamTimeout()), nil
}
