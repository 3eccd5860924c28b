package healthcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/angeloszaimis/invoice-relay/internal/metrics"
	"github.com/angeloszaimis/invoice-relay/internal/upstream"
)

const probeTimeout = 2 * time.Second

// HealthCheck probes the conversion service right away and then every
// interval until ctx is cancelled. Reachability changes are logged, stored
// on the client's Status and emitted to collector, which may be nil.
func HealthCheck(
	ctx context.Context,
	client *upstream.Client,
	interval time.Duration,
	logger *slog.Logger,
	collector *metrics.Collector,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check(ctx, client, logger, collector)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Health check stopped",
				slog.String("upstream", client.Address()))
			return

		case <-ticker.C:
			check(ctx, client, logger, collector)
		}
	}
}

func check(ctx context.Context, client *upstream.Client, logger *slog.Logger, collector *metrics.Collector) {
	err := client.Probe(ctx, probeTimeout)
	if err != nil && ctx.Err() != nil {
		return
	}

	reachable := err == nil
	if !client.Status().SetReachable(reachable) {
		return
	}

	collector.Emit(metrics.MetricEvent{
		Type:    metrics.EventUpstreamHealthChange,
		Healthy: reachable,
	})

	if reachable {
		logger.Info("Conversion service is up",
			slog.String("upstream", client.Address()))
		return
	}

	logger.Warn("Conversion service is down",
		slog.String("upstream", client.Address()),
		slog.String("hint", upstream.StartHint),
		slog.Any("err", err))
}
