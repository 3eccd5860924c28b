// Package metrics collects relay metrics off the request path.
//
// Handlers and the health checker emit events on a buffered channel with
// non-blocking sends; a dedicated goroutine folds them into:
//   - requests per conversion endpoint
//   - completed conversions per label (e.g. "invoice-406") with average,
//     P50, P95 and P99 durations and a status code histogram
//   - conversion service reachability and how often it changed
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventConversionCompleted,
//		Label:      "invoice-406",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot("http://localhost:7071")
//
// On shutdown the collector drains queued events before stopping.
package metrics
