package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventConversionReceived   EventType = "conversion_received"
	EventConversionCompleted  EventType = "conversion_completed"
	EventUpstreamHealthChange EventType = "upstream_health_changed"
)

// MetricEvent is one observation from the request path or the health checker.
// Kind is the conversion endpoint ("invoice", "po"), Label the validated
// conversion ("invoice-406") or the kind when validation failed.
type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Kind       string
	Label      string
	Duration   time.Duration
	StatusCode int
	Healthy    bool
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit queues event without blocking. Events are dropped when the buffer is
// full. A nil collector ignores everything.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventConversionReceived:
		c.metrics.IncrementRequests(event.Kind)

	case EventConversionCompleted:
		c.metrics.RecordConversion(event.Label, event.Duration, event.StatusCode)

	case EventUpstreamHealthChange:
		c.metrics.UpdateUpstreamHealth(event.Healthy)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(upstreamURL string) Snapshot {
	return c.metrics.Snapshot(upstreamURL)
}
