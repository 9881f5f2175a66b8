// Package metrics implements the reconciler's metrics sink on OpenTelemetry
// counters.
package metrics

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Sink counts events on an OpenTelemetry meter. Counters are created lazily
// per event name and reused. Safe for concurrent use.
type Sink struct {
	meter metric.Meter

	mu       sync.Mutex
	counters map[string]metric.Int64Counter
}

// NewSink creates a Sink on the given meter.
func NewSink(meter metric.Meter) *Sink {
	return &Sink{
		meter:    meter,
		counters: make(map[string]metric.Int64Counter),
	}
}

// Count adds one to the named counter with the given attributes. Instrument
// creation failures are logged, not propagated: dropping a metric must never
// fail the operation it measures.
func (s *Sink) Count(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	counter, err := s.counter(name)
	if err != nil {
		slog.Warn("create counter failed", "name", name, "err", err)
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (s *Sink) counter(name string) (metric.Int64Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.counters[name]; ok {
		return c, nil
	}
	c, err := s.meter.Int64Counter(name)
	if err != nil {
		return nil, err
	}
	s.counters[name] = c
	return c, nil
}
