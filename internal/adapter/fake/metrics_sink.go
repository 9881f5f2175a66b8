package fake

import (
	"context"
	"slices"
	"sync"

	"defsync/internal/reconcile"

	"go.opentelemetry.io/otel/attribute"
)

var _ reconcile.MetricsSink = (*MetricsSink)(nil)

// CountEvent is one recorded Count call.
type CountEvent struct {
	Name  string
	Attrs []attribute.KeyValue
}

// Attr returns the string value of the named attribute, or "".
func (e CountEvent) Attr(key string) string {
	for _, kv := range e.Attrs {
		if string(kv.Key) == key {
			return kv.Value.AsString()
		}
	}
	return ""
}

// MetricsSink records count events in memory.
type MetricsSink struct {
	mu     sync.Mutex
	events []CountEvent
}

func NewMetricsSink() *MetricsSink {
	return &MetricsSink{}
}

func (s *MetricsSink) Count(_ context.Context, name string, attrs ...attribute.KeyValue) {
	s.mu.Lock()
	s.events = append(s.events, CountEvent{Name: name, Attrs: slices.Clone(attrs)})
	s.mu.Unlock()
}

// Events returns all recorded count events.
func (s *MetricsSink) Events() []CountEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// EventsFor returns the recorded events with the given metric name.
func (s *MetricsSink) EventsFor(name string) []CountEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []CountEvent
	for _, e := range s.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
