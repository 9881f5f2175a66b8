package reconcile

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// MetricProcessed is the count event emitted once per processed entry.
const MetricProcessed = "defsync.definitions.processed"

// Recorder emits exactly one count event per processed catalog entry,
// success and failure alike.
type Recorder struct {
	sink MetricsSink
}

func NewRecorder(sink MetricsSink) *Recorder {
	return &Recorder{sink: sink}
}

// Record emits the count event for one outcome. A nil recorder or sink
// drops the event silently so the engine can run unmetered in tests.
func (r *Recorder) Record(ctx context.Context, o Outcome) {
	if r == nil || r.sink == nil {
		return
	}
	status := "ok"
	if o.Kind.Failed() {
		status = "failed"
	}
	r.sink.Count(ctx, MetricProcessed,
		attribute.String("status", status),
		attribute.String("outcome", o.Kind.String()),
		attribute.String("docker_repository", o.DockerRepository),
		attribute.String("docker_image_tag", o.DockerImageTag),
	)
}
