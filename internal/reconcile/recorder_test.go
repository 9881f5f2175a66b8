package reconcile_test

import (
	"context"
	"testing"

	"defsync/internal/adapter/fake"
	"defsync/internal/reconcile"
)

func TestRecorder(t *testing.T) {
	t.Run("success outcome", func(t *testing.T) {
		sink := fake.NewMetricsSink()
		r := reconcile.NewRecorder(sink)

		r.Record(context.Background(), reconcile.Outcome{
			Kind:             reconcile.OutcomeInitialVersionAdded,
			DockerRepository: "connectors/source-postgres",
			DockerImageTag:   "1.0.0",
		})

		events := sink.EventsFor(reconcile.MetricProcessed)
		if len(events) != 1 {
			t.Fatalf("events = %d, want 1", len(events))
		}
		e := events[0]
		if e.Attr("status") != "ok" {
			t.Errorf("status = %q, want ok", e.Attr("status"))
		}
		if e.Attr("outcome") != "initial_version_added" {
			t.Errorf("outcome = %q, want initial_version_added", e.Attr("outcome"))
		}
		if e.Attr("docker_repository") != "connectors/source-postgres" {
			t.Errorf("docker_repository = %q", e.Attr("docker_repository"))
		}
		if e.Attr("docker_image_tag") != "1.0.0" {
			t.Errorf("docker_image_tag = %q", e.Attr("docker_image_tag"))
		}
	})

	t.Run("failure outcomes carry failed status", func(t *testing.T) {
		sink := fake.NewMetricsSink()
		r := reconcile.NewRecorder(sink)

		kinds := []reconcile.OutcomeKind{
			reconcile.OutcomeIncompatibleProtocolVersion,
			reconcile.OutcomeConversionFailed,
			reconcile.OutcomeWriteFailed,
		}
		for _, kind := range kinds {
			r.Record(context.Background(), reconcile.Outcome{Kind: kind})
		}

		for _, e := range sink.EventsFor(reconcile.MetricProcessed) {
			if e.Attr("status") != "failed" {
				t.Errorf("outcome %q status = %q, want failed", e.Attr("outcome"), e.Attr("status"))
			}
		}
	})

	t.Run("nil recorder and sink are safe", func(t *testing.T) {
		var r *reconcile.Recorder
		r.Record(context.Background(), reconcile.Outcome{Kind: reconcile.OutcomeVersionUnchanged})

		reconcile.NewRecorder(nil).Record(context.Background(), reconcile.Outcome{Kind: reconcile.OutcomeVersionUnchanged})
	})
}
