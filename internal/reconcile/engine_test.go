package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"defsync"
	"defsync/internal/adapter/fake"
	"defsync/internal/reconcile"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

type engineFixture struct {
	catalog *fake.Catalog
	store   *fake.DefinitionStore
	ranges  *fake.RangeProvider
	sink    *fake.MetricsSink
	support *fake.SupportUpdater
	engine  *reconcile.Engine
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		catalog: fake.NewCatalog(),
		store:   fake.NewDefinitionStore(),
		ranges:  fake.NewRangeProvider(nil),
		sink:    fake.NewMetricsSink(),
		support: fake.NewSupportUpdater(),
	}
	f.engine = &reconcile.Engine{
		Catalog:  f.catalog,
		Store:    f.store,
		Ranges:   f.ranges,
		Recorder: reconcile.NewRecorder(f.sink),
		Support:  f.support,
	}
	return f
}

func sourceEntry(id, tag string) defsync.CatalogEntry {
	return defsync.CatalogEntry{
		DefinitionID:     uuid.MustParse(id),
		Type:             defsync.SourceDefinition,
		Name:             "Postgres",
		DockerRepository: "connectors/source-postgres",
		DockerImageTag:   tag,
		ProtocolVersion:  "0.2.0",
	}
}

const (
	idA = "11111111-1111-4111-8111-111111111111"
	idB = "22222222-2222-4222-8222-222222222222"
)

// outcomes maps each recorded entry outcome tag to its count.
func (f *engineFixture) outcomes(t *testing.T) map[string]int {
	t.Helper()
	out := make(map[string]int)
	for _, e := range f.sink.EventsFor(reconcile.MetricProcessed) {
		out[e.Attr("outcome")]++
	}
	return out
}

func TestEngineApply_InitialAdd(t *testing.T) {
	f := newEngineFixture()
	f.catalog.SetSources(sourceEntry(idA, "1.0.0"))

	if err := f.engine.Apply(context.Background(), false); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	version, ok := f.store.Version(uuid.MustParse(idA))
	if !ok {
		t.Fatal("definition was not written")
	}
	if version.DockerImageTag != "1.0.0" {
		t.Fatalf("DockerImageTag = %q, want 1.0.0", version.DockerImageTag)
	}

	got := f.outcomes(t)
	if got["initial_version_added"] != 1 || len(got) != 1 {
		t.Fatalf("outcomes = %v, want one initial_version_added", got)
	}
	if f.support.Count() != 1 {
		t.Fatalf("support updates = %d, want 1", f.support.Count())
	}
}

func TestEngineApply_Idempotent(t *testing.T) {
	f := newEngineFixture()
	f.catalog.SetSources(sourceEntry(idA, "1.0.0"))

	if err := f.engine.Apply(context.Background(), false); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
	if err := f.engine.Apply(context.Background(), false); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}

	got := f.outcomes(t)
	if got["initial_version_added"] != 1 {
		t.Errorf("initial_version_added = %d, want 1", got["initial_version_added"])
	}
	if got["version_unchanged"] != 1 {
		t.Errorf("version_unchanged = %d, want 1", got["version_unchanged"])
	}

	// The second run refreshes metadata without touching the version.
	if calls := f.store.Calls("UpdateMetadata"); len(calls) != 1 {
		t.Fatalf("UpdateMetadata calls = %d, want 1", len(calls))
	}
}

func TestEngineApply_UpdateDefault(t *testing.T) {
	t.Run("not in use", func(t *testing.T) {
		f := newEngineFixture()
		f.catalog.SetSources(sourceEntry(idA, "1.0.0"))
		if err := f.engine.Apply(context.Background(), false); err != nil {
			t.Fatalf("seed Apply() error = %v", err)
		}

		f.catalog.SetSources(sourceEntry(idA, "2.0.0"))
		if err := f.engine.Apply(context.Background(), false); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		version, _ := f.store.Version(uuid.MustParse(idA))
		if version.DockerImageTag != "2.0.0" {
			t.Fatalf("DockerImageTag = %q, want 2.0.0", version.DockerImageTag)
		}
		if got := f.outcomes(t); got["default_version_updated"] != 1 {
			t.Fatalf("outcomes = %v, want one default_version_updated", got)
		}
	})

	t.Run("in use keeps version", func(t *testing.T) {
		f := newEngineFixture()
		f.catalog.SetSources(sourceEntry(idA, "1.0.0"))
		if err := f.engine.Apply(context.Background(), false); err != nil {
			t.Fatalf("seed Apply() error = %v", err)
		}
		f.store.MarkInUse(uuid.MustParse(idA))

		f.catalog.SetSources(sourceEntry(idA, "2.0.0"))
		if err := f.engine.Apply(context.Background(), false); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		version, _ := f.store.Version(uuid.MustParse(idA))
		if version.DockerImageTag != "1.0.0" {
			t.Fatalf("DockerImageTag = %q, want 1.0.0 (pinned by live actor)", version.DockerImageTag)
		}
		if got := f.outcomes(t); got["version_unchanged"] != 1 {
			t.Fatalf("outcomes = %v, want one version_unchanged", got)
		}
		// Metadata is still refreshed for the in-use definition.
		if calls := f.store.Calls("UpdateMetadata"); len(calls) != 1 {
			t.Fatalf("UpdateMetadata calls = %d, want 1", len(calls))
		}
	})

	t.Run("in use forced", func(t *testing.T) {
		f := newEngineFixture()
		f.catalog.SetSources(sourceEntry(idA, "1.0.0"))
		if err := f.engine.Apply(context.Background(), false); err != nil {
			t.Fatalf("seed Apply() error = %v", err)
		}
		f.store.MarkInUse(uuid.MustParse(idA))

		f.catalog.SetSources(sourceEntry(idA, "2.0.0"))
		if err := f.engine.Apply(context.Background(), true); err != nil {
			t.Fatalf("Apply(force) error = %v", err)
		}

		version, _ := f.store.Version(uuid.MustParse(idA))
		if version.DockerImageTag != "2.0.0" {
			t.Fatalf("DockerImageTag = %q, want 2.0.0", version.DockerImageTag)
		}
		if got := f.outcomes(t); got["default_version_updated"] != 1 {
			t.Fatalf("outcomes = %v, want one default_version_updated", got)
		}
	})
}

func TestEngineApply_ProtocolGate(t *testing.T) {
	f := newEngineFixture()
	f.ranges.SetRange(mustRange(t, "0.2.0", "0.3.0"))

	incompatible := sourceEntry(idA, "1.0.0")
	incompatible.ProtocolVersion = "0.1.0"
	compatible := sourceEntry(idB, "1.0.0")
	compatible.DockerRepository = "connectors/source-mysql"
	f.catalog.SetSources(incompatible, compatible)

	if err := f.engine.Apply(context.Background(), false); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if _, ok := f.store.Version(uuid.MustParse(idA)); ok {
		t.Fatal("incompatible definition must not be written")
	}
	if _, ok := f.store.Version(uuid.MustParse(idB)); !ok {
		t.Fatal("compatible definition should be written")
	}

	got := f.outcomes(t)
	if got["incompatible_protocol_version"] != 1 || got["initial_version_added"] != 1 {
		t.Fatalf("outcomes = %v", got)
	}

	for _, e := range f.sink.EventsFor(reconcile.MetricProcessed) {
		if e.Attr("outcome") == "incompatible_protocol_version" && e.Attr("status") != "failed" {
			t.Fatalf("status = %q, want failed", e.Attr("status"))
		}
	}
}

func TestEngineApply_NilRangeFailsOpen(t *testing.T) {
	f := newEngineFixture()
	f.engine.Ranges = nil

	entry := sourceEntry(idA, "1.0.0")
	entry.ProtocolVersion = "99.0.0"
	f.catalog.SetSources(entry)

	if err := f.engine.Apply(context.Background(), false); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if _, ok := f.store.Version(uuid.MustParse(idA)); !ok {
		t.Fatal("definition should be written when no range is configured")
	}
}

func TestEngineApply_ConversionFailureIsolated(t *testing.T) {
	f := newEngineFixture()
	bad := sourceEntry(idA, "latest")
	good := sourceEntry(idB, "1.0.0")
	good.DockerRepository = "connectors/source-mysql"
	f.catalog.SetSources(bad, good)

	if err := f.engine.Apply(context.Background(), false); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if _, ok := f.store.Version(uuid.MustParse(idA)); ok {
		t.Fatal("malformed definition must not be written")
	}
	if _, ok := f.store.Version(uuid.MustParse(idB)); !ok {
		t.Fatal("valid definition should be written despite sibling failure")
	}

	got := f.outcomes(t)
	if got["definition_conversion_failed"] != 1 || got["initial_version_added"] != 1 {
		t.Fatalf("outcomes = %v", got)
	}
}

func TestEngineApply_WriteFailureIsolated(t *testing.T) {
	f := newEngineFixture()
	first := sourceEntry(idA, "1.0.0")
	second := sourceEntry(idB, "1.0.0")
	second.DockerRepository = "connectors/source-mysql"
	f.catalog.SetSources(first, second)

	f.store.FailOnce(fake.FaultDefinitionStoreWrite, errors.New("disk full"))

	if err := f.engine.Apply(context.Background(), false); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if _, ok := f.store.Version(uuid.MustParse(idA)); ok {
		t.Fatal("failed write must not leave a version behind")
	}
	if _, ok := f.store.Version(uuid.MustParse(idB)); !ok {
		t.Fatal("second entry should be written after the first write failed")
	}

	got := f.outcomes(t)
	if got["definition_write_failed"] != 1 || got["initial_version_added"] != 1 {
		t.Fatalf("outcomes = %v", got)
	}
	if f.support.Count() != 1 {
		t.Fatalf("support updates = %d, want 1", f.support.Count())
	}
}

func TestEngineApply_SupportRunsOnceEvenWhenAllEntriesFail(t *testing.T) {
	f := newEngineFixture()
	f.catalog.SetSources(sourceEntry(idA, "latest"))

	destination := sourceEntry(idB, "dev")
	destination.Type = defsync.DestinationDefinition
	destination.DockerRepository = "connectors/destination-s3"
	f.catalog.SetDestinations(destination)

	if err := f.engine.Apply(context.Background(), false); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if got := f.outcomes(t); got["definition_conversion_failed"] != 2 {
		t.Fatalf("outcomes = %v, want two definition_conversion_failed", got)
	}
	if f.support.Count() != 1 {
		t.Fatalf("support updates = %d, want 1", f.support.Count())
	}
}

func TestEngineApply_SupportErrorPropagates(t *testing.T) {
	f := newEngineFixture()
	f.catalog.SetSources(sourceEntry(idA, "1.0.0"))
	f.support.FailOnce(fake.FaultSupportUpdate, errors.New("registry locked"))

	err := f.engine.Apply(context.Background(), false)
	if err == nil {
		t.Fatal("Apply() expected error from support updater")
	}
}

func TestEngineApply_CollaboratorLoadFailureAborts(t *testing.T) {
	t.Run("snapshot", func(t *testing.T) {
		f := newEngineFixture()
		f.catalog.SetSources(sourceEntry(idA, "1.0.0"))
		f.store.FailOnce(fake.FaultDefinitionStoreIDsInUse, errors.New("db gone"))

		if err := f.engine.Apply(context.Background(), false); err == nil {
			t.Fatal("Apply() expected error")
		}
		if f.support.Count() != 0 {
			t.Fatalf("support updates = %d, want 0 on aborted run", f.support.Count())
		}
		if events := f.sink.Events(); len(events) != 0 {
			t.Fatalf("metric events = %d, want 0 on aborted run", len(events))
		}
	})

	t.Run("catalog", func(t *testing.T) {
		f := newEngineFixture()
		f.catalog.FailOnce(fake.FaultCatalogSources, errors.New("catalog unreadable"))

		if err := f.engine.Apply(context.Background(), false); err == nil {
			t.Fatal("Apply() expected error")
		}
		if f.support.Count() != 0 {
			t.Fatalf("support updates = %d, want 0 on aborted run", f.support.Count())
		}
	})

	t.Run("range provider", func(t *testing.T) {
		f := newEngineFixture()
		f.catalog.SetSources(sourceEntry(idA, "1.0.0"))
		f.ranges.FailOnce(fake.FaultRangeCurrent, errors.New("settings unreadable"))

		if err := f.engine.Apply(context.Background(), false); err == nil {
			t.Fatal("Apply() expected error")
		}
		if _, ok := f.store.Version(uuid.MustParse(idA)); ok {
			t.Fatal("no writes expected on aborted run")
		}
	})
}

func TestEngineApply_OneMetricPerEntry(t *testing.T) {
	f := newEngineFixture()
	source := sourceEntry(idA, "1.0.0")
	destination := sourceEntry(idB, "latest")
	destination.Type = defsync.DestinationDefinition
	destination.DockerRepository = "connectors/destination-s3"
	f.catalog.SetSources(source)
	f.catalog.SetDestinations(destination)

	if err := f.engine.Apply(context.Background(), false); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	events := f.sink.EventsFor(reconcile.MetricProcessed)
	if len(events) != 2 {
		t.Fatalf("metric events = %d, want 2 (one per entry)", len(events))
	}
	for _, e := range events {
		if e.Attr("docker_repository") == "" || e.Attr("docker_image_tag") == "" {
			t.Fatalf("event missing attribution attrs: %+v", e)
		}
		if e.Attr("status") != "ok" && e.Attr("status") != "failed" {
			t.Fatalf("status = %q, want ok or failed", e.Attr("status"))
		}
	}
}

func mustRange(t *testing.T, min, max string) *defsync.ProtocolVersionRange {
	t.Helper()
	lo, err := semver.StrictNewVersion(min)
	if err != nil {
		t.Fatal(err)
	}
	hi, err := semver.StrictNewVersion(max)
	if err != nil {
		t.Fatal(err)
	}
	return &defsync.ProtocolVersionRange{Min: lo, Max: hi}
}
