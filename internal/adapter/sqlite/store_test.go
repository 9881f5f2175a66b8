package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"defsync"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testDefinition(id uuid.UUID) (defsync.DefinitionMetadata, defsync.VersionRecord, []defsync.BreakingChange) {
	meta := defsync.DefinitionMetadata{
		ID:               id,
		Type:             defsync.SourceDefinition,
		Name:             "Postgres",
		DockerRepository: "connectors/source-postgres",
		DocumentationURL: "https://docs.example.com/postgres",
	}
	version := defsync.VersionRecord{
		DefinitionID:    id,
		DockerImageTag:  "1.2.3",
		ProtocolVersion: "0.2.0",
	}
	changes := []defsync.BreakingChange{
		{
			TargetVersion:   "2.0.0",
			Message:         "Column schema changed",
			UpgradeDeadline: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			MigrationDocURL: "https://docs.example.com/postgres/v2",
		},
	}
	return meta, version, changes
}

func TestStore_WriteAndListDefinitions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	id := uuid.New()
	meta, version, changes := testDefinition(id)

	if err := store.WriteDefinition(ctx, meta, version, changes); err != nil {
		t.Fatalf("WriteDefinition: %v", err)
	}

	defs, err := store.ListDefinitions(ctx)
	if err != nil {
		t.Fatalf("ListDefinitions: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("definitions = %d, want 1", len(defs))
	}

	got := defs[0]
	if got.Metadata.ID != id {
		t.Errorf("ID: got %s, want %s", got.Metadata.ID, id)
	}
	if got.Metadata.Name != meta.Name {
		t.Errorf("Name: got %q, want %q", got.Metadata.Name, meta.Name)
	}
	if got.Metadata.Type != defsync.SourceDefinition {
		t.Errorf("Type: got %s, want source", got.Metadata.Type)
	}
	if got.DefaultVersion.DockerImageTag != "1.2.3" {
		t.Errorf("DockerImageTag: got %q, want 1.2.3", got.DefaultVersion.DockerImageTag)
	}
	if got.DefaultVersion.ProtocolVersion != "0.2.0" {
		t.Errorf("ProtocolVersion: got %q, want 0.2.0", got.DefaultVersion.ProtocolVersion)
	}
	if got.SupportState != defsync.SupportStateSupported {
		t.Errorf("SupportState: got %s, want supported (schema default)", got.SupportState)
	}

	stored, err := store.BreakingChanges(ctx, id)
	if err != nil {
		t.Fatalf("BreakingChanges: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("breaking changes = %d, want 1", len(stored))
	}
	if stored[0].TargetVersion != "2.0.0" || stored[0].Message != "Column schema changed" {
		t.Errorf("breaking change = %+v", stored[0])
	}
	if !stored[0].UpgradeDeadline.Equal(changes[0].UpgradeDeadline) {
		t.Errorf("UpgradeDeadline: got %s, want %s", stored[0].UpgradeDeadline, changes[0].UpgradeDeadline)
	}
}

func TestStore_WriteDefinitionUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	id := uuid.New()
	meta, version, changes := testDefinition(id)

	if err := store.WriteDefinition(ctx, meta, version, changes); err != nil {
		t.Fatalf("WriteDefinition: %v", err)
	}
	if err := store.SetSupportState(ctx, id, defsync.SupportStateDeprecated); err != nil {
		t.Fatalf("SetSupportState: %v", err)
	}

	// Rewriting replaces the version and breaking changes but keeps the
	// support state.
	version.DockerImageTag = "2.0.0"
	if err := store.WriteDefinition(ctx, meta, version, nil); err != nil {
		t.Fatalf("WriteDefinition (update): %v", err)
	}

	versions, err := store.DefaultVersions(ctx)
	if err != nil {
		t.Fatalf("DefaultVersions: %v", err)
	}
	if got := versions[id].DockerImageTag; got != "2.0.0" {
		t.Errorf("DockerImageTag: got %q, want 2.0.0", got)
	}

	stored, err := store.BreakingChanges(ctx, id)
	if err != nil {
		t.Fatalf("BreakingChanges: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("breaking changes = %d, want 0 after rewrite", len(stored))
	}

	defs, err := store.ListDefinitions(ctx)
	if err != nil {
		t.Fatalf("ListDefinitions: %v", err)
	}
	if defs[0].SupportState != defsync.SupportStateDeprecated {
		t.Errorf("SupportState: got %s, want deprecated (survives rewrite)", defs[0].SupportState)
	}
}

func TestStore_UpdateMetadata(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	id := uuid.New()
	meta, version, _ := testDefinition(id)

	t.Run("unknown definition fails", func(t *testing.T) {
		if err := store.UpdateMetadata(ctx, meta); err == nil {
			t.Fatal("UpdateMetadata expected error for unknown definition")
		}
	})

	t.Run("refreshes metadata without touching version", func(t *testing.T) {
		if err := store.WriteDefinition(ctx, meta, version, nil); err != nil {
			t.Fatalf("WriteDefinition: %v", err)
		}

		meta.Name = "PostgreSQL"
		meta.DocumentationURL = "https://docs.example.com/postgresql"
		if err := store.UpdateMetadata(ctx, meta); err != nil {
			t.Fatalf("UpdateMetadata: %v", err)
		}

		defs, err := store.ListDefinitions(ctx)
		if err != nil {
			t.Fatalf("ListDefinitions: %v", err)
		}
		if defs[0].Metadata.Name != "PostgreSQL" {
			t.Errorf("Name: got %q, want PostgreSQL", defs[0].Metadata.Name)
		}
		if defs[0].DefaultVersion.DockerImageTag != "1.2.3" {
			t.Errorf("DockerImageTag: got %q, want 1.2.3 (untouched)", defs[0].DefaultVersion.DockerImageTag)
		}
	})
}

func TestStore_Actors(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	id := uuid.New()
	meta, version, _ := testDefinition(id)

	t.Run("actor requires existing definition", func(t *testing.T) {
		err := store.AddActor(ctx, defsync.Actor{ID: uuid.New(), DefinitionID: uuid.New(), Name: "orphan"})
		if err == nil {
			t.Fatal("AddActor expected error for missing definition")
		}
	})

	t.Run("in use reflects actors", func(t *testing.T) {
		if err := store.WriteDefinition(ctx, meta, version, nil); err != nil {
			t.Fatalf("WriteDefinition: %v", err)
		}

		inUse, err := store.IDsInUse(ctx)
		if err != nil {
			t.Fatalf("IDsInUse: %v", err)
		}
		if len(inUse) != 0 {
			t.Fatalf("in use = %d, want 0 before actors", len(inUse))
		}

		actor := defsync.Actor{ID: uuid.New(), DefinitionID: id, Name: "prod-sync"}
		if err := store.AddActor(ctx, actor); err != nil {
			t.Fatalf("AddActor: %v", err)
		}

		inUse, err = store.IDsInUse(ctx)
		if err != nil {
			t.Fatalf("IDsInUse: %v", err)
		}
		if _, ok := inUse[id]; !ok || len(inUse) != 1 {
			t.Fatalf("in use = %v, want {%s}", inUse, id)
		}

		actors, err := store.ListActors(ctx)
		if err != nil {
			t.Fatalf("ListActors: %v", err)
		}
		if len(actors) != 1 || actors[0].Name != "prod-sync" || actors[0].DefinitionID != id {
			t.Fatalf("actors = %+v", actors)
		}
	})
}

func TestStore_ProtocolRange(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	t.Run("unset range is nil", func(t *testing.T) {
		rng, err := store.CurrentRange(ctx)
		if err != nil {
			t.Fatalf("CurrentRange: %v", err)
		}
		if rng != nil {
			t.Fatalf("range = %+v, want nil", rng)
		}
	})

	t.Run("set and read back", func(t *testing.T) {
		if err := store.SetProtocolRange(ctx, "0.2.0", "0.4.0"); err != nil {
			t.Fatalf("SetProtocolRange: %v", err)
		}

		rng, err := store.CurrentRange(ctx)
		if err != nil {
			t.Fatalf("CurrentRange: %v", err)
		}
		if rng == nil {
			t.Fatal("range = nil, want set")
		}
		if rng.Min.String() != "0.2.0" || rng.Max.String() != "0.4.0" {
			t.Fatalf("range = %s..%s, want 0.2.0..0.4.0", rng.Min, rng.Max)
		}
	})

	t.Run("rejects invalid bounds", func(t *testing.T) {
		if err := store.SetProtocolRange(ctx, "abc", "0.4.0"); err == nil {
			t.Error("SetProtocolRange expected error for bad min")
		}
		if err := store.SetProtocolRange(ctx, "0.5.0", "0.4.0"); err == nil {
			t.Error("SetProtocolRange expected error for max below min")
		}
	})
}

func TestStore_SetSupportStateUnknownDefinition(t *testing.T) {
	store := openTestStore(t)
	if err := store.SetSupportState(context.Background(), uuid.New(), defsync.SupportStateDeprecated); err == nil {
		t.Fatal("SetSupportState expected error for unknown definition")
	}
}
