// Package reconcile computes and applies the minimal set of registry writes
// needed to bring persisted connector definitions in line with the declared
// catalog. Entries are independent: one malformed definition never blocks
// the rest of the batch.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"defsync"
	"defsync/internal/check"

	"github.com/google/uuid"
)

// Snapshot is the registry state read once at the start of an apply. The
// per-entry decision procedure is a pure function of this value; the store
// is never re-read mid-run. Staleness against concurrent writers is an
// accepted race: the engine is the sole writer during its run.
type Snapshot struct {
	InUse           map[uuid.UUID]struct{}
	DefaultVersions map[uuid.UUID]defsync.VersionRecord
}

func (s Snapshot) inUse(id uuid.UUID) bool {
	_, ok := s.InUse[id]
	return ok
}

// existing returns the persisted default version for id, or nil when the
// definition has never been written.
func (s Snapshot) existing(id uuid.UUID) *defsync.VersionRecord {
	v, ok := s.DefaultVersions[id]
	if !ok {
		return nil
	}
	return &v
}

// Engine reconciles the declared catalog into the definition registry.
type Engine struct {
	Catalog  CatalogSource
	Store    DefinitionStore
	Ranges   RangeProvider // optional: nil behaves like an unconfigured range
	Recorder *Recorder     // optional: nil drops outcome metrics
	Support  SupportStateUpdater
}

// Apply runs one reconciliation: load the registry snapshot and protocol
// range once, process both catalogs entry by entry, then recompute support
// states exactly once. Per-entry failures are isolated and surface only as
// failure outcomes; collaborator load failures abort the run before any
// write is attempted.
//
// Callers must serialize Apply invocations; the engine takes no lock on the
// registry.
func (e *Engine) Apply(ctx context.Context, force bool) error {
	check.Assert(e.Catalog != nil, "Engine.Apply: Catalog must not be nil")
	check.Assert(e.Store != nil, "Engine.Apply: Store must not be nil")
	check.Assert(e.Support != nil, "Engine.Apply: Support must not be nil")

	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	rng, err := e.currentRange(ctx)
	if err != nil {
		return err
	}

	sources, err := e.Catalog.SourceDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("load source definitions: %w", err)
	}
	destinations, err := e.Catalog.DestinationDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("load destination definitions: %w", err)
	}

	for _, entry := range sources {
		e.processEntry(ctx, entry, snap, rng, force)
	}
	for _, entry := range destinations {
		e.processEntry(ctx, entry, snap, rng, force)
	}

	// Support states depend on persisted state, not on this run's outcomes,
	// so the recomputation runs even when every entry failed.
	if e.Support != nil {
		if err := e.Support.UpdateSupportStates(ctx); err != nil {
			return fmt.Errorf("update support states: %w", err)
		}
	}
	return nil
}

func (e *Engine) loadSnapshot(ctx context.Context) (Snapshot, error) {
	inUse, err := e.Store.IDsInUse(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load ids in use: %w", err)
	}
	versions, err := e.Store.DefaultVersions(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load default versions: %w", err)
	}
	return Snapshot{InUse: inUse, DefaultVersions: versions}, nil
}

func (e *Engine) currentRange(ctx context.Context) (*defsync.ProtocolVersionRange, error) {
	if e.Ranges == nil {
		return nil, nil
	}
	rng, err := e.Ranges.CurrentRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("load protocol version range: %w", err)
	}
	return rng, nil
}

// processEntry reconciles one entry and records its outcome. The two form
// one unit: every entry that reaches here emits exactly one outcome.
func (e *Engine) processEntry(ctx context.Context, entry defsync.CatalogEntry, snap Snapshot, rng *defsync.ProtocolVersionRange, force bool) {
	outcome := e.reconcileEntry(ctx, entry, snap, rng, force)
	check.Assert(outcome.Kind != OutcomeUnknown, "Engine.processEntry: outcome kind must be set")
	e.Recorder.Record(ctx, outcome)
}

func (e *Engine) reconcileEntry(ctx context.Context, entry defsync.CatalogEntry, snap Snapshot, rng *defsync.ProtocolVersionRange, force bool) Outcome {
	out := Outcome{
		DockerRepository: entry.DockerRepository,
		DockerImageTag:   entry.DockerImageTag,
	}

	if !SupportedProtocolVersion(entry.ProtocolVersion, rng) {
		slog.Warn("definition protocol version unsupported",
			"repository", entry.DockerRepository,
			"protocol_version", entry.ProtocolVersion)
		out.Kind = OutcomeIncompatibleProtocolVersion
		return out
	}

	version, err := ToDefaultVersion(entry)
	if err != nil {
		slog.Warn("definition conversion failed",
			"repository", entry.DockerRepository,
			"tag", entry.DockerImageTag,
			"err", err)
		out.Kind = OutcomeConversionFailed
		return out
	}
	changes, err := ToBreakingChanges(entry)
	if err != nil {
		slog.Warn("definition conversion failed",
			"repository", entry.DockerRepository,
			"tag", entry.DockerImageTag,
			"err", err)
		out.Kind = OutcomeConversionFailed
		return out
	}
	meta := ToMetadata(entry)

	action := Decide(snap.existing(entry.DefinitionID), entry.DockerImageTag, snap.inUse(entry.DefinitionID), force)
	switch action {
	case ActionCreate:
		if err := e.Store.WriteDefinition(ctx, meta, version, changes); err != nil {
			out.Kind = e.writeFailed(entry, action, err)
			return out
		}
		out.Kind = OutcomeInitialVersionAdded
	case ActionUpdateDefault:
		if err := e.Store.WriteDefinition(ctx, meta, version, changes); err != nil {
			out.Kind = e.writeFailed(entry, action, err)
			return out
		}
		out.Kind = OutcomeDefaultVersionUpdated
	case ActionUpdateMetadataOnly:
		if err := e.Store.UpdateMetadata(ctx, meta); err != nil {
			out.Kind = e.writeFailed(entry, action, err)
			return out
		}
		// The served version did not change; the metadata refresh alone
		// does not alter the outcome tag.
		out.Kind = OutcomeVersionUnchanged
	}
	return out
}

func (e *Engine) writeFailed(entry defsync.CatalogEntry, action Action, err error) OutcomeKind {
	slog.Error("definition write failed",
		"repository", entry.DockerRepository,
		"tag", entry.DockerImageTag,
		"action", action.String(),
		"err", err)
	return OutcomeWriteFailed
}
