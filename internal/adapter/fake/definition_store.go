package fake

import (
	"context"
	"maps"
	"slices"
	"sync"

	"defsync"
	"defsync/internal/adapter/fake/fault"
	"defsync/internal/reconcile"
	"defsync/internal/support"

	"github.com/google/uuid"
)

var (
	_ reconcile.DefinitionStore = (*DefinitionStore)(nil)
	_ support.Registry          = (*DefinitionStore)(nil)
)

const (
	FaultDefinitionStoreIDsInUse        = "definition_store.ids_in_use"
	FaultDefinitionStoreDefaultVersions = "definition_store.default_versions"
	FaultDefinitionStoreWrite           = "definition_store.write_definition"
	FaultDefinitionStoreUpdateMetadata  = "definition_store.update_metadata"
	FaultDefinitionStoreList            = "definition_store.list_definitions"
	FaultDefinitionStoreBreakingChanges = "definition_store.breaking_changes"
	FaultDefinitionStoreSetSupportState = "definition_store.set_support_state"
)

// DefinitionStore is an in-memory definition registry.
type DefinitionStore struct {
	CallRecorder
	mu       sync.Mutex
	metadata map[uuid.UUID]defsync.DefinitionMetadata
	versions map[uuid.UUID]defsync.VersionRecord
	changes  map[uuid.UUID][]defsync.BreakingChange
	states   map[uuid.UUID]defsync.SupportState
	inUse    map[uuid.UUID]struct{}
	faults   *fault.Injector
}

func NewDefinitionStore() *DefinitionStore {
	return &DefinitionStore{
		metadata: make(map[uuid.UUID]defsync.DefinitionMetadata),
		versions: make(map[uuid.UUID]defsync.VersionRecord),
		changes:  make(map[uuid.UUID][]defsync.BreakingChange),
		states:   make(map[uuid.UUID]defsync.SupportState),
		inUse:    make(map[uuid.UUID]struct{}),
		faults:   fault.NewInjector(),
	}
}

func (s *DefinitionStore) FailOnce(point string, err error) { s.faults.FailOnce(point, err) }

func (s *DefinitionStore) FailAlways(point string, err error) { s.faults.FailAlways(point, err) }

func (s *DefinitionStore) ClearFault(point string) { s.faults.Clear(point) }

// MarkInUse registers a live actor reference for id.
func (s *DefinitionStore) MarkInUse(id uuid.UUID) {
	s.mu.Lock()
	s.inUse[id] = struct{}{}
	s.mu.Unlock()
}

// ClearInUse removes all actor references.
func (s *DefinitionStore) ClearInUse() {
	s.mu.Lock()
	s.inUse = make(map[uuid.UUID]struct{})
	s.mu.Unlock()
}

func (s *DefinitionStore) IDsInUse(ctx context.Context) (map[uuid.UUID]struct{}, error) {
	s.record("IDsInUse")
	if err := s.faults.Eval(FaultDefinitionStoreIDsInUse); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.inUse), nil
}

func (s *DefinitionStore) DefaultVersions(ctx context.Context) (map[uuid.UUID]defsync.VersionRecord, error) {
	s.record("DefaultVersions")
	if err := s.faults.Eval(FaultDefinitionStoreDefaultVersions); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.versions), nil
}

func (s *DefinitionStore) WriteDefinition(ctx context.Context, meta defsync.DefinitionMetadata, version defsync.VersionRecord, changes []defsync.BreakingChange) error {
	s.record("WriteDefinition", meta, version, changes)
	if err := s.faults.Eval(FaultDefinitionStoreWrite, meta, version); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[meta.ID] = meta
	s.versions[meta.ID] = version
	s.changes[meta.ID] = slices.Clone(changes)
	if _, ok := s.states[meta.ID]; !ok {
		s.states[meta.ID] = defsync.SupportStateSupported
	}
	return nil
}

func (s *DefinitionStore) UpdateMetadata(ctx context.Context, meta defsync.DefinitionMetadata) error {
	s.record("UpdateMetadata", meta)
	if err := s.faults.Eval(FaultDefinitionStoreUpdateMetadata, meta); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[meta.ID] = meta
	return nil
}

func (s *DefinitionStore) ListDefinitions(ctx context.Context) ([]defsync.DefinitionRecord, error) {
	s.record("ListDefinitions")
	if err := s.faults.Eval(FaultDefinitionStoreList); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]defsync.DefinitionRecord, 0, len(s.metadata))
	for id, meta := range s.metadata {
		out = append(out, defsync.DefinitionRecord{
			Metadata:       meta,
			DefaultVersion: s.versions[id],
			SupportState:   s.states[id],
		})
	}
	slices.SortFunc(out, func(a, b defsync.DefinitionRecord) int {
		switch {
		case a.Metadata.DockerRepository < b.Metadata.DockerRepository:
			return -1
		case a.Metadata.DockerRepository > b.Metadata.DockerRepository:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

func (s *DefinitionStore) BreakingChanges(ctx context.Context, definitionID uuid.UUID) ([]defsync.BreakingChange, error) {
	s.record("BreakingChanges", definitionID)
	if err := s.faults.Eval(FaultDefinitionStoreBreakingChanges, definitionID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.changes[definitionID]), nil
}

func (s *DefinitionStore) SetSupportState(ctx context.Context, definitionID uuid.UUID, state defsync.SupportState) error {
	s.record("SetSupportState", definitionID, state)
	if err := s.faults.Eval(FaultDefinitionStoreSetSupportState, definitionID, state); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[definitionID] = state
	return nil
}

// Version returns the stored default version for id, if any.
func (s *DefinitionStore) Version(id uuid.UUID) (defsync.VersionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[id]
	return v, ok
}

// Metadata returns the stored metadata for id, if any.
func (s *DefinitionStore) Metadata(id uuid.UUID) (defsync.DefinitionMetadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metadata[id]
	return m, ok
}

// State returns the stored support state for id, if any.
func (s *DefinitionStore) State(id uuid.UUID) (defsync.SupportState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	return st, ok
}
