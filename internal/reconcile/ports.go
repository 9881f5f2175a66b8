package reconcile

import (
	"context"

	"defsync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// CatalogSource supplies the declared definition lists. The source is
// responsible for rejecting or deduplicating repeated definition ids; the
// engine assumes each id appears at most once per invocation.
type CatalogSource interface {
	SourceDefinitions(ctx context.Context) ([]defsync.CatalogEntry, error)
	DestinationDefinitions(ctx context.Context) ([]defsync.CatalogEntry, error)
}

// DefinitionReader is the read side of the registry, loaded once per apply.
type DefinitionReader interface {
	IDsInUse(ctx context.Context) (map[uuid.UUID]struct{}, error)
	DefaultVersions(ctx context.Context) (map[uuid.UUID]defsync.VersionRecord, error)
}

// DefinitionWriter is the write side of the registry. Both calls must be
// atomic from the engine's perspective: fully applied or not at all.
type DefinitionWriter interface {
	WriteDefinition(ctx context.Context, meta defsync.DefinitionMetadata, version defsync.VersionRecord, changes []defsync.BreakingChange) error
	UpdateMetadata(ctx context.Context, meta defsync.DefinitionMetadata) error
}

// DefinitionStore groups both registry sides.
type DefinitionStore interface {
	DefinitionReader
	DefinitionWriter
}

// RangeProvider reports the protocol version range the platform supports.
// A nil range with a nil error means no range has been configured yet; the
// gate then treats every entry as compatible.
type RangeProvider interface {
	CurrentRange(ctx context.Context) (*defsync.ProtocolVersionRange, error)
}

// MetricsSink counts processed-entry events.
type MetricsSink interface {
	Count(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// SupportStateUpdater recomputes definition support states from persisted
// state. It is idempotent and runs exactly once per apply, after all writes.
type SupportStateUpdater interface {
	UpdateSupportStates(ctx context.Context) error
}
