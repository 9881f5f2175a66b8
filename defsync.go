// Package defsync holds the shared data model for the connector definition
// registry: catalog entries as declared upstream, and the persisted shapes
// (metadata, default versions, breaking changes) they reconcile into.
package defsync

import (
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// DefinitionType distinguishes source connectors from destination connectors.
type DefinitionType string

const (
	SourceDefinition      DefinitionType = "source"
	DestinationDefinition DefinitionType = "destination"
)

// IsValid reports whether t is a known definition type.
func (t DefinitionType) IsValid() bool {
	return t == SourceDefinition || t == DestinationDefinition
}

// CatalogEntry is one declared connector definition from the catalog.
// Entries are read-only once loaded; the reconciler never mutates them.
type CatalogEntry struct {
	DefinitionID     uuid.UUID
	Type             DefinitionType
	Name             string
	DockerRepository string
	DockerImageTag   string
	DocumentationURL string
	ProtocolVersion  string
	BreakingChanges  []BreakingChange // ascending by target version
}

// BreakingChange is a declared version boundary requiring explicit migration
// action before upgrade.
type BreakingChange struct {
	TargetVersion   string
	Message         string
	UpgradeDeadline time.Time // date precision, UTC
	MigrationDocURL string
}

// DefinitionMetadata is the non-versioned part of a persisted definition.
// It can change independently of the default version.
type DefinitionMetadata struct {
	ID               uuid.UUID
	Type             DefinitionType
	Name             string
	DockerRepository string
	DocumentationURL string
}

// VersionRecord is a persisted default version for one definition: the
// version served when an actor does not pin an explicit one.
type VersionRecord struct {
	DefinitionID     uuid.UUID
	DockerImageTag   string
	ProtocolVersion  string
}

// Actor is a live instance referencing a definition. Its existence is what
// makes a definition "in use".
type Actor struct {
	ID           uuid.UUID
	DefinitionID uuid.UUID
	Name         string
}

// ProtocolVersionRange is the closed interval of protocol versions the
// platform currently speaks.
type ProtocolVersionRange struct {
	Min *semver.Version
	Max *semver.Version
}

// Contains reports whether v falls inside the range, inclusive on both ends.
func (r ProtocolVersionRange) Contains(v *semver.Version) bool {
	if v == nil || r.Min == nil || r.Max == nil {
		return false
	}
	return !v.LessThan(r.Min) && !v.GreaterThan(r.Max)
}

// SupportState describes whether a definition's default version is still
// serviceable given its declared breaking changes.
type SupportState string

const (
	SupportStateSupported   SupportState = "supported"
	SupportStateDeprecated  SupportState = "deprecated"
	SupportStateUnsupported SupportState = "unsupported"
)

// DefinitionRecord is the full persisted view of one definition, used by
// read-side surfaces (status listing).
type DefinitionRecord struct {
	Metadata       DefinitionMetadata
	DefaultVersion VersionRecord
	SupportState   SupportState
	UpdatedAt      time.Time
}
