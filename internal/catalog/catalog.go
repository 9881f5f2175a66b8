// Package catalog loads the declarative connector definition catalog from a
// YAML document. The loader owns structural validation: identity, required
// fields, and id uniqueness across the whole file. Per-entry semantic
// validation (semver tags, protocol gating) belongs to the reconciler so a
// single malformed entry degrades to a recorded failure instead of rejecting
// the file.
package catalog

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"defsync"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultProtocolVersion is assumed when an entry does not declare one.
const DefaultProtocolVersion = "0.2.0"

const deadlineLayout = "2006-01-02"

type breakingChangeDoc struct {
	Message                   string `yaml:"message"`
	UpgradeDeadline           string `yaml:"upgradeDeadline"`
	MigrationDocumentationURL string `yaml:"migrationDocumentationUrl"`
}

type entryDoc struct {
	DefinitionID     string                       `yaml:"definitionId"`
	Name             string                       `yaml:"name"`
	DockerRepository string                       `yaml:"dockerRepository"`
	DockerImageTag   string                       `yaml:"dockerImageTag"`
	DocumentationURL string                       `yaml:"documentationUrl"`
	ProtocolVersion  string                       `yaml:"protocolVersion"`
	BreakingChanges  map[string]breakingChangeDoc `yaml:"breakingChanges"`
}

type document struct {
	Sources      []entryDoc `yaml:"sources"`
	Destinations []entryDoc `yaml:"destinations"`
}

// Catalog is a parsed, validated definition catalog. It implements
// reconcile.CatalogSource.
type Catalog struct {
	sources      []defsync.CatalogEntry
	destinations []defsync.CatalogEntry
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse parses and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	seen := make(map[uuid.UUID]string, len(doc.Sources)+len(doc.Destinations))
	sources, err := convertEntries(doc.Sources, defsync.SourceDefinition, seen)
	if err != nil {
		return nil, err
	}
	destinations, err := convertEntries(doc.Destinations, defsync.DestinationDefinition, seen)
	if err != nil {
		return nil, err
	}

	return &Catalog{sources: sources, destinations: destinations}, nil
}

// SourceDefinitions returns the declared source definitions.
func (c *Catalog) SourceDefinitions(_ context.Context) ([]defsync.CatalogEntry, error) {
	return slices.Clone(c.sources), nil
}

// DestinationDefinitions returns the declared destination definitions.
func (c *Catalog) DestinationDefinitions(_ context.Context) ([]defsync.CatalogEntry, error) {
	return slices.Clone(c.destinations), nil
}

// Len returns the total number of declared definitions.
func (c *Catalog) Len() int {
	return len(c.sources) + len(c.destinations)
}

func convertEntries(docs []entryDoc, typ defsync.DefinitionType, seen map[uuid.UUID]string) ([]defsync.CatalogEntry, error) {
	entries := make([]defsync.CatalogEntry, 0, len(docs))
	for i, d := range docs {
		entry, err := convertEntry(d, typ)
		if err != nil {
			return nil, fmt.Errorf("%s definition %d: %w", typ, i, err)
		}
		if prev, dup := seen[entry.DefinitionID]; dup {
			return nil, fmt.Errorf("%s definition %q: id %s already declared by %q", typ, entry.DockerRepository, entry.DefinitionID, prev)
		}
		seen[entry.DefinitionID] = entry.DockerRepository
		entries = append(entries, entry)
	}
	return entries, nil
}

func convertEntry(d entryDoc, typ defsync.DefinitionType) (defsync.CatalogEntry, error) {
	if strings.TrimSpace(d.DockerRepository) == "" {
		return defsync.CatalogEntry{}, fmt.Errorf("dockerRepository is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return defsync.CatalogEntry{}, fmt.Errorf("%s: name is required", d.DockerRepository)
	}
	if strings.TrimSpace(d.DockerImageTag) == "" {
		return defsync.CatalogEntry{}, fmt.Errorf("%s: dockerImageTag is required", d.DockerRepository)
	}
	id, err := uuid.Parse(d.DefinitionID)
	if err != nil {
		return defsync.CatalogEntry{}, fmt.Errorf("%s: definitionId: %w", d.DockerRepository, err)
	}

	protocol := strings.TrimSpace(d.ProtocolVersion)
	if protocol == "" {
		protocol = DefaultProtocolVersion
	}

	changes, err := convertBreakingChanges(d.BreakingChanges)
	if err != nil {
		return defsync.CatalogEntry{}, fmt.Errorf("%s: %w", d.DockerRepository, err)
	}

	return defsync.CatalogEntry{
		DefinitionID:     id,
		Type:             typ,
		Name:             d.Name,
		DockerRepository: d.DockerRepository,
		DockerImageTag:   d.DockerImageTag,
		DocumentationURL: d.DocumentationURL,
		ProtocolVersion:  protocol,
		BreakingChanges:  changes,
	}, nil
}

func convertBreakingChanges(docs map[string]breakingChangeDoc) ([]defsync.BreakingChange, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	changes := make([]defsync.BreakingChange, 0, len(docs))
	for target, d := range docs {
		if strings.TrimSpace(d.Message) == "" {
			return nil, fmt.Errorf("breaking change %q: message is required", target)
		}
		deadline, err := time.ParseInLocation(deadlineLayout, d.UpgradeDeadline, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("breaking change %q: upgradeDeadline: %w", target, err)
		}
		changes = append(changes, defsync.BreakingChange{
			TargetVersion:   target,
			Message:         d.Message,
			UpgradeDeadline: deadline,
			MigrationDocURL: d.MigrationDocumentationURL,
		})
	}

	// Best-effort version order; targets that do not parse sort lexically
	// after the valid ones and fail later, in conversion.
	sort.Slice(changes, func(i, j int) bool {
		vi, ei := semver.StrictNewVersion(changes[i].TargetVersion)
		vj, ej := semver.StrictNewVersion(changes[j].TargetVersion)
		switch {
		case ei == nil && ej == nil:
			return vi.LessThan(vj)
		case ei == nil:
			return true
		case ej == nil:
			return false
		default:
			return changes[i].TargetVersion < changes[j].TargetVersion
		}
	})
	return changes, nil
}
