package reconcile

import (
	"fmt"
	"sort"

	"defsync"

	"github.com/Masterminds/semver/v3"
)

// ConversionError marks a catalog entry that cannot be converted into its
// persisted artifacts. It carries the offending repository/tag pair so the
// failure can be attributed without the original entry.
type ConversionError struct {
	DockerRepository string
	DockerImageTag   string
	Err              error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert definition %s:%s: %v", e.DockerRepository, e.DockerImageTag, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ToMetadata extracts the non-versioned definition record from a catalog
// entry. It cannot fail.
func ToMetadata(entry defsync.CatalogEntry) defsync.DefinitionMetadata {
	return defsync.DefinitionMetadata{
		ID:               entry.DefinitionID,
		Type:             entry.Type,
		Name:             entry.Name,
		DockerRepository: entry.DockerRepository,
		DocumentationURL: entry.DocumentationURL,
	}
}

// ToDefaultVersion builds the default version record for a catalog entry.
// The docker image tag must parse as a strict semantic version.
func ToDefaultVersion(entry defsync.CatalogEntry) (defsync.VersionRecord, error) {
	if _, err := semver.StrictNewVersion(entry.DockerImageTag); err != nil {
		return defsync.VersionRecord{}, &ConversionError{
			DockerRepository: entry.DockerRepository,
			DockerImageTag:   entry.DockerImageTag,
			Err:              fmt.Errorf("docker image tag is not a semantic version: %w", err),
		}
	}
	return defsync.VersionRecord{
		DefinitionID:    entry.DefinitionID,
		DockerImageTag:  entry.DockerImageTag,
		ProtocolVersion: entry.ProtocolVersion,
	}, nil
}

// ToBreakingChanges returns the entry's declared breaking changes ordered
// ascending by target version. A target that does not parse as a semantic
// version fails the whole entry.
func ToBreakingChanges(entry defsync.CatalogEntry) ([]defsync.BreakingChange, error) {
	if len(entry.BreakingChanges) == 0 {
		return nil, nil
	}

	targets := make(map[string]*semver.Version, len(entry.BreakingChanges))
	out := make([]defsync.BreakingChange, 0, len(entry.BreakingChanges))
	for _, bc := range entry.BreakingChanges {
		v, err := semver.StrictNewVersion(bc.TargetVersion)
		if err != nil {
			return nil, &ConversionError{
				DockerRepository: entry.DockerRepository,
				DockerImageTag:   entry.DockerImageTag,
				Err:              fmt.Errorf("breaking change target %q is not a semantic version: %w", bc.TargetVersion, err),
			}
		}
		targets[bc.TargetVersion] = v
		out = append(out, bc)
	}

	sort.Slice(out, func(i, j int) bool {
		return targets[out[i].TargetVersion].LessThan(targets[out[j].TargetVersion])
	})
	return out, nil
}
