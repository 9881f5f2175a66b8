package reconcile

import "defsync"

// Action is the registry write the usage policy selects for one entry.
type Action uint8

const (
	ActionCreate Action = iota + 1
	ActionUpdateDefault
	ActionUpdateMetadataOnly
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdateDefault:
		return "update_default"
	case ActionUpdateMetadataOnly:
		return "update_metadata_only"
	default:
		return "unknown"
	}
}

// Decide selects the write for a catalog entry given the persisted default
// version (nil when the definition has never been written), whether any live
// actor references the definition, and the force flag.
//
// A definition in use keeps its current default version unless force is set:
// swapping the served version under live actors is an explicit opt-in. The
// non-versioned metadata is refreshed on every path regardless.
func Decide(existing *defsync.VersionRecord, incomingTag string, inUse, force bool) Action {
	switch {
	case existing == nil:
		return ActionCreate
	case existing.DockerImageTag == incomingTag:
		return ActionUpdateMetadataOnly
	case !inUse || force:
		return ActionUpdateDefault
	default:
		return ActionUpdateMetadataOnly
	}
}
