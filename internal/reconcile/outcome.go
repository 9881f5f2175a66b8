package reconcile

// OutcomeKind tags the result of processing one catalog entry.
type OutcomeKind uint8

const (
	OutcomeUnknown OutcomeKind = iota
	OutcomeInitialVersionAdded
	OutcomeDefaultVersionUpdated
	OutcomeVersionUnchanged
	OutcomeIncompatibleProtocolVersion
	OutcomeConversionFailed
	OutcomeWriteFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInitialVersionAdded:
		return "initial_version_added"
	case OutcomeDefaultVersionUpdated:
		return "default_version_updated"
	case OutcomeVersionUnchanged:
		return "version_unchanged"
	case OutcomeIncompatibleProtocolVersion:
		return "incompatible_protocol_version"
	case OutcomeConversionFailed:
		return "definition_conversion_failed"
	case OutcomeWriteFailed:
		return "definition_write_failed"
	default:
		return "unknown"
	}
}

// Failed reports whether the kind is a failure outcome.
func (k OutcomeKind) Failed() bool {
	switch k {
	case OutcomeIncompatibleProtocolVersion, OutcomeConversionFailed, OutcomeWriteFailed:
		return true
	default:
		return false
	}
}

// Outcome attributes one processed catalog entry. Every entry the engine
// sees yields exactly one Outcome, success or failure.
type Outcome struct {
	Kind             OutcomeKind
	DockerRepository string
	DockerImageTag   string
}
