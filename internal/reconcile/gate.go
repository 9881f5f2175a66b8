package reconcile

import (
	"defsync"

	"github.com/Masterminds/semver/v3"
)

// SupportedProtocolVersion reports whether a declared protocol version falls
// inside the platform's supported range, inclusive on both ends. A nil range
// means no range is configured and every version passes. An unparsable
// declared version is incompatible, never a crash.
func SupportedProtocolVersion(declared string, r *defsync.ProtocolVersionRange) bool {
	if r == nil {
		return true
	}
	v, err := semver.StrictNewVersion(declared)
	if err != nil {
		return false
	}
	return r.Contains(v)
}
