package reconcile

import (
	"testing"

	"defsync"
)

func TestDecide(t *testing.T) {
	existing := &defsync.VersionRecord{DockerImageTag: "1.0.0"}

	tests := []struct {
		name     string
		existing *defsync.VersionRecord
		incoming string
		inUse    bool
		force    bool
		want     Action
	}{
		{"new definition", nil, "1.0.0", false, false, ActionCreate},
		{"new definition in use flag irrelevant", nil, "1.0.0", true, false, ActionCreate},
		{"same tag", existing, "1.0.0", false, false, ActionUpdateMetadataOnly},
		{"same tag in use", existing, "1.0.0", true, false, ActionUpdateMetadataOnly},
		{"new tag not in use", existing, "2.0.0", false, false, ActionUpdateDefault},
		{"new tag in use", existing, "2.0.0", true, false, ActionUpdateMetadataOnly},
		{"new tag in use forced", existing, "2.0.0", true, true, ActionUpdateDefault},
		{"downgrade not in use", existing, "0.9.0", false, false, ActionUpdateDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.existing, tt.incoming, tt.inUse, tt.force)
			if got != tt.want {
				t.Fatalf("Decide() = %s, want %s", got, tt.want)
			}
		})
	}
}
