// Package support recomputes definition support states from persisted state.
// The computation is idempotent and reads only the registry, never the
// catalog, so it can run after any reconciliation regardless of how many
// entries succeeded.
package support

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"defsync"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// Registry is the slice of the definition store the updater needs.
type Registry interface {
	ListDefinitions(ctx context.Context) ([]defsync.DefinitionRecord, error)
	BreakingChanges(ctx context.Context, definitionID uuid.UUID) ([]defsync.BreakingChange, error)
	SetSupportState(ctx context.Context, definitionID uuid.UUID, state defsync.SupportState) error
}

// Clock abstracts wall-clock time so deadline evaluation is testable.
type Clock interface {
	Now() time.Time
}

// RealClock is the production clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Updater recomputes each definition's support state from its default
// version and declared breaking changes.
type Updater struct {
	Registry Registry
	Clock    Clock
}

func New(registry Registry) *Updater {
	return &Updater{Registry: registry, Clock: RealClock{}}
}

func (u *Updater) clock() Clock {
	if u.Clock != nil {
		return u.Clock
	}
	return RealClock{}
}

// UpdateSupportStates recomputes and persists the support state of every
// definition. States that did not change are not rewritten.
func (u *Updater) UpdateSupportStates(ctx context.Context) error {
	defs, err := u.Registry.ListDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("list definitions: %w", err)
	}

	now := u.clock().Now().UTC()
	for _, def := range defs {
		changes, err := u.Registry.BreakingChanges(ctx, def.Metadata.ID)
		if err != nil {
			return fmt.Errorf("load breaking changes for %s: %w", def.Metadata.DockerRepository, err)
		}
		state := StateFor(def.DefaultVersion.DockerImageTag, changes, now)
		if state == def.SupportState {
			continue
		}
		if err := u.Registry.SetSupportState(ctx, def.Metadata.ID, state); err != nil {
			return fmt.Errorf("set support state for %s: %w", def.Metadata.DockerRepository, err)
		}
		slog.Info("definition support state changed",
			"repository", def.Metadata.DockerRepository,
			"from", string(def.SupportState),
			"to", string(state))
	}
	return nil
}

// StateFor computes the support state of a default version against declared
// breaking changes. A version below a target whose upgrade deadline has
// passed is unsupported; below a target with a pending deadline it is
// deprecated; otherwise it is supported. A deadline counts as passed from
// the start of that UTC day; a zero deadline never passes.
//
// Versions or targets that do not parse as semver are skipped rather than
// failing: malformed data was already attributed during reconciliation.
func StateFor(version string, changes []defsync.BreakingChange, now time.Time) defsync.SupportState {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return defsync.SupportStateSupported
	}

	state := defsync.SupportStateSupported
	for _, bc := range changes {
		target, err := semver.StrictNewVersion(bc.TargetVersion)
		if err != nil {
			continue
		}
		if !v.LessThan(target) {
			continue
		}
		if !bc.UpgradeDeadline.IsZero() && !now.Before(bc.UpgradeDeadline) {
			return defsync.SupportStateUnsupported
		}
		state = defsync.SupportStateDeprecated
	}
	return state
}
