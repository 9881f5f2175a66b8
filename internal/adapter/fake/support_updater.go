package fake

import (
	"context"
	"sync"

	"defsync/internal/adapter/fake/fault"
	"defsync/internal/reconcile"
)

var _ reconcile.SupportStateUpdater = (*SupportUpdater)(nil)

const FaultSupportUpdate = "support_updater.update_support_states"

// SupportUpdater counts support-state recomputation invocations.
type SupportUpdater struct {
	CallRecorder
	mu     sync.Mutex
	count  int
	faults *fault.Injector
}

func NewSupportUpdater() *SupportUpdater {
	return &SupportUpdater{faults: fault.NewInjector()}
}

func (u *SupportUpdater) FailOnce(point string, err error) { u.faults.FailOnce(point, err) }

func (u *SupportUpdater) UpdateSupportStates(ctx context.Context) error {
	u.record("UpdateSupportStates")
	if err := u.faults.Eval(FaultSupportUpdate); err != nil {
		return err
	}
	u.mu.Lock()
	u.count++
	u.mu.Unlock()
	return nil
}

// Count returns how many times UpdateSupportStates succeeded.
func (u *SupportUpdater) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.count
}
