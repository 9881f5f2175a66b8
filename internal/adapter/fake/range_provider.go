package fake

import (
	"context"
	"sync"

	"defsync"
	"defsync/internal/adapter/fake/fault"
	"defsync/internal/reconcile"
)

var _ reconcile.RangeProvider = (*RangeProvider)(nil)

const FaultRangeCurrent = "range_provider.current_range"

// RangeProvider serves a fixed protocol version range. A nil range mimics an
// unconfigured platform.
type RangeProvider struct {
	CallRecorder
	mu     sync.Mutex
	rng    *defsync.ProtocolVersionRange
	faults *fault.Injector
}

func NewRangeProvider(rng *defsync.ProtocolVersionRange) *RangeProvider {
	return &RangeProvider{rng: rng, faults: fault.NewInjector()}
}

func (p *RangeProvider) FailOnce(point string, err error) { p.faults.FailOnce(point, err) }

// SetRange replaces the served range.
func (p *RangeProvider) SetRange(rng *defsync.ProtocolVersionRange) {
	p.mu.Lock()
	p.rng = rng
	p.mu.Unlock()
}

func (p *RangeProvider) CurrentRange(ctx context.Context) (*defsync.ProtocolVersionRange, error) {
	p.record("CurrentRange")
	if err := p.faults.Eval(FaultRangeCurrent); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng, nil
}
