package geometry

import (
	"sync"

	"github.com/lvillar/marginblank"
)

// Model holds the operator's current margins. It is safe for concurrent use;
// Snapshot never observes a partially applied update.
type Model struct {
	mu     sync.RWMutex
	m      Margins
	max    float64
	policy marginblank.MarginPolicy
}

// NewModel returns a Model at zero margins. A non-positive max falls back to
// marginblank.DefaultMaxMargin.
func NewModel(max float64, policy marginblank.MarginPolicy) *Model {
	if max <= 0 {
		max = marginblank.DefaultMaxMargin
	}
	return &Model{max: max, policy: policy}
}

// Max returns the upper bound for every margin.
func (md *Model) Max() float64 { return md.max }

// Policy returns the out-of-range policy.
func (md *Model) Policy() marginblank.MarginPolicy { return md.policy }

// Snapshot returns the current margins.
func (md *Model) Snapshot() Margins {
	md.mu.RLock()
	defer md.mu.RUnlock()
	return md.m
}

// Set replaces all four margins and returns the stored values. Under Reject,
// an out-of-range value leaves the model unchanged and returns the error.
func (md *Model) Set(m Margins) (Margins, error) {
	md.mu.Lock()
	defer md.mu.Unlock()
	if md.policy == marginblank.Reject {
		if err := m.Validate(md.max); err != nil {
			return md.m, err
		}
	}
	md.m = m.Clamp(md.max)
	return md.m, nil
}

// SetEdge updates a single margin.
func (md *Model) SetEdge(e Edge, v float64) (Margins, error) {
	md.mu.Lock()
	defer md.mu.Unlock()
	next := md.m.With(e, v)
	if md.policy == marginblank.Reject {
		if err := next.Validate(md.max); err != nil {
			return md.m, err
		}
	}
	md.m = next.Clamp(md.max)
	return md.m, nil
}

// Reset sets every margin back to zero.
func (md *Model) Reset() {
	md.mu.Lock()
	md.m = Margins{}
	md.mu.Unlock()
}
