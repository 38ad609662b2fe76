package marginblank

import "fmt"

// Document-space units: PDF points, origin top-left.
const (
	PointsPerInch      = 72.0
	DefaultMaxMargin   = 200.0
	DefaultFitFraction = 0.95
)

// MarginPolicy decides what happens to margin values outside [0, max].
type MarginPolicy int

const (
	// Clamp pulls out-of-range values to the nearest bound.
	Clamp MarginPolicy = iota
	// Reject refuses the update and leaves the margins unchanged.
	Reject
)

func (p MarginPolicy) String() string {
	if p == Reject {
		return "reject"
	}
	return "clamp"
}

// ParseMarginPolicy maps "clamp" and "reject" to a policy. Empty means Clamp.
func ParseMarginPolicy(s string) (MarginPolicy, error) {
	switch s {
	case "", "clamp":
		return Clamp, nil
	case "reject":
		return Reject, nil
	}
	return Clamp, NewError(KindInvalidMargin, "ParseMarginPolicy", "", fmt.Errorf("unknown margin policy %q", s))
}
