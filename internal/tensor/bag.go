package tensor

import "fmt"

// BagMode selects how the rows of a bag are reduced.
//
// The set is closed: every switch over BagMode handles all three values and
// panics on anything else.
type BagMode int

// Bag reduction modes.
const (
	BagSum BagMode = iota
	BagMean
	BagMax
)

// String returns the lower-case mode name.
func (m BagMode) String() string {
	switch m {
	case BagSum:
		return "sum"
	case BagMean:
		return "mean"
	case BagMax:
		return "max"
	default:
		return fmt.Sprintf("BagMode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m BagMode) Valid() bool {
	switch m {
	case BagSum, BagMean, BagMax:
		return true
	default:
		return false
	}
}

// ParseBagMode parses "sum", "mean" or "max".
func ParseBagMode(s string) (BagMode, error) {
	switch s {
	case "sum":
		return BagSum, nil
	case "mean":
		return BagMean, nil
	case "max":
		return BagMax, nil
	default:
		return 0, fmt.Errorf("unknown bag mode %q (want sum, mean or max)", s)
	}
}
