package rules

import (
	"github.com/farcloser/sonority/internal/types"
)

// Bands defines severity thresholds for a metric. Direction is implicit:
// if Notice <= Critical, higher values are worse (ascending, e.g. energy loss).
// If Notice > Critical, lower values are worse (descending, e.g. phase correlation).
// Strict makes every edge exclusive; otherwise edges are inclusive.
type Bands struct {
	Notice   float64
	Warn     float64
	Critical float64
	Strict   bool
}

// Match returns the severity for a value, and false when the value is below the Notice threshold.
func (b Bands) Match(value float64) (types.Severity, bool) {
	worse := b.atOrAbove
	if b.Notice > b.Critical {
		worse = b.atOrBelow
	}

	switch {
	case worse(value, b.Critical):
		return types.SeverityCritical, true
	case worse(value, b.Warn):
		return types.SeverityWarn, true
	case worse(value, b.Notice):
		return types.SeverityInfo, true
	}

	return types.SeverityInfo, false
}

func (b Bands) atOrAbove(value, threshold float64) bool {
	if b.Strict {
		return value > threshold
	}

	return value >= threshold
}

func (b Bands) atOrBelow(value, threshold float64) bool {
	if b.Strict {
		return value < threshold
	}

	return value <= threshold
}
