// Package curve evaluates piecewise-linear scoring tables.
package curve

// Segment maps the half-open input range [Low, High) linearly onto [LowScore, HighScore].
type Segment struct {
	Low       float64
	High      float64
	LowScore  float64
	HighScore float64
}

// Table is an ordered list of contiguous segments, ascending in input.
//
// Inputs below the first segment take the first LowScore. Inputs at or above the last High take
// the last HighScore.
type Table []Segment

// Eval returns the score for x.
func (t Table) Eval(x float64) float64 {
	if len(t) == 0 {
		return 0
	}

	if x < t[0].Low {
		return t[0].LowScore
	}

	for _, seg := range t {
		if x >= seg.Low && x < seg.High {
			return seg.interpolate(x)
		}
	}

	return t[len(t)-1].HighScore
}

func (s Segment) interpolate(x float64) float64 {
	span := s.High - s.Low
	if span <= 0 {
		return s.LowScore
	}

	return s.LowScore + (x-s.Low)/span*(s.HighScore-s.LowScore)
}
