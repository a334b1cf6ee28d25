// Package dynamics scores how much dynamic life a master has left.
//
// Crest factor, loudness range and integrated loudness are each mapped through a
// piecewise-linear table to a 0-100 sub-score. The sub-scores are combined with fixed weights,
// renormalized over whichever inputs are present. Hard overrides then catch single-axis
// failures that a weighted mean would hide.
package dynamics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/sonority/internal/curve"
	"github.com/farcloser/sonority/metric"
)

// Label classifies a health score.
type Label string

const (
	LabelHealthy     Label = "healthy"
	LabelBorderline  Label = "borderline"
	LabelOverLimited Label = "over-limited"
)

const (
	weightCrest = 0.40
	weightLRA   = 0.30
	weightLUFS  = 0.20
	weightCodec = 0.10

	// CodecImpactScore is a placeholder sub-score held constant until codec-aware scoring
	// exists. Extending the weighting needs product sign-off.
	CodecImpactScore = 100.0

	// NeutralScore is reported when no dynamics input is available.
	NeutralScore = 65

	healthyFrom    = 75
	borderlineFrom = 55

	overLimitedCap = 54
	lowLRACap      = 74

	overrideCrestBelow = 4.5
	overrideLRABelow   = 2.0
	overrideLUFSAbove  = -6.0

	// Same edges as the over-limited loudness pattern in rules.
	loudFlatLUFSFrom = -9.0
	loudFlatLRABelow = 2.0

	lowLRABelow = 1.0
)

//nolint:gochecknoglobals // policy tables, effectively const
var (
	CrestTable = curve.Table{
		{Low: 0, High: 4.5, LowScore: 0, HighScore: 45},
		{Low: 4.5, High: 5.5, LowScore: 45, HighScore: 70},
		{Low: 5.5, High: 7, LowScore: 70, HighScore: 85},
		{Low: 7, High: 8.5, LowScore: 85, HighScore: 100},
	}

	LRATable = curve.Table{
		{Low: 2, High: 3, LowScore: 30, HighScore: 60},
		{Low: 3, High: 5, LowScore: 65, HighScore: 80},
		{Low: 5, High: 8, LowScore: 80, HighScore: 100},
	}

	LUFSTable = curve.Table{
		{Low: -12, High: -8, LowScore: 100, HighScore: 90},
		{Low: -8, High: -6, LowScore: 90, HighScore: 75},
		{Low: -6, High: -3, LowScore: 75, HighScore: 60},
	}
)

// Factors are the per-metric sub-scores, absent when the metric was not supplied.
type Factors struct {
	LUFS  metric.Value `json:"lufs"`
	LRA   metric.Value `json:"lra"`
	Crest metric.Value `json:"crest"`
}

// Health is the derived dynamics verdict. It is never modified after Score returns it.
type Health struct {
	Score   int     `json:"score"`
	Label   Label   `json:"label"`
	Factors Factors `json:"factors"`

	// Measured is false when no input was available and the neutral score was used.
	Measured bool `json:"-"`
}

// Score computes the dynamics health from the three optional inputs.
func Score(lufs, lra, crest metric.Value) Health {
	var (
		factors Factors
		scores  []float64
		weights []float64
	)

	if v, ok := crest.Get(); ok {
		s := CrestTable.Eval(v)
		factors.Crest = metric.Of(s).Round(1)
		scores = append(scores, s)
		weights = append(weights, weightCrest)
	}

	if v, ok := lra.Get(); ok {
		s := LRATable.Eval(v)
		factors.LRA = metric.Of(s).Round(1)
		scores = append(scores, s)
		weights = append(weights, weightLRA)
	}

	if v, ok := lufs.Get(); ok {
		s := LUFSTable.Eval(v)
		factors.LUFS = metric.Of(s).Round(1)
		scores = append(scores, s)
		weights = append(weights, weightLUFS)
	}

	if len(scores) == 0 {
		return Health{
			Score:   NeutralScore,
			Label:   labelFor(NeutralScore),
			Factors: factors,
		}
	}

	scores = append(scores, CodecImpactScore)
	weights = append(weights, weightCodec)

	score := int(math.Round(stat.Mean(scores, weights)))
	score = min(max(score, 0), 100)

	if v, ok := lra.Get(); ok && v < lowLRABelow {
		score = min(score, lowLRACap)
	}

	label := labelFor(score)

	if overLimited(lufs, lra, crest) {
		label = LabelOverLimited
		score = min(score, overLimitedCap)
	}

	return Health{
		Score:    score,
		Label:    label,
		Factors:  factors,
		Measured: true,
	}
}

func labelFor(score int) Label {
	switch {
	case score >= healthyFrom:
		return LabelHealthy
	case score >= borderlineFrom:
		return LabelBorderline
	default:
		return LabelOverLimited
	}
}

// overLimited reports whether the hard over-limited override applies: two or more of the
// extreme single-axis conditions, or a loud master with a flat loudness range.
func overLimited(lufs, lra, crest metric.Value) bool {
	hits := 0

	if v, ok := crest.Get(); ok && v < overrideCrestBelow {
		hits++
	}

	if v, ok := lra.Get(); ok && v < overrideLRABelow {
		hits++
	}

	if v, ok := lufs.Get(); ok && v > overrideLUFSAbove {
		hits++
	}

	if hits >= 2 {
		return true
	}

	// Loud and flat mirrors the first clause of the over-limited loudness pattern in rules
	// (LUFS >= -9 and LRA < 2, without the true-peak term). It is a third override on purpose.
	l, lok := lufs.Get()
	r, rok := lra.Get()

	return lok && rok && l >= loudFlatLUFSFrom && r < loudFlatLRABelow
}
