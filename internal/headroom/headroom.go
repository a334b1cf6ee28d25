// Package headroom derives true-peak headroom and codec distortion risk from source and
// simulated post-encode measurements.
package headroom

import (
	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/sonority/metric"
)

// Badge is the four-level headroom classification.
type Badge string

const (
	BadgeHealthy  Badge = "healthy"
	BadgeOK       Badge = "ok"
	BadgeWarn     Badge = "warn"
	BadgeCritical Badge = "critical"
)

// Risk is a codec distortion risk rank.
type Risk int

const (
	RiskUnknown Risk = iota
	RiskLow
	RiskModerate
	RiskHigh
)

func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskModerate:
		return "moderate"
	case RiskHigh:
		return "high"
	case RiskUnknown:
	}

	return "unknown"
}

// ParseRisk ranks a risk label. Unknown labels rank as RiskUnknown.
func ParseRisk(label metric.Text) Risk {
	switch label.Normalized() {
	case "low":
		return RiskLow
	case "moderate":
		return RiskModerate
	case "high":
		return RiskHigh
	}

	return RiskUnknown
}

// LimiterTipFrom is the worst post-encode true peak at which the limiter-ceiling tip applies.
const LimiterTipFrom = -0.2

// Report holds every derived headroom value. Absent inputs propagate as absent outputs.
type Report struct {
	SourceHeadroomDb   metric.Value
	WorstPostTruePeak  metric.Value
	PostHeadroomDb     metric.Value
	EffectiveHeadroom  metric.Value
	Score              metric.Value
	Badge              Badge
	DistortionRisk     Risk
	CodecRisks         map[metric.Codec]Risk
	HasCodecSimulation bool
}

// Compute derives the headroom report from the source true peak and an optional simulation.
func Compute(truePeak metric.Value, sim *metric.CodecSimulation) Report {
	report := Report{
		SourceHeadroomDb: truePeak.Map(func(tp float64) float64 { return 0.0 - tp }),
		CodecRisks:       map[metric.Codec]Risk{},
	}

	if !sim.Empty() {
		report.HasCodecSimulation = true

		var posts []float64

		for _, codec := range sim.Codecs() {
			if v, ok := codec.Result.PostTruePeakDb.Get(); ok {
				posts = append(posts, v)
			}

			risk := ParseRisk(codec.Result.DistortionRisk)
			if risk != RiskUnknown {
				report.CodecRisks[codec.Name] = risk
			}

			report.DistortionRisk = max(report.DistortionRisk, risk)
		}

		if len(posts) > 0 {
			worst := floats.Max(posts)
			report.WorstPostTruePeak = metric.Of(worst)
			report.PostHeadroomDb = metric.Of(0.0 - worst)
		}
	}

	report.EffectiveHeadroom = Effective(report.SourceHeadroomDb, report.PostHeadroomDb)

	if h, ok := report.EffectiveHeadroom.Get(); ok {
		score := Score(h)
		report.Score = metric.Of(float64(score))
		report.Badge = BadgeFor(score)
	}

	return report
}

// Effective returns the smaller of the defined headroom values.
func Effective(values ...metric.Value) metric.Value {
	out := metric.None

	for _, v := range values {
		h, ok := v.Get()
		if !ok {
			continue
		}

		if cur, has := out.Get(); !has || h < cur {
			out = metric.Of(h)
		}
	}

	return out
}

// Score maps an effective headroom in dB onto a 0-100 step score.
// Bucket upper edges are exclusive, except for zero headroom which scores 0.
func Score(headroomDb float64) int {
	switch {
	case headroomDb <= 0:
		return 0
	case headroomDb < 0.10:
		return 15
	case headroomDb < 0.30:
		return 35
	case headroomDb < 0.50:
		return 55
	case headroomDb < 0.70:
		return 70
	case headroomDb < 1.00:
		return 85
	default:
		return 100
	}
}

// BadgeFor classifies a headroom score.
func BadgeFor(score int) Badge {
	switch {
	case score >= 80:
		return BadgeHealthy
	case score >= 60:
		return BadgeOK
	case score >= 35:
		return BadgeWarn
	default:
		return BadgeCritical
	}
}

// NeedsLimiterTip reports whether the worst post-encode true peak is close enough to full
// scale to warrant the limiter-ceiling tip.
func (r Report) NeedsLimiterTip() bool {
	v, ok := r.WorstPostTruePeak.Get()

	return ok && v >= LimiterTipFrom
}
