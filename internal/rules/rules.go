// Package rules turns measurements into findings: the hard-fail policy, the per-metric
// evaluators and the cross-metric patterns.
//
// Every evaluator is a pure function of the input. Evaluate runs them in a fixed order so the
// resulting highlight list is deterministic. A missing metric never produces a finding.
package rules

import (
	"math"

	"github.com/farcloser/sonority/internal/dynamics"
	"github.com/farcloser/sonority/internal/headroom"
	"github.com/farcloser/sonority/internal/normalize"
	"github.com/farcloser/sonority/internal/types"
	"github.com/farcloser/sonority/metric"
)

// Finding sources.
const (
	SourceDynamics      = "dynamics"
	SourceHardFail      = "hard_fail"
	SourceTruePeak      = "true_peak"
	SourceCodecHeadroom = "codec_headroom"
	SourceCodecRisk     = "codec_risk"
	SourceLowEnd        = "low_end"
	SourcePhase         = "phase"
	SourceStereoWidth   = "stereo_width"
	SourceMidSide       = "mid_side"
	SourceSpectral      = "spectral"
	SourcePattern       = "pattern"
	SourceStreaming     = "streaming"
)

// Recommendation ids referenced across evaluators.
const (
	RecTruePeakHeadroom    = "rec_true_peak_headroom"
	RecLoudnessRangeNarrow = "rec_loudness_range_narrow"
)

// Policy constants. Edges are exact.
const (
	hardFailTruePeak   = 1.0
	massiveClipping    = 100.0
	thinHeadroomBelow  = 1.0
	codecPostCeiling   = -1.0
	narrowLRABelow     = 2.0
	narrowWidthBelow   = 0.05
	wideWidthAbove     = 0.6
	sideHeavyAtOrBelow = 0.0
	sideLeaningBelow   = 3.0
	monoLikeAbove      = 20.0
	spectralDeltaAbove = 8.0
	turnDownAtOrBelow  = -5.0

	overLimitedLUFSFrom     = -9.0
	overLimitedLRABelow     = 2.0
	overLimitedTruePeakOver = -1.0
	wideUnstablePhaseBelow  = 0.2
	harshFlatCrestBelow     = 8.0
	harshFlatLRABelow       = 3.0
)

//nolint:gochecknoglobals // policy bands, effectively const
var (
	phaseBands        = Bands{Notice: 0.5, Warn: 0.2, Critical: 0, Strict: true}
	lowEndPhaseBands  = Bands{Notice: 0.6, Warn: 0.3, Critical: 0, Strict: true}
	lowEndMonoLossPct = Bands{Notice: 10, Warn: 30, Critical: 60}
)

// Input is everything the evaluators read.
type Input struct {
	Metrics   metric.Measurements
	Health    dynamics.Health
	Headroom  headroom.Report
	Streaming *normalize.Report
}

type (
	evaluator func(in Input) []types.Finding
	pattern   func(in Input, prior []types.Finding) []types.Finding
)

// Evaluate runs every rule in order and returns the findings in evaluation order.
func Evaluate(in Input) []types.Finding {
	evaluators := []evaluator{
		dynamicsContext,
		hardFail,
		truePeakHeadroom,
		codecHeadroom,
		codecRisk,
		lowEndMono,
		phaseCorrelation,
		stereoWidth,
		midSideBalance,
		spectralBalance,
	}

	patterns := []pattern{
		overLimitedPattern,
		wideUnstablePattern,
		harshFlatPattern,
	}

	var findings []types.Finding

	for _, eval := range evaluators {
		findings = append(findings, eval(in)...)
	}

	for _, pat := range patterns {
		findings = append(findings, pat(in, findings)...)
	}

	findings = append(findings, streaming(in)...)

	return findings
}

func hasRecommendation(findings []types.Finding, id string) bool {
	for _, f := range findings {
		if f.RecommendationID() == id {
			return true
		}
	}

	return false
}

// all2 returns both values when both are present.
func all2(a, b metric.Value) (float64, float64, bool) {
	x, xok := a.Get()
	y, yok := b.Get()

	return x, y, xok && yok
}

func ratioDb(ratio float64) float64 {
	if ratio <= 0 {
		return math.NaN()
	}

	return 10 * math.Log10(ratio)
}
