package rules

import (
	"fmt"

	"github.com/farcloser/sonority/internal/catalog"
	"github.com/farcloser/sonority/internal/dynamics"
	"github.com/farcloser/sonority/internal/types"
)

// Patterns look at several metrics at once. Every clause needs all of its metrics present.

func overLimitedPattern(in Input, prior []types.Finding) []types.Finding {
	m := in.Metrics

	severity := types.SeverityInfo
	matched := false

	lufs, lra, ok := all2(m.IntegratedLUFS, m.LoudnessRangeLU)
	if tp, hasTP := m.TruePeakDbTP.Get(); ok && hasTP &&
		lufs >= overLimitedLUFSFrom && lra < overLimitedLRABelow && tp > overLimitedTruePeakOver {
		matched = true
		severity = types.SeverityWarn
	}

	if in.Health.Measured &&
		(in.Health.Label == dynamics.LabelOverLimited || in.Health.Label == dynamics.LabelBorderline) {
		matched = true
	}

	if !matched {
		return nil
	}

	finding := types.Finding{
		Source:   SourcePattern,
		Severity: severity,
		Highlight: "Pattern: loud and heavily limited master, " +
			"normalization will turn it down and the squashed dynamics will remain",
	}

	// The two component recommendations already carry the same advice.
	if !hasRecommendation(prior, RecTruePeakHeadroom) || !hasRecommendation(prior, RecLoudnessRangeNarrow) {
		finding.Recommendation = catalog.Recommendation("pattern_over_limited", severity)
	}

	return []types.Finding{finding}
}

func wideUnstablePattern(in Input, _ []types.Finding) []types.Finding {
	width, phase, ok := all2(in.Metrics.StereoWidthIndex, in.Metrics.PhaseCorrelation)
	if !ok || width <= wideWidthAbove || phase >= wideUnstablePhaseBelow {
		return nil
	}

	return []types.Finding{{
		Source:   SourcePattern,
		Severity: types.SeverityWarn,
		Highlight: fmt.Sprintf(
			"Pattern: wide image (width %.2f) with unstable phase (%.2f), expect collapse on mono playback",
			width, phase,
		),
		Recommendation: catalog.Recommendation("pattern_wide_unstable", types.SeverityWarn),
	}}
}

func harshFlatPattern(in Input, _ []types.Finding) []types.Finding {
	m := in.Metrics

	highMid, mid, ok := all2(m.SpectralBandRmsDbfs.HighMid, m.SpectralBandRmsDbfs.Mid)
	if !ok || highMid-mid <= spectralDeltaAbove {
		return nil
	}

	crest, lra, ok := all2(m.CrestFactorDb, m.LoudnessRangeLU)
	if !ok || crest >= harshFlatCrestBelow || lra >= harshFlatLRABelow {
		return nil
	}

	return []types.Finding{{
		Source:   SourcePattern,
		Severity: types.SeverityWarn,
		Highlight: fmt.Sprintf(
			"Pattern: harsh upper mids (+%.1f dB) on a flat master (crest %.1f dB, LRA %.1f LU)",
			highMid-mid, crest, lra,
		),
		Recommendation: catalog.Recommendation("pattern_harsh_flat", types.SeverityWarn),
	}}
}
