package rules

import (
	"fmt"
	"strings"

	"github.com/farcloser/sonority/internal/catalog"
	"github.com/farcloser/sonority/internal/headroom"
	"github.com/farcloser/sonority/internal/types"
	"github.com/farcloser/sonority/metric"
)

const limiterCeilingTip = "Set the true-peak limiter ceiling to -1.0 dBTP and re-export."

func dynamicsContext(in Input) []types.Finding {
	if !in.Health.Measured {
		return nil
	}

	findings := []types.Finding{{
		Source:    SourceDynamics,
		Severity:  types.SeverityInfo,
		Highlight: fmt.Sprintf("Dynamics health %d/100 (%s)", in.Health.Score, in.Health.Label),
	}}

	if lra, ok := in.Metrics.LoudnessRangeLU.Get(); ok && lra < narrowLRABelow {
		findings = append(findings, types.Finding{
			Source:         SourceDynamics,
			Severity:       types.SeverityInfo,
			Highlight:      fmt.Sprintf("Loudness range %.1f LU is very narrow", lra),
			Recommendation: catalog.Recommendation("loudness_range_narrow", types.SeverityInfo),
		})
	}

	return findings
}

func hardFail(in Input) []types.Finding {
	var findings []types.Finding

	if tp, ok := in.Metrics.TruePeakDbTP.Get(); ok {
		switch {
		case tp > hardFailTruePeak:
			findings = append(findings, types.Finding{
				Source:         SourceHardFail,
				Severity:       types.SeverityCritical,
				Highlight:      fmt.Sprintf("True peak %+.2f dBTP exceeds the +1.0 dBTP hard limit", tp),
				Recommendation: catalog.Recommendation("true_peak_over_limit", types.SeverityCritical),
			})
		case tp > 0:
			findings = append(findings, types.Finding{
				Source:         SourceHardFail,
				Severity:       types.SeverityWarn,
				Highlight:      fmt.Sprintf("True peak %+.2f dBTP is above 0 dBTP", tp),
				Recommendation: catalog.Recommendation("true_peak_above_zero", types.SeverityWarn),
			})
		}
	}

	if clipped, ok := in.Metrics.ClippedSampleCount.Get(); ok {
		switch {
		case clipped >= massiveClipping:
			findings = append(findings, types.Finding{
				Source:         SourceHardFail,
				Severity:       types.SeverityCritical,
				Highlight:      fmt.Sprintf("Massive clipping: %.0f clipped samples", clipped),
				Recommendation: catalog.Recommendation("massive_clipping", types.SeverityCritical),
			})
		case clipped > 0:
			findings = append(findings, types.Finding{
				Source:         SourceHardFail,
				Severity:       types.SeverityWarn,
				Highlight:      fmt.Sprintf("%.0f clipped samples", clipped),
				Recommendation: catalog.Recommendation("minor_clipping", types.SeverityWarn),
			})
		}
	}

	return findings
}

// truePeakHeadroom covers masters at or below 0 dBTP; hotter masters are handled by hardFail.
func truePeakHeadroom(in Input) []types.Finding {
	tp, ok := in.Metrics.TruePeakDbTP.Get()
	if !ok || tp > 0 {
		return nil
	}

	room := 0.0 - tp
	if room < thinHeadroomBelow {
		return []types.Finding{{
			Source:         SourceTruePeak,
			Severity:       types.SeverityWarn,
			Highlight:      fmt.Sprintf("True peak %.2f dBTP leaves only %.2f dB of headroom", tp, room),
			Recommendation: catalog.Recommendation("true_peak_thin_headroom", types.SeverityWarn),
		}}
	}

	return []types.Finding{{
		Source:    SourceTruePeak,
		Severity:  types.SeverityInfo,
		Highlight: fmt.Sprintf("True peak %.2f dBTP leaves %.2f dB of headroom", tp, room),
	}}
}

func codecHeadroom(in Input) []types.Finding {
	report := in.Headroom

	worst, ok := report.WorstPostTruePeak.Get()
	if !ok {
		return nil
	}

	effective, _ := report.EffectiveHeadroom.Get()
	score, _ := report.Score.Get()

	severity := types.SeverityInfo
	if report.Badge == headroom.BadgeCritical {
		severity = types.SeverityWarn
	}

	highlight := fmt.Sprintf(
		"Codec simulation: worst post-encode true peak %.2f dBTP, effective headroom %.2f dB (score %.0f, %s)",
		worst, effective, score, report.Badge,
	)

	if overs := totalOvers(in.Metrics.CodecSimulation); overs > 0 {
		highlight += fmt.Sprintf(", %.0f overs after encoding", overs)
	}

	finding := types.Finding{
		Source:    SourceCodecHeadroom,
		Severity:  severity,
		Highlight: highlight,
	}

	if worst > codecPostCeiling {
		finding.Recommendation = catalog.Recommendation("codec_headroom", severity)
		if report.NeedsLimiterTip() {
			finding.Recommendation.How = append(finding.Recommendation.How, limiterCeilingTip)
		}
	}

	return []types.Finding{finding}
}

func totalOvers(sim *metric.CodecSimulation) float64 {
	total := 0.0

	for _, codec := range sim.Codecs() {
		if overs, ok := codec.Result.OversCount.Get(); ok && overs > 0 {
			total += overs
		}
	}

	return total
}

func codecRisk(in Input) []types.Finding {
	risk := in.Headroom.DistortionRisk
	if risk == headroom.RiskUnknown {
		return nil
	}

	var parts []string

	for _, codec := range in.Metrics.CodecSimulation.Codecs() {
		if r, ok := in.Headroom.CodecRisks[codec.Name]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", codec.Name.Label(), r))
		}
	}

	finding := types.Finding{
		Source:    SourceCodecRisk,
		Severity:  types.SeverityInfo,
		Highlight: fmt.Sprintf("Codec distortion risk: %s (%s)", risk, strings.Join(parts, ", ")),
	}

	switch risk {
	case headroom.RiskHigh:
		finding.Severity = types.SeverityWarn
		finding.Recommendation = catalog.Recommendation("codec_distortion_high", types.SeverityWarn)
	case headroom.RiskModerate:
		finding.Recommendation = catalog.Recommendation("codec_distortion_moderate", types.SeverityInfo)
	case headroom.RiskLow:
	case headroom.RiskUnknown: // returned above, listed for exhaustive
	}

	return []types.Finding{finding}
}

func lowEndMono(in Input) []types.Finding {
	phase := in.Metrics.LowEndPhaseCorrelation20to120
	loss := in.Metrics.LowEndMonoEnergyLossPct20to120

	if !phase.Valid() && !loss.Valid() {
		return nil
	}

	var (
		parts    []string
		flagged  bool
		severity = types.SeverityInfo
	)

	if p, ok := phase.Get(); ok {
		parts = append(parts, fmt.Sprintf("phase correlation %.2f", p))

		if sev, hit := lowEndPhaseBands.Match(p); hit {
			flagged = true
			severity = severity.Max(sev)
		}
	}

	if l, ok := loss.Get(); ok {
		parts = append(parts, fmt.Sprintf("%.0f%% energy lost in mono", l))

		if sev, hit := lowEndMonoLossPct.Match(l); hit {
			flagged = true
			severity = severity.Max(sev)
		}
	}

	verdict := "mono-stable"
	if flagged {
		verdict = "not mono-stable"
	}

	finding := types.Finding{
		Source:    SourceLowEnd,
		Severity:  severity,
		Highlight: fmt.Sprintf("Low end (20-120 Hz) %s: %s", verdict, strings.Join(parts, ", ")),
	}

	if flagged {
		finding.Recommendation = catalog.Recommendation("low_end_mono", severity)
	}

	return []types.Finding{finding}
}

func phaseCorrelation(in Input) []types.Finding {
	p, ok := in.Metrics.PhaseCorrelation.Get()
	if !ok {
		return nil
	}

	severity, hit := phaseBands.Match(p)
	if !hit {
		return []types.Finding{{
			Source:    SourcePhase,
			Severity:  types.SeverityInfo,
			Highlight: fmt.Sprintf("Phase correlation %.2f (stable)", p),
		}}
	}

	key, verdict := "phase_borderline", "borderline"

	switch severity {
	case types.SeverityCritical:
		key, verdict = "phase_inverted", "out of phase"
	case types.SeverityWarn:
		key, verdict = "phase_unstable", "high risk"
	case types.SeverityInfo:
	}

	return []types.Finding{{
		Source:         SourcePhase,
		Severity:       severity,
		Highlight:      fmt.Sprintf("Phase correlation %.2f (%s)", p, verdict),
		Recommendation: catalog.Recommendation(key, severity),
	}}
}

func stereoWidth(in Input) []types.Finding {
	w, ok := in.Metrics.StereoWidthIndex.Get()
	if !ok {
		return nil
	}

	switch {
	case w < narrowWidthBelow:
		return []types.Finding{{
			Source:         SourceStereoWidth,
			Severity:       types.SeverityInfo,
			Highlight:      fmt.Sprintf("Stereo width index %.2f: nearly mono", w),
			Recommendation: catalog.Recommendation("stereo_narrow", types.SeverityInfo),
		}}
	case w > wideWidthAbove:
		return []types.Finding{{
			Source:         SourceStereoWidth,
			Severity:       types.SeverityWarn,
			Highlight:      fmt.Sprintf("Stereo width index %.2f: very wide", w),
			Recommendation: catalog.Recommendation("stereo_wide", types.SeverityWarn),
		}}
	}

	return []types.Finding{{
		Source:    SourceStereoWidth,
		Severity:  types.SeverityInfo,
		Highlight: fmt.Sprintf("Stereo width index %.2f", w),
	}}
}

// midSideBalance uses the lowest mid-over-side balance among the available sources, so extra
// measurements can only make the verdict stricter.
func midSideBalance(in Input) []types.Finding {
	balance := metric.None

	if r, ok := in.Metrics.MidSideEnergyRatio.Get(); ok {
		balance = metric.Of(ratioDb(r))
	}

	if mid, side, ok := all2(in.Metrics.MidRmsDbfs, in.Metrics.SideRmsDbfs); ok {
		if cur, has := balance.Get(); !has || mid-side < cur {
			balance = metric.Of(mid - side)
		}
	}

	b, ok := balance.Get()
	if !ok {
		return nil
	}

	switch {
	case b <= sideHeavyAtOrBelow:
		return []types.Finding{{
			Source:         SourceMidSide,
			Severity:       types.SeverityWarn,
			Highlight:      fmt.Sprintf("Mid/side balance %.1f dB: side energy matches or exceeds mid", b),
			Recommendation: catalog.Recommendation("mid_side_side_heavy", types.SeverityWarn),
		}}
	case b < sideLeaningBelow:
		return []types.Finding{{
			Source:         SourceMidSide,
			Severity:       types.SeverityInfo,
			Highlight:      fmt.Sprintf("Mid/side balance %.1f dB: side-heavy", b),
			Recommendation: catalog.Recommendation("mid_side_side_heavy", types.SeverityInfo),
		}}
	case b > monoLikeAbove:
		return []types.Finding{{
			Source:         SourceMidSide,
			Severity:       types.SeverityInfo,
			Highlight:      fmt.Sprintf("Mid/side balance %.1f dB: almost no side energy", b),
			Recommendation: catalog.Recommendation("mid_side_mono", types.SeverityInfo),
		}}
	}

	return []types.Finding{{
		Source:    SourceMidSide,
		Severity:  types.SeverityInfo,
		Highlight: fmt.Sprintf("Mid/side balance %.1f dB", b),
	}}
}

type bandDelta struct {
	upper    func(metric.SpectralBands) metric.Value
	lower    func(metric.SpectralBands) metric.Value
	text     string
	key      string
	severity types.Severity
}

//nolint:gochecknoglobals // evaluation order, effectively const
var bandDeltas = []bandDelta{
	{
		upper:    func(b metric.SpectralBands) metric.Value { return b.Sub },
		lower:    func(b metric.SpectralBands) metric.Value { return b.Low },
		text:     "Sub band %.1f dB above the low band",
		key:      "spectral_sub_heavy",
		severity: types.SeverityWarn,
	},
	{
		upper:    func(b metric.SpectralBands) metric.Value { return b.LowMid },
		lower:    func(b metric.SpectralBands) metric.Value { return b.Mid },
		text:     "Low-mid band %.1f dB above the mid band",
		key:      "spectral_low_mid_buildup",
		severity: types.SeverityWarn,
	},
	{
		upper:    func(b metric.SpectralBands) metric.Value { return b.HighMid },
		lower:    func(b metric.SpectralBands) metric.Value { return b.Mid },
		text:     "High-mid band %.1f dB above the mid band",
		key:      "spectral_harsh",
		severity: types.SeverityWarn,
	},
	{
		upper:    func(b metric.SpectralBands) metric.Value { return b.Air },
		lower:    func(b metric.SpectralBands) metric.Value { return b.High },
		text:     "Air band %.1f dB above the high band",
		key:      "spectral_air_excess",
		severity: types.SeverityInfo,
	},
}

func spectralBalance(in Input) []types.Finding {
	var findings []types.Finding

	bands := in.Metrics.SpectralBandRmsDbfs

	for _, delta := range bandDeltas {
		upper, lower, ok := all2(delta.upper(bands), delta.lower(bands))
		if !ok || upper-lower <= spectralDeltaAbove {
			continue
		}

		findings = append(findings, types.Finding{
			Source:         SourceSpectral,
			Severity:       delta.severity,
			Highlight:      fmt.Sprintf(delta.text, upper-lower),
			Recommendation: catalog.Recommendation(delta.key, delta.severity),
		})
	}

	return findings
}
