// Package output provides shared payload serialization for sonority console, markdown and JSON output.
package output

import (
	"fmt"

	"github.com/farcloser/sonority"
	"github.com/farcloser/sonority/metric"
)

// PayloadToMap converts a payload into the canonical map structure used by the formatters.
func PayloadToMap(payload *sonority.Payload) map[string]any {
	meta := map[string]any{
		"schema_version": payload.SchemaVersion,
		"analyzer": map[string]any{
			"name":         payload.Analyzer.Name,
			"version":      payload.Analyzer.Version,
			"generated_at": payload.Analyzer.GeneratedAt,
		},
		"track": map[string]any{
			"queue_id":    payload.Track.QueueID,
			"audio_hash":  payload.Track.AudioHash,
			"feedback_id": payload.Track.FeedbackID,
		},
		"summary": map[string]any{
			"status":     string(payload.Summary.Status),
			"severity":   payload.Summary.Severity.String(),
			"highlights": stringsToAny(payload.Summary.Highlights),
		},
		"hard_fail": map[string]any{
			"triggered": payload.HardFail.Triggered,
			"reasons":   stringsToAny(payload.HardFail.Reasons),
		},
		"dynamics_health": DynamicsToMap(payload.DynamicsHealth),
		"events":          EventsToMap(payload.Events),
	}

	recs := make([]any, 0, len(payload.Recommendations))
	for _, rec := range payload.Recommendations {
		recs = append(recs, RecommendationToMap(rec))
	}

	meta["recommendations"] = recs

	metrics := map[string]any{
		"integrated_lufs":      Value(payload.Metrics.IntegratedLUFS),
		"true_peak_dbtp":       Value(payload.Metrics.TruePeakDbTP),
		"source_headroom_db":   Value(payload.Metrics.SourceHeadroomDb),
		"loudness_range_lu":    Value(payload.Metrics.LoudnessRangeLU),
		"crest_factor_db":      Value(payload.Metrics.CrestFactorDb),
		"clipped_sample_count": Value(payload.Metrics.ClippedSampleCount),
		"phase_correlation":    Value(payload.Metrics.PhaseCorrelation),
		"stereo_width_index":   Value(payload.Metrics.StereoWidthIndex),
	}

	if n := payload.Metrics.StreamingNormalization; n != nil {
		metrics["streaming_normalization"] = NormalizationToMap(n)
	}

	meta["metrics"] = metrics

	if c := payload.CodecSimulation; c != nil {
		meta["codec_simulation"] = CodecToMap(c)
	}

	return meta
}

// RecommendationToMap converts a recommendation to a map.
func RecommendationToMap(rec sonority.Recommendation) map[string]any {
	entry := map[string]any{
		"id":       rec.ID,
		"severity": rec.Severity.String(),
		"title":    rec.Title,
		"why":      rec.Why,
		"how":      stringsToAny(rec.How),
	}

	if len(rec.Refs) > 0 {
		entry["refs"] = stringsToAny(rec.Refs)
	}

	return entry
}

// DynamicsToMap converts the dynamics health to a map.
func DynamicsToMap(health sonority.DynamicsHealth) map[string]any {
	return map[string]any{
		"score": health.Score,
		"label": string(health.Label),
		"factors": map[string]any{
			"lufs":  Value(health.Factors.LUFS),
			"lra":   Value(health.Factors.LRA),
			"crest": Value(health.Factors.Crest),
		},
	}
}

// NormalizationToMap converts streaming normalization predictions to a map.
func NormalizationToMap(report *sonority.Normalization) map[string]any {
	platforms := make([]any, 0, len(report.Platforms))
	for _, res := range report.Platforms {
		platforms = append(platforms, map[string]any{
			"platform":         res.Platform,
			"label":            res.Label,
			"target_lufs":      res.TargetLUFS,
			"desired_gain_db":  Value(res.DesiredGainDb),
			"applied_gain_db":  Value(res.AppliedGainDb),
			"resulting_lufs":   Value(res.ResultingLUFS),
			"down_only":        res.DownOnly,
			"headroom_limited": res.HeadroomLimited,
		})
	}

	return map[string]any{
		"ceiling_dbtp": report.CeilingDbTP,
		"platforms":    platforms,
	}
}

// CodecToMap converts the codec simulation block to a map.
func CodecToMap(block *sonority.CodecSimulation) map[string]any {
	meta := map[string]any{
		"pre_true_peak_db":        Value(block.PreTruePeakDb),
		"worst_post_true_peak_db": Value(block.WorstPostTruePeakDb),
		"post_headroom_db":        Value(block.PostHeadroomDb),
		"effective_headroom_db":   Value(block.EffectiveHeadroomDb),
		"headroom_score":          Value(block.HeadroomScore),
		"distortion_risk":         block.DistortionRisk,
	}

	if block.HeadroomBadge != nil {
		meta["headroom_badge"] = string(*block.HeadroomBadge)
	}

	for name, res := range map[string]*metric.CodecResult{"aac128": block.AAC128, "mp3128": block.MP3128} {
		if res == nil {
			continue
		}

		meta[name] = map[string]any{
			"post_true_peak_db": Value(res.PostTruePeakDb),
			"overs_count":       Value(res.OversCount),
			"headroom_delta_db": Value(res.HeadroomDeltaDb),
			"distortion_risk":   string(res.DistortionRisk),
		}
	}

	return meta
}

// EventsToMap converts timeline events to a map.
func EventsToMap(events sonority.Events) map[string]any {
	markers := make([]any, 0, len(events.Markers))
	for _, m := range events.Markers {
		marker := map[string]any{
			"kind": m.Kind,
			"t":    m.T,
			"lufs": m.LUFS,
		}
		if m.DeltaLU != 0 {
			marker["delta_lu"] = fmt.Sprintf("%+.1f", m.DeltaLU)
		}

		markers = append(markers, marker)
	}

	meta := map[string]any{"markers": markers}

	if s := events.ShortTerm; s != nil {
		meta["short_term"] = map[string]any{
			"points":    s.Points,
			"mean_lufs": Value(s.MeanLUFS),
			"stddev_lu": Value(s.StdDevLU),
			"min_lufs":  Value(s.MinLUFS),
			"max_lufs":  Value(s.MaxLUFS),
			"p10_lufs":  Value(s.P10LUFS),
			"p95_lufs":  Value(s.P95LUFS),
		}
	}

	return meta
}

// Value returns the float for a present value and nil otherwise.
func Value(v metric.Value) any {
	if f, ok := v.Get(); ok {
		return f
	}

	return nil
}

func stringsToAny(list []string) []any {
	out := make([]any, 0, len(list))
	for _, s := range list {
		out = append(out, s)
	}

	return out
}
