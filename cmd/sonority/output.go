//nolint:wrapcheck
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/sonority"
	"github.com/farcloser/sonority/internal/output"
)

func outputPayload(source string, payload *sonority.Payload, formatName string, detailed bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	var meta map[string]any
	if detailed {
		meta = output.PayloadToMap(payload)
	} else {
		meta = buildFriendlyOutput(payload)
	}

	data := &format.Data{
		Object: source,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

// writeRaw prints the payload document exactly as it would be persisted.
func writeRaw(w io.Writer, payload *sonority.Payload) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(payload)
}

// buildFriendlyOutput creates a user-friendly summary of the payload.
func buildFriendlyOutput(payload *sonority.Payload) map[string]any {
	meta := map[string]any{
		"summary": fmt.Sprintf("%s (severity: %s, %d recommendations)",
			payload.Summary.Status, payload.Summary.Severity, len(payload.Recommendations)),
		"track": payload.Track.QueueID,
	}

	if len(payload.Summary.Highlights) > 0 {
		highlights := make([]any, 0, len(payload.Summary.Highlights))
		for _, h := range payload.Summary.Highlights {
			highlights = append(highlights, h)
		}

		meta["highlights"] = highlights
	}

	recs := make([]any, 0, len(payload.Recommendations))
	for _, rec := range payload.Recommendations {
		marker := "  "
		if rec.Severity > sonority.SeverityInfo {
			marker = "!!"
		}

		recs = append(recs, fmt.Sprintf("%s [%s] %s: %s", marker, rec.Severity, rec.Title,
			strings.Join(rec.How, " ")))
	}

	meta["recommendations"] = recs

	if payload.HardFail.Triggered {
		meta["hard_fail"] = strings.Join(payload.HardFail.Reasons, ", ")
	}

	props := buildProperties(payload)
	if len(props) > 0 {
		meta["properties"] = props
	}

	return meta
}

func buildProperties(payload *sonority.Payload) map[string]any {
	props := map[string]any{}

	health := payload.DynamicsHealth
	props["dynamics"] = fmt.Sprintf("%d/100 (%s)", health.Score, health.Label)

	m := payload.Metrics

	if lufs, ok := m.IntegratedLUFS.Get(); ok {
		loudness := fmt.Sprintf("%.1f LUFS", lufs)
		if lra, ok := m.LoudnessRangeLU.Get(); ok {
			loudness += fmt.Sprintf(" (range: %.1f LU)", lra)
		}

		props["loudness"] = loudness
	}

	if tp, ok := m.TruePeakDbTP.Get(); ok {
		props["true_peak"] = fmt.Sprintf("%.2f dBTP", tp)
	}

	if n := m.StreamingNormalization; n != nil {
		gains := make([]string, 0, len(n.Platforms))

		for _, res := range n.Platforms {
			if gain, ok := res.AppliedGainDb.Get(); ok {
				gains = append(gains, fmt.Sprintf("%s %+.1f dB", res.Label, gain))
			} else {
				gains = append(gains, res.Label+" n/a")
			}
		}

		props["streaming"] = strings.Join(gains, ", ")
	}

	if c := payload.CodecSimulation; c != nil {
		if score, ok := c.HeadroomScore.Get(); ok && c.HeadroomBadge != nil {
			props["codec_headroom"] = fmt.Sprintf("%.0f/100 (%s), distortion risk %s",
				score, *c.HeadroomBadge, c.DistortionRisk)
		}
	}

	if st := payload.Events.ShortTerm; st != nil {
		if mean, ok := st.MeanLUFS.Get(); ok {
			props["short_term"] = fmt.Sprintf("%.1f LUFS mean over %d points (%.1f to %.1f)",
				mean, st.Points, st.MinLUFS.Or(mean), st.MaxLUFS.Or(mean))
		}
	}

	return props
}
