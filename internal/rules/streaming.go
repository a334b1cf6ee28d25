package rules

import (
	"fmt"
	"strings"

	"github.com/farcloser/sonority/internal/catalog"
	"github.com/farcloser/sonority/internal/types"
)

func streaming(in Input) []types.Finding {
	if in.Streaming == nil || len(in.Streaming.Platforms) == 0 {
		return nil
	}

	parts := make([]string, 0, len(in.Streaming.Platforms))
	turnDown := false

	for _, res := range in.Streaming.Platforms {
		label := res.Label
		if label == "" {
			label = res.Platform
		}

		gain, ok := res.AppliedGainDb.Get()
		if !ok {
			parts = append(parts, label+" n/a")

			continue
		}

		parts = append(parts, fmt.Sprintf("%s %+.1f dB", label, gain))

		if gain <= turnDownAtOrBelow {
			turnDown = true
		}
	}

	finding := types.Finding{
		Source:    SourceStreaming,
		Severity:  types.SeverityInfo,
		Highlight: "Streaming normalization: " + strings.Join(parts, ", "),
	}

	if turnDown {
		finding.Recommendation = catalog.Recommendation("streaming_turn_down", types.SeverityInfo)
	}

	return []types.Finding{finding}
}
