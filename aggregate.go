package sonority

import (
	"github.com/farcloser/sonority/internal/catalog"
	"github.com/farcloser/sonority/internal/types"
)

// aggregate is the result of folding the findings of one evaluation.
type aggregate struct {
	severity        Severity
	highlights      []string
	recommendations []Recommendation
}

// startSeverity is where the fold begins: a rejected track is critical before any rule runs.
func startSeverity(decision Decision) Severity {
	if decision == DecisionRejected {
		return SeverityCritical
	}

	return SeverityInfo
}

// fold merges findings in order. Severity only moves up. Recommendations sharing an id keep the
// first position and text, with the highest severity seen.
func fold(decision Decision, findings []types.Finding) aggregate {
	agg := aggregate{
		severity:        startSeverity(decision),
		highlights:      []string{},
		recommendations: []Recommendation{},
	}

	index := map[string]int{}

	for _, finding := range findings {
		agg.severity = agg.severity.Max(finding.Severity)

		if finding.Highlight != "" {
			agg.highlights = append(agg.highlights, finding.Highlight)
		}

		rec := finding.Recommendation
		if rec == nil {
			continue
		}

		agg.severity = agg.severity.Max(rec.Severity)

		if at, seen := index[rec.ID]; seen {
			agg.recommendations[at].Severity = agg.recommendations[at].Severity.Max(rec.Severity)

			continue
		}

		index[rec.ID] = len(agg.recommendations)
		agg.recommendations = append(agg.recommendations, rec.Clone())
	}

	if len(agg.recommendations) == 0 {
		agg.recommendations = append(agg.recommendations,
			*catalog.Recommendation("more_modules_coming", SeverityInfo))
	}

	return agg
}
