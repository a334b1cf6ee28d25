package dynamics

import (
	"testing"

	"github.com/farcloser/sonority/metric"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		lufs      metric.Value
		lra       metric.Value
		crest     metric.Value
		wantScore int
		wantLabel Label
	}{
		{"no inputs is neutral", metric.None, metric.None, metric.None, 65, LabelBorderline},
		{"dynamic master", metric.Of(-14), metric.Of(10), metric.Of(10), 100, LabelHealthy},
		{"three failing conditions", metric.Of(-5), metric.Of(1.5), metric.Of(4.0), 49, LabelOverLimited},
		{"loud and flat", metric.Of(-8), metric.Of(1.5), metric.Of(5), 54, LabelOverLimited},
		{"very low range caps below healthy", metric.Of(-14), metric.Of(0.5), metric.Of(10), 74, LabelBorderline},
		{"loudness alone cannot go over-limited", metric.Of(-3), metric.None, metric.None, 73, LabelBorderline},
		{"quiet loudness alone", metric.Of(-20), metric.None, metric.None, 100, LabelHealthy},
		{"crushed crest alone", metric.None, metric.None, metric.Of(4.0), 52, LabelOverLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.lufs, tt.lra, tt.crest)
			if got.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", got.Score, tt.wantScore)
			}

			if got.Label != tt.wantLabel {
				t.Errorf("label = %s, want %s", got.Label, tt.wantLabel)
			}
		})
	}
}

func TestScoreOverrideCapsScore(t *testing.T) {
	got := Score(metric.Of(-5), metric.Of(1.5), metric.Of(4.0))
	if got.Label != LabelOverLimited || got.Score > overLimitedCap {
		t.Fatalf("got %d/%s, want over-limited with score <= %d", got.Score, got.Label, overLimitedCap)
	}
}

func TestScoreTwoOfThreeOverridesHighWeightedScore(t *testing.T) {
	// Great crest keeps the weighted mean high; LRA and LUFS both fail.
	got := Score(metric.Of(-5.5), metric.Of(1.8), metric.Of(12))
	if got.Label != LabelOverLimited {
		t.Errorf("label = %s, want over-limited", got.Label)
	}

	if got.Score > overLimitedCap {
		t.Errorf("score = %d, want <= %d", got.Score, overLimitedCap)
	}
}

func TestScoreFactors(t *testing.T) {
	got := Score(metric.None, metric.Of(2.5), metric.Of(7.75))

	if v, ok := got.Factors.Crest.Get(); !ok || v != 92.5 {
		t.Errorf("crest factor = %v (%v), want 92.5", v, ok)
	}

	if v, ok := got.Factors.LRA.Get(); !ok || v != 45 {
		t.Errorf("lra factor = %v (%v), want 45", v, ok)
	}

	if got.Factors.LUFS.Valid() {
		t.Error("lufs factor should be absent")
	}

	if !got.Measured {
		t.Error("expected measured health")
	}
}

func TestScoreNeutralIsNotMeasured(t *testing.T) {
	if Score(metric.None, metric.None, metric.None).Measured {
		t.Error("neutral health must not be marked as measured")
	}
}

func TestScoreLoudAndFlatEdges(t *testing.T) {
	tests := []struct {
		name string
		lufs float64
		lra  float64
		want bool
	}{
		{"at the loudness edge", -9, 1.99, true},
		{"just under the loudness edge", -9.01, 1.99, false},
		{"range at the edge is not flat", -9, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(metric.Of(tt.lufs), metric.Of(tt.lra), metric.None)
			if (got.Label == LabelOverLimited) != tt.want {
				t.Errorf("label = %s (score %d), over-limited want %v", got.Label, got.Score, tt.want)
			}
		})
	}
}
