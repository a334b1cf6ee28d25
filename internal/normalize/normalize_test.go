package normalize

import (
	"testing"

	"github.com/farcloser/sonority/metric"
)

func applied(t *testing.T, report *Report, platform string) (float64, bool) {
	t.Helper()

	res, ok := report.Find(platform)
	if !ok {
		t.Fatalf("platform %q missing", platform)
	}

	return res.AppliedGainDb.Get()
}

func TestComputeAbsentLoudness(t *testing.T) {
	if got := Compute(metric.None, metric.Of(-1), DefaultPlatforms(), DefaultCeilingDbTP); got != nil {
		t.Fatalf("expected nil report, got %+v", got)
	}
}

func TestYouTubeIsDownOnly(t *testing.T) {
	loud := Compute(metric.Of(-10), metric.Of(-6), DefaultPlatforms(), DefaultCeilingDbTP)
	if v, ok := applied(t, loud, "youtube"); !ok || v >= 0 {
		t.Errorf("youtube gain for loud track = %v (%v), want negative", v, ok)
	}

	quiet := Compute(metric.Of(-20), metric.Of(-6), DefaultPlatforms(), DefaultCeilingDbTP)
	if v, ok := applied(t, quiet, "youtube"); !ok || v != 0 {
		t.Errorf("youtube gain for quiet track = %v (%v), want exactly 0", v, ok)
	}
}

func TestUpGainCappedByHeadroom(t *testing.T) {
	// -20 LUFS wants +6 dB on Spotify; true peak -4 only leaves 3 dB to the -1 ceiling.
	report := Compute(metric.Of(-20), metric.Of(-4), DefaultPlatforms(), DefaultCeilingDbTP)

	res, _ := report.Find("spotify")

	if v, _ := res.AppliedGainDb.Get(); v != 3 {
		t.Errorf("spotify applied = %v, want 3", v)
	}

	if !res.HeadroomLimited {
		t.Error("expected headroom limited")
	}

	if v, _ := res.ResultingLUFS.Get(); v != -17 {
		t.Errorf("resulting lufs = %v, want -17", v)
	}
}

func TestUpGainWithoutHeadroom(t *testing.T) {
	// True peak already above the ceiling: no up-gain at all.
	report := Compute(metric.Of(-20), metric.Of(-0.5), DefaultPlatforms(), DefaultCeilingDbTP)

	if v, ok := applied(t, report, "apple_music"); !ok || v != 0 {
		t.Errorf("apple music applied = %v (%v), want 0", v, ok)
	}
}

func TestUpGainUnknownTruePeak(t *testing.T) {
	report := Compute(metric.Of(-20), metric.None, DefaultPlatforms(), DefaultCeilingDbTP)

	if _, ok := applied(t, report, "spotify"); ok {
		t.Error("up-gain must be absent without a true peak")
	}

	if v, ok := applied(t, report, "youtube"); !ok || v != 0 {
		t.Errorf("youtube applied = %v (%v), want 0", v, ok)
	}
}

func TestDownGainAppliedAsIs(t *testing.T) {
	report := Compute(metric.Of(-8), metric.Of(0.5), DefaultPlatforms(), DefaultCeilingDbTP)

	for _, tt := range []struct {
		platform string
		want     float64
	}{
		{"spotify", -6},
		{"youtube", -6},
		{"apple_music", -8},
	} {
		if v, _ := applied(t, report, tt.platform); v != tt.want {
			t.Errorf("%s applied = %v, want %v", tt.platform, v, tt.want)
		}
	}
}
