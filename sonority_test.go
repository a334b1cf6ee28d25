package sonority_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/sonority"
	"github.com/farcloser/sonority/metric"
)

func fixedOptions() sonority.Options {
	opts := sonority.DefaultOptions()
	opts.AnalyzerVersion = "test"
	opts.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	return opts
}

func build(t *testing.T, req *sonority.Request) *sonority.Payload {
	t.Helper()

	payload, err := sonority.Build(req, fixedOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	return payload
}

func approved(m metric.Measurements) *sonority.Request {
	return &sonority.Request{
		QueueID:      "q-1",
		AudioHash:    "sha256:abc",
		Decision:     sonority.DecisionApproved,
		Measurements: m,
	}
}

func recommendationIDs(p *sonority.Payload) map[string]sonority.Severity {
	out := map[string]sonority.Severity{}
	for _, rec := range p.Recommendations {
		out[rec.ID] = rec.Severity
	}

	return out
}

// setters add one measurement each, from a track with most things wrong.
func setters() []func(*metric.Measurements) {
	return []func(*metric.Measurements){
		func(m *metric.Measurements) { m.IntegratedLUFS = metric.Of(-7) },
		func(m *metric.Measurements) { m.TruePeakDbTP = metric.Of(-0.3) },
		func(m *metric.Measurements) { m.LoudnessRangeLU = metric.Of(1.8) },
		func(m *metric.Measurements) { m.CrestFactorDb = metric.Of(6) },
		func(m *metric.Measurements) { m.ClippedSampleCount = metric.Of(12) },
		func(m *metric.Measurements) { m.PhaseCorrelation = metric.Of(0.15) },
		func(m *metric.Measurements) { m.MidRmsDbfs = metric.Of(-14) },
		func(m *metric.Measurements) { m.SideRmsDbfs = metric.Of(-15) },
		func(m *metric.Measurements) { m.MidSideEnergyRatio = metric.Of(1.5) },
		func(m *metric.Measurements) { m.StereoWidthIndex = metric.Of(0.7) },
		func(m *metric.Measurements) { m.SpectralBandRmsDbfs.HighMid = metric.Of(-9) },
		func(m *metric.Measurements) { m.SpectralBandRmsDbfs.Mid = metric.Of(-18) },
		func(m *metric.Measurements) { m.LowEndPhaseCorrelation20to120 = metric.Of(0.25) },
		func(m *metric.Measurements) { m.LowEndMonoEnergyLossPct20to120 = metric.Of(65) },
		func(m *metric.Measurements) {
			m.CodecSimulation = &metric.CodecSimulation{
				PreTruePeakDb: metric.Of(-0.3),
				AAC128:        &metric.CodecResult{PostTruePeakDb: metric.Of(0.4), DistortionRisk: "high"},
			}
		},
		func(m *metric.Measurements) {
			m.ShortTermLUFS = metric.Timeline{{T: metric.Of(0), LUFS: metric.Of(-9)}}
		},
	}
}

func TestSeverityIsMonotonic(t *testing.T) {
	orders := map[string][]func(*metric.Measurements){}

	forward := setters()
	orders["forward"] = forward

	reverse := make([]func(*metric.Measurements), len(forward))
	for i, set := range forward {
		reverse[len(forward)-1-i] = set
	}

	orders["reverse"] = reverse

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			var m metric.Measurements

			previous := build(t, approved(m)).Summary.Severity

			for i, set := range order {
				set(&m)

				current := build(t, approved(m)).Summary.Severity
				if current < previous {
					t.Fatalf("step %d: severity dropped from %s to %s", i, previous, current)
				}

				previous = current
			}
		})
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	var m metric.Measurements
	for _, set := range setters() {
		set(&m)
	}

	first, err := json.Marshal(build(t, approved(m)))
	if err != nil {
		t.Fatal(err)
	}

	second, err := json.Marshal(build(t, approved(m)))
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Errorf("payloads differ:\n%s\n%s", first, second)
	}
}

func TestRecommendationsNonEmptyAndUnique(t *testing.T) {
	var full metric.Measurements
	for _, set := range setters() {
		set(&full)
	}

	for name, m := range map[string]metric.Measurements{"empty": {}, "full": full} {
		t.Run(name, func(t *testing.T) {
			payload := build(t, approved(m))
			if len(payload.Recommendations) == 0 {
				t.Fatal("recommendations must never be empty")
			}

			seen := map[string]bool{}
			for _, rec := range payload.Recommendations {
				if seen[rec.ID] {
					t.Errorf("duplicate recommendation %q", rec.ID)
				}

				seen[rec.ID] = true
			}
		})
	}

	payload := build(t, approved(metric.Measurements{}))
	if payload.Recommendations[0].ID != "rec_more_modules_coming" {
		t.Errorf("placeholder = %+v", payload.Recommendations[0])
	}

	if payload.Summary.Status != sonority.StatusApproved {
		t.Errorf("status = %s", payload.Summary.Status)
	}
}

func TestScenarioLoudAndFlat(t *testing.T) {
	payload := build(t, approved(metric.Measurements{
		IntegratedLUFS:     metric.Of(-8),
		TruePeakDbTP:       metric.Of(-0.05),
		ClippedSampleCount: metric.Of(0),
		CrestFactorDb:      metric.Of(5),
		LoudnessRangeLU:    metric.Of(1.5),
	}))

	if payload.Summary.Status != sonority.StatusApprovedWithRisks {
		t.Errorf("status = %s", payload.Summary.Status)
	}

	if payload.DynamicsHealth.Label != "over-limited" || payload.DynamicsHealth.Score > 54 {
		t.Errorf("dynamics = %+v", payload.DynamicsHealth)
	}

	sev, ok := recommendationIDs(payload)["rec_true_peak_headroom"]
	if !ok || sev < sonority.SeverityWarn {
		t.Errorf("expected a warn or critical true-peak recommendation, got %v (%v)", sev, ok)
	}
}

func TestTruePeakHardFailBoundary(t *testing.T) {
	tests := []struct {
		tp   float64
		want sonority.Severity
	}{
		{1.0, sonority.SeverityWarn},
		{1.000001, sonority.SeverityCritical},
	}

	for _, tt := range tests {
		payload := build(t, approved(metric.Measurements{TruePeakDbTP: metric.Of(tt.tp)}))
		if payload.Summary.Severity != tt.want {
			t.Errorf("tp %v: severity %s, want %s", tt.tp, payload.Summary.Severity, tt.want)
		}

		if got := recommendationIDs(payload)["rec_true_peak_headroom"]; got != tt.want {
			t.Errorf("tp %v: recommendation severity %s, want %s", tt.tp, got, tt.want)
		}
	}
}

func TestYouTubeIsDownOnly(t *testing.T) {
	loud := build(t, approved(metric.Measurements{IntegratedLUFS: metric.Of(-10), TruePeakDbTP: metric.Of(-3)}))

	yt, ok := loud.Metrics.StreamingNormalization.Find("youtube")
	if gain, has := yt.AppliedGainDb.Get(); !ok || !has || gain >= 0 {
		t.Errorf("loud master: youtube gain = %+v", yt)
	}

	quiet := build(t, approved(metric.Measurements{IntegratedLUFS: metric.Of(-20), TruePeakDbTP: metric.Of(-6)}))

	yt, ok = quiet.Metrics.StreamingNormalization.Find("youtube")
	if gain, has := yt.AppliedGainDb.Get(); !ok || !has || gain != 0 {
		t.Errorf("quiet master: youtube gain = %+v", yt)
	}

	if none := build(t, approved(metric.Measurements{})); none.Metrics.StreamingNormalization != nil {
		t.Error("normalization must be omitted without integrated loudness")
	}
}

func TestHeadroomScoreBoundary(t *testing.T) {
	payload := build(t, approved(metric.Measurements{
		CodecSimulation: &metric.CodecSimulation{
			AAC128: &metric.CodecResult{PostTruePeakDb: metric.Of(-0.10)},
		},
	}))

	if payload.CodecSimulation == nil {
		t.Fatal("codec simulation block missing")
	}

	if score, _ := payload.CodecSimulation.HeadroomScore.Get(); score != 35 {
		t.Errorf("score = %v, want 35", score)
	}
}

func TestDynamicsOverride(t *testing.T) {
	payload := build(t, approved(metric.Measurements{
		CrestFactorDb:   metric.Of(4),
		LoudnessRangeLU: metric.Of(1.5),
		IntegratedLUFS:  metric.Of(-5),
	}))

	if payload.DynamicsHealth.Label != "over-limited" || payload.DynamicsHealth.Score > 54 {
		t.Errorf("dynamics = %+v", payload.DynamicsHealth)
	}
}

func TestRejectedWithReasons(t *testing.T) {
	req := approved(metric.Measurements{})
	req.Decision = sonority.DecisionRejected
	req.HardFailReasons = sonority.Reasons{"clipping", " ", "clipping", "true peak"}

	payload := build(t, req)

	if payload.Summary.Status != sonority.StatusHardFail || payload.Summary.Severity != sonority.SeverityCritical {
		t.Errorf("summary = %+v", payload.Summary)
	}

	if !payload.HardFail.Triggered {
		t.Error("hard fail should be triggered")
	}

	if len(payload.HardFail.Reasons) != 2 {
		t.Errorf("reasons = %q", payload.HardFail.Reasons)
	}

	req.HardFailReasons = nil
	if build(t, req).HardFail.Triggered {
		t.Error("no reasons, not triggered")
	}
}

func TestInvalidRequests(t *testing.T) {
	tests := map[string]string{
		"missing queue id": `{"decision": "approved"}`,
		"blank queue id":   `{"queueId": "  ", "decision": "approved"}`,
		"numeric queue id": `{"queueId": 12, "decision": "approved"}`,
		"unknown decision": `{"queueId": "q", "decision": "maybe"}`,
		"missing decision": `{"queueId": "q"}`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := sonority.ParseRequest([]byte(doc)); !errors.Is(err, sonority.ErrInvalidRequest) {
				t.Errorf("err = %v, want invalid request", err)
			}
		})
	}

	if _, err := sonority.ParseRequest([]byte(`{not json`)); !errors.Is(err, fault.ErrInvalidJSON) {
		t.Errorf("err = %v, want invalid json", err)
	}

	if _, err := sonority.Build(nil, sonority.DefaultOptions()); !errors.Is(err, sonority.ErrInvalidRequest) {
		t.Errorf("err = %v, want invalid request", err)
	}
}

func TestWrongTypesAreAbsent(t *testing.T) {
	doc := `{
		"queueId": "q-7",
		"audioHash": "h",
		"decision": "Approved",
		"integratedLufs": "loud",
		"truePeakDbTp": null,
		"loudnessRangeLu": true,
		"crestFactorDb": {"x": 1},
		"phaseCorrelation": 0.9,
		"spectralBandRmsDbfs": [1, 2],
		"codecSimulation": "none",
		"shortTermLufs": {"t": 0},
		"hardFailReasons": "nope"
	}`

	req, err := sonority.ParseRequest([]byte(doc))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}

	payload := build(t, req)

	if payload.Metrics.IntegratedLUFS.Valid() || payload.Metrics.LoudnessRangeLU.Valid() ||
		payload.Metrics.CrestFactorDb.Valid() {
		t.Errorf("wrong-typed values must be absent: %+v", payload.Metrics)
	}

	if v, _ := payload.Metrics.PhaseCorrelation.Get(); v != 0.9 {
		t.Errorf("phase = %v", v)
	}

	if payload.CodecSimulation != nil || payload.Metrics.StreamingNormalization != nil {
		t.Error("absent blocks must be null")
	}

	if payload.Events.ShortTerm != nil || len(payload.Events.Markers) != 0 {
		t.Errorf("events = %+v", payload.Events)
	}

	if payload.DynamicsHealth.Score != 65 {
		t.Errorf("neutral dynamics expected, got %+v", payload.DynamicsHealth)
	}
}

func TestExtremeValuesSerialize(t *testing.T) {
	payload := build(t, approved(metric.Measurements{
		IntegratedLUFS: metric.Of(-1.7e308),
		TruePeakDbTP:   metric.Of(-3),
		ShortTermLUFS: metric.Timeline{
			{T: metric.Of(0), LUFS: metric.Of(1.5e308)},
			{T: metric.Of(1), LUFS: metric.Of(1.5e308)},
		},
	}))

	if _, err := json.Marshal(payload); err != nil {
		t.Fatalf("payload must serialize: %v", err)
	}

	spotify, ok := payload.Metrics.StreamingNormalization.Find("spotify")
	if !ok {
		t.Fatal("expected a spotify result")
	}

	if desired, ok := spotify.DesiredGainDb.Get(); !ok || desired <= 0 {
		t.Errorf("desired gain = %+v", spotify.DesiredGainDb)
	}

	if applied, _ := spotify.AppliedGainDb.Get(); applied != 2 {
		t.Errorf("applied gain = %v, want 2 (capped by the ceiling)", applied)
	}

	if payload.Events.ShortTerm == nil || payload.Events.ShortTerm.MeanLUFS.Valid() {
		t.Errorf("overflowing mean must be null, got %+v", payload.Events.ShortTerm)
	}
}

func TestParseRequestYAML(t *testing.T) {
	doc := `
queueId: q-yaml
audioHash: h
decision: approved
integratedLufs: -8
truePeakDbTp: -0.05
codecSimulation:
  aac128:
    post_true_peak_db: -0.5
    distortion_risk: moderate
`

	req, err := sonority.ParseRequestYAML([]byte(doc))
	if err != nil {
		t.Fatalf("ParseRequestYAML: %v", err)
	}

	payload := build(t, req)

	if payload.CodecSimulation == nil || payload.CodecSimulation.DistortionRisk != "moderate" {
		t.Errorf("codec block = %+v", payload.CodecSimulation)
	}

	if _, err := sonority.ParseRequestYAML([]byte("queueId: [")); !errors.Is(err, fault.ErrInvalidJSON) {
		t.Errorf("err = %v, want invalid json", err)
	}
}

func TestParseRequestYAMLNonFinite(t *testing.T) {
	for _, scalar := range []string{".nan", ".NaN", ".inf", "-.inf", "+.Inf"} {
		t.Run(scalar, func(t *testing.T) {
			doc := "queueId: q\ndecision: approved\ntruePeakDbTp: " + scalar +
				"\nphaseCorrelation: 0.4\nshortTermLufs:\n  - {t: 0, lufs: " + scalar + "}\n"

			req, err := sonority.ParseRequestYAML([]byte(doc))
			if err != nil {
				t.Fatalf("ParseRequestYAML: %v", err)
			}

			if req.TruePeakDbTP.Valid() {
				t.Errorf("true peak = %+v, want absent", req.TruePeakDbTP)
			}

			if v, _ := req.PhaseCorrelation.Get(); v != 0.4 {
				t.Errorf("phase = %v", v)
			}

			if len(req.ShortTermLUFS) != 1 || req.ShortTermLUFS[0].LUFS.Valid() {
				t.Errorf("timeline = %+v", req.ShortTermLUFS)
			}
		})
	}
}

func TestFeedbackIDIsStable(t *testing.T) {
	a := sonority.FeedbackID("q", "h")
	if a != sonority.FeedbackID("q", "h") {
		t.Error("feedback id must be deterministic")
	}

	if a == sonority.FeedbackID("q", "h2") || a == sonority.FeedbackID("qh", "") {
		t.Error("feedback id must depend on both fields")
	}
}
