package sonority

import (
	"github.com/farcloser/sonority/internal/dynamics"
	"github.com/farcloser/sonority/internal/headroom"
	"github.com/farcloser/sonority/internal/normalize"
	"github.com/farcloser/sonority/internal/timeline"
	"github.com/farcloser/sonority/internal/types"
	"github.com/farcloser/sonority/metric"
)

// SchemaVersion is the payload contract version. Any change of shape must bump it.
const SchemaVersion = 2

// Re-exported so callers do not need the internal packages to read a payload.
type (
	Severity       = types.Severity
	Recommendation = types.Recommendation
	DynamicsHealth = dynamics.Health
	Events         = timeline.Events
	Normalization  = normalize.Report
)

const (
	SeverityInfo     = types.SeverityInfo
	SeverityWarn     = types.SeverityWarn
	SeverityCritical = types.SeverityCritical
)

// Status summarizes the outcome for a track.
type Status string

const (
	StatusApproved          Status = "approved"
	StatusApprovedWithRisks Status = "approved_with_risks"
	StatusHardFail          Status = "hard-fail"
)

// StatusFor derives the status from the gate decision and the aggregated severity.
func StatusFor(decision Decision, severity Severity) Status {
	switch {
	case decision == DecisionRejected:
		return StatusHardFail
	case severity > SeverityInfo:
		return StatusApprovedWithRisks
	default:
		return StatusApproved
	}
}

// Payload is the feedback document for one track. It is built once and never modified.
//
//nolint:tagliatelle // payload wire format
type Payload struct {
	SchemaVersion   int              `json:"schema_version"`
	Analyzer        Analyzer         `json:"analyzer"`
	Track           Track            `json:"track"`
	Summary         Summary          `json:"summary"`
	HardFail        HardFail         `json:"hard_fail"`
	Metrics         Metrics          `json:"metrics"`
	DynamicsHealth  DynamicsHealth   `json:"dynamics_health"`
	Events          Events           `json:"events"`
	Recommendations []Recommendation `json:"recommendations"`
	CodecSimulation *CodecSimulation `json:"codec_simulation"`
}

// Analyzer identifies the producer of a payload.
//
//nolint:tagliatelle // payload wire format
type Analyzer struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
}

// Track identifies the analyzed audio.
//
//nolint:tagliatelle // payload wire format
type Track struct {
	QueueID    string `json:"queue_id"`
	AudioHash  string `json:"audio_hash"`
	FeedbackID string `json:"feedback_id"`
}

// Summary is the headline verdict. Highlights are in evaluation order.
type Summary struct {
	Status     Status   `json:"status"`
	Severity   Severity `json:"severity"`
	Highlights []string `json:"highlights"`
}

// HardFail carries the externally determined hard-fail reasons.
type HardFail struct {
	Triggered bool     `json:"triggered"`
	Reasons   []string `json:"reasons"`
}

// Bands is the spectral snapshot.
//
//nolint:tagliatelle // payload wire format
type Bands struct {
	Sub     metric.Value `json:"sub"`
	Low     metric.Value `json:"low"`
	LowMid  metric.Value `json:"low_mid"`
	Mid     metric.Value `json:"mid"`
	HighMid metric.Value `json:"high_mid"`
	High    metric.Value `json:"high"`
	Air     metric.Value `json:"air"`
}

// Metrics is the normalized input snapshot plus the values derived from it.
//
//nolint:tagliatelle // payload wire format
type Metrics struct {
	IntegratedLUFS   metric.Value `json:"integrated_lufs"`
	TruePeakDbTP     metric.Value `json:"true_peak_dbtp"`
	SourceHeadroomDb metric.Value `json:"source_headroom_db"`
	LoudnessRangeLU  metric.Value `json:"loudness_range_lu"`
	CrestFactorDb    metric.Value `json:"crest_factor_db"`

	ClippedSampleCount metric.Value `json:"clipped_sample_count"`

	PhaseCorrelation   metric.Value `json:"phase_correlation"`
	MidRmsDbfs         metric.Value `json:"mid_rms_dbfs"`
	SideRmsDbfs        metric.Value `json:"side_rms_dbfs"`
	MidSideEnergyRatio metric.Value `json:"mid_side_energy_ratio"`
	StereoWidthIndex   metric.Value `json:"stereo_width_index"`

	SpectralBandRmsDbfs Bands `json:"spectral_band_rms_dbfs"`

	LowEndPhaseCorrelation20to120  metric.Value `json:"low_end_phase_correlation_20_120"`
	LowEndMonoEnergyLossPct20to120 metric.Value `json:"low_end_mono_energy_loss_pct_20_120"`

	MeanShortCrestDb metric.Value `json:"mean_short_crest_db"`
	P95ShortCrestDb  metric.Value `json:"p95_short_crest_db"`
	TransientDensity metric.Value `json:"transient_density"`
	PunchIndex       metric.Value `json:"punch_index"`

	StreamingNormalization *Normalization `json:"streaming_normalization"`
}

// CodecSimulation echoes the simulator input next to the derived headroom and risk.
//
//nolint:tagliatelle // payload wire format
type CodecSimulation struct {
	PreTruePeakDb metric.Value        `json:"pre_true_peak_db"`
	AAC128        *metric.CodecResult `json:"aac128"`
	MP3128        *metric.CodecResult `json:"mp3128"`

	WorstPostTruePeakDb metric.Value    `json:"worst_post_true_peak_db"`
	PostHeadroomDb      metric.Value    `json:"post_headroom_db"`
	EffectiveHeadroomDb metric.Value    `json:"effective_headroom_db"`
	HeadroomScore       metric.Value    `json:"headroom_score"`
	HeadroomBadge       *headroom.Badge `json:"headroom_badge"`
	DistortionRisk      string          `json:"distortion_risk"`
}

func snapshot(m metric.Measurements, room headroom.Report, streaming *Normalization) Metrics {
	bands := m.SpectralBandRmsDbfs

	return Metrics{
		IntegratedLUFS:   m.IntegratedLUFS,
		TruePeakDbTP:     m.TruePeakDbTP,
		SourceHeadroomDb: room.SourceHeadroomDb.Round(2),
		LoudnessRangeLU:  m.LoudnessRangeLU,
		CrestFactorDb:    m.CrestFactorDb,

		ClippedSampleCount: m.ClippedSampleCount,

		PhaseCorrelation:   m.PhaseCorrelation,
		MidRmsDbfs:         m.MidRmsDbfs,
		SideRmsDbfs:        m.SideRmsDbfs,
		MidSideEnergyRatio: m.MidSideEnergyRatio,
		StereoWidthIndex:   m.StereoWidthIndex,

		SpectralBandRmsDbfs: Bands{
			Sub:     bands.Sub,
			Low:     bands.Low,
			LowMid:  bands.LowMid,
			Mid:     bands.Mid,
			HighMid: bands.HighMid,
			High:    bands.High,
			Air:     bands.Air,
		},

		LowEndPhaseCorrelation20to120:  m.LowEndPhaseCorrelation20to120,
		LowEndMonoEnergyLossPct20to120: m.LowEndMonoEnergyLossPct20to120,

		MeanShortCrestDb: m.MeanShortCrestDb,
		P95ShortCrestDb:  m.P95ShortCrestDb,
		TransientDensity: m.TransientDensity,
		PunchIndex:       m.PunchIndex,

		StreamingNormalization: streaming,
	}
}

func codecBlock(sim *metric.CodecSimulation, room headroom.Report) *CodecSimulation {
	if sim.Empty() {
		return nil
	}

	block := &CodecSimulation{
		PreTruePeakDb:       sim.PreTruePeakDb,
		WorstPostTruePeakDb: room.WorstPostTruePeak.Round(2),
		PostHeadroomDb:      room.PostHeadroomDb.Round(2),
		EffectiveHeadroomDb: room.EffectiveHeadroom.Round(2),
		HeadroomScore:       room.Score,
		DistortionRisk:      room.DistortionRisk.String(),
	}

	if !sim.AAC128.Empty() {
		aac := *sim.AAC128
		block.AAC128 = &aac
	}

	if !sim.MP3128.Empty() {
		mp3 := *sim.MP3128
		block.MP3128 = &mp3
	}

	if room.Score.Valid() {
		badge := room.Badge
		block.HeadroomBadge = &badge
	}

	return block
}
