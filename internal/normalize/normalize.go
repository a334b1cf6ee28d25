// Package normalize predicts the playback gain streaming platforms apply to a master.
package normalize

import (
	"github.com/farcloser/sonority/metric"
)

// DefaultCeilingDbTP is the true-peak ceiling up-gain is not allowed to push past.
const DefaultCeilingDbTP = -1.0

// Platform describes one streaming service's loudness normalization.
type Platform struct {
	Name       string  `toml:"name"`
	Label      string  `toml:"label"`
	TargetLUFS float64 `toml:"target_lufs"`
	// DownOnly platforms never turn quiet tracks up.
	DownOnly bool `toml:"down_only"`
}

// DefaultPlatforms returns Spotify, YouTube and Apple Music in display order.
func DefaultPlatforms() []Platform {
	return []Platform{
		{Name: "spotify", Label: "Spotify", TargetLUFS: -14},
		{Name: "youtube", Label: "YouTube", TargetLUFS: -14, DownOnly: true},
		{Name: "apple_music", Label: "Apple Music", TargetLUFS: -16},
	}
}

// Result is the predicted gain for one platform. Values are rounded to 0.01 dB.
//
//nolint:tagliatelle // payload wire format
type Result struct {
	Platform      string       `json:"platform"`
	Label         string       `json:"label"`
	TargetLUFS    float64      `json:"target_lufs"`
	DesiredGainDb metric.Value `json:"desired_gain_db"`
	MaxUpGainDb   metric.Value `json:"max_up_gain_db"`
	AppliedGainDb metric.Value `json:"applied_gain_db"`
	ResultingLUFS metric.Value `json:"resulting_lufs"`
	DownOnly      bool         `json:"down_only"`
	// HeadroomLimited is true when up-gain was reduced to stay under the ceiling.
	HeadroomLimited bool `json:"headroom_limited"`
}

// Report is the normalization block for a track.
//
//nolint:tagliatelle // payload wire format
type Report struct {
	CeilingDbTP float64  `json:"ceiling_dbtp"`
	Platforms   []Result `json:"platforms"`
}

// Compute predicts per-platform gains. It returns nil when integrated loudness is absent.
func Compute(lufs, truePeak metric.Value, platforms []Platform, ceiling float64) *Report {
	integrated, ok := lufs.Get()
	if !ok {
		return nil
	}

	maxUp := truePeak.Map(func(tp float64) float64 { return ceiling - tp })

	report := &Report{
		CeilingDbTP: ceiling,
		Platforms:   make([]Result, 0, len(platforms)),
	}

	for _, platform := range platforms {
		desired := platform.TargetLUFS - integrated
		applied, limited := appliedGain(desired, maxUp, platform.DownOnly)

		report.Platforms = append(report.Platforms, Result{
			Platform:        platform.Name,
			Label:           platform.Label,
			TargetLUFS:      platform.TargetLUFS,
			DesiredGainDb:   metric.Of(desired).Round(2),
			MaxUpGainDb:     maxUp.Round(2),
			AppliedGainDb:   applied.Round(2),
			ResultingLUFS:   applied.Map(func(g float64) float64 { return integrated + g }).Round(2),
			DownOnly:        platform.DownOnly,
			HeadroomLimited: limited,
		})
	}

	return report
}

// appliedGain applies down-gain as is. Up-gain is zero on down-only platforms, absent when the
// true peak is unknown, and otherwise clamped to [0, max(0, maxUp)].
func appliedGain(desired float64, maxUp metric.Value, downOnly bool) (metric.Value, bool) {
	if desired <= 0 {
		return metric.Of(desired), false
	}

	if downOnly {
		return metric.Of(0), false
	}

	up, ok := maxUp.Get()
	if !ok {
		return metric.None, false
	}

	limit := max(0, up)
	if desired > limit {
		return metric.Of(limit), true
	}

	return metric.Of(desired), false
}

// Find returns the result for the named platform.
func (r *Report) Find(name string) (Result, bool) {
	if r == nil {
		return Result{}, false
	}

	for _, res := range r.Platforms {
		if res.Platform == name {
			return res, true
		}
	}

	return Result{}, false
}
