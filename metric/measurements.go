package metric

import (
	"bytes"
	"encoding/json"
)

// SpectralBands holds per-band RMS levels in dBFS.
type SpectralBands struct {
	Sub     Value `json:"sub"`
	Low     Value `json:"low"`
	LowMid  Value `json:"lowMid"`
	Mid     Value `json:"mid"`
	HighMid Value `json:"highMid"`
	High    Value `json:"high"`
	Air     Value `json:"air"`
}

// UnmarshalJSON tolerates a wrong-typed band block.
func (b *SpectralBands) UnmarshalJSON(data []byte) error {
	type plain SpectralBands

	*b = SpectralBands{}

	if !isObject(data) {
		return nil
	}

	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil //nolint:nilerr // malformed blocks are treated as absent
	}

	*b = SpectralBands(decoded)

	return nil
}

// CodecResult is the outcome of one simulated lossy encode.
//
//nolint:tagliatelle // wire format of the codec simulator
type CodecResult struct {
	PostTruePeakDb  Value `json:"post_true_peak_db"`
	OversCount      Value `json:"overs_count"`
	HeadroomDeltaDb Value `json:"headroom_delta_db"`
	DistortionRisk  Text  `json:"distortion_risk"`
}

// Empty reports whether no field of the result carries information.
func (c *CodecResult) Empty() bool {
	return c == nil || (!c.PostTruePeakDb.Valid() && !c.OversCount.Valid() &&
		!c.HeadroomDeltaDb.Valid() && c.DistortionRisk == "")
}

// UnmarshalJSON tolerates a wrong-typed result block.
func (c *CodecResult) UnmarshalJSON(data []byte) error {
	type plain CodecResult

	*c = CodecResult{}

	if !isObject(data) {
		return nil
	}

	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil //nolint:nilerr // malformed blocks are treated as absent
	}

	*c = CodecResult(decoded)

	return nil
}

// CodecSimulation holds the pre-encode true peak and the per-codec results.
//
//nolint:tagliatelle // wire format of the codec simulator
type CodecSimulation struct {
	PreTruePeakDb Value        `json:"pre_true_peak_db"`
	AAC128        *CodecResult `json:"aac128,omitempty"`
	MP3128        *CodecResult `json:"mp3128,omitempty"`
}

// Empty reports whether the simulation carries no usable field.
func (s *CodecSimulation) Empty() bool {
	return s == nil || (!s.PreTruePeakDb.Valid() && s.AAC128.Empty() && s.MP3128.Empty())
}

// Codecs returns the present codec results in a fixed order.
func (s *CodecSimulation) Codecs() []NamedCodec {
	if s == nil {
		return nil
	}

	var out []NamedCodec

	if !s.AAC128.Empty() {
		out = append(out, NamedCodec{Name: CodecAAC128, Result: *s.AAC128})
	}

	if !s.MP3128.Empty() {
		out = append(out, NamedCodec{Name: CodecMP3128, Result: *s.MP3128})
	}

	return out
}

// UnmarshalJSON tolerates a wrong-typed simulation block.
func (s *CodecSimulation) UnmarshalJSON(data []byte) error {
	type plain CodecSimulation

	*s = CodecSimulation{}

	if !isObject(data) {
		return nil
	}

	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil //nolint:nilerr // malformed blocks are treated as absent
	}

	*s = CodecSimulation(decoded)

	return nil
}

// Codec names a simulated encoder.
type Codec string

const (
	CodecAAC128 Codec = "aac128"
	CodecMP3128 Codec = "mp3128"
)

// Label returns a display name.
func (c Codec) Label() string {
	switch c {
	case CodecAAC128:
		return "AAC 128"
	case CodecMP3128:
		return "MP3 128"
	}

	return string(c)
}

// NamedCodec pairs a codec with its result.
type NamedCodec struct {
	Name   Codec
	Result CodecResult
}

// TimelinePoint is one short-term loudness reading.
type TimelinePoint struct {
	T    Value `json:"t"`
	LUFS Value `json:"lufs"`
}

// Timeline is a short-term LUFS series. A wrong-typed timeline decodes as empty.
type Timeline []TimelinePoint

// UnmarshalJSON tolerates wrong-typed timelines and points.
func (t *Timeline) UnmarshalJSON(data []byte) error {
	*t = nil

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil //nolint:nilerr // malformed timelines are treated as absent
	}

	points := make(Timeline, 0, len(raw))

	for _, item := range raw {
		if !isObject(item) {
			continue
		}

		var point TimelinePoint
		if err := json.Unmarshal(item, &point); err != nil {
			continue
		}

		points = append(points, point)
	}

	*t = points

	return nil
}

// Measurements is the flat set of optional measurements for one track.
type Measurements struct {
	IntegratedLUFS  Value `json:"integratedLufs"`
	TruePeakDbTP    Value `json:"truePeakDbTp"`
	LoudnessRangeLU Value `json:"loudnessRangeLu"`
	CrestFactorDb   Value `json:"crestFactorDb"`

	ClippedSampleCount Value `json:"clippedSampleCount"`

	PhaseCorrelation   Value `json:"phaseCorrelation"`
	MidRmsDbfs         Value `json:"midRmsDbfs"`
	SideRmsDbfs        Value `json:"sideRmsDbfs"`
	MidSideEnergyRatio Value `json:"midSideEnergyRatio"`
	StereoWidthIndex   Value `json:"stereoWidthIndex"`

	SpectralBandRmsDbfs SpectralBands `json:"spectralBandRmsDbfs"`

	LowEndPhaseCorrelation20to120  Value `json:"lowEndPhaseCorrelation20to120"`
	LowEndMonoEnergyLossPct20to120 Value `json:"lowEndMonoEnergyLossPct20to120"`

	MeanShortCrestDb Value `json:"meanShortCrestDb"`
	P95ShortCrestDb  Value `json:"p95ShortCrestDb"`
	TransientDensity Value `json:"transientDensity"`
	PunchIndex       Value `json:"punchIndex"`

	CodecSimulation *CodecSimulation `json:"codecSimulation,omitempty"`
	ShortTermLUFS   Timeline         `json:"shortTermLufs,omitempty"`
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)

	return len(data) > 0 && data[0] == '{'
}
