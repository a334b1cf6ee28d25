// Package timeline summarizes a short-term loudness series into statistics and event markers.
package timeline

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/sonority/metric"
)

const (
	// GateLUFS drops near-silent readings before any statistic is taken.
	GateLUFS = -70.0
	// JumpLU is the minimum change between consecutive readings reported as a jump.
	JumpLU = 6.0
	// MaxJumps caps the number of jump markers.
	MaxJumps = 8
)

// Marker kinds.
const (
	KindLoudest  = "loudest"
	KindQuietest = "quietest"
	KindJump     = "jump"
)

// Stats describes the gated series. A statistic that overflows is absent.
//
//nolint:tagliatelle // payload wire format
type Stats struct {
	Points   int          `json:"points"`
	MeanLUFS metric.Value `json:"mean_lufs"`
	StdDevLU metric.Value `json:"stddev_lu"`
	MinLUFS  metric.Value `json:"min_lufs"`
	MaxLUFS  metric.Value `json:"max_lufs"`
	P10LUFS  metric.Value `json:"p10_lufs"`
	P95LUFS  metric.Value `json:"p95_lufs"`
}

// Marker points at a moment of interest. DeltaLU is only set on jumps.
//
//nolint:tagliatelle // payload wire format
type Marker struct {
	Kind    string  `json:"kind"`
	T       float64 `json:"t"`
	LUFS    float64 `json:"lufs"`
	DeltaLU float64 `json:"delta_lu,omitempty"`
}

// Events is the payload block. Markers is never nil.
//
//nolint:tagliatelle // payload wire format
type Events struct {
	ShortTerm *Stats   `json:"short_term"`
	Markers   []Marker `json:"markers"`
}

type point struct {
	t, lufs float64
}

// Analyze gates and sorts the series, then derives stats and markers.
func Analyze(series metric.Timeline) Events {
	events := Events{Markers: []Marker{}}

	points := gate(series)
	if len(points) == 0 {
		return events
	}

	levels := make([]float64, len(points))
	for i, p := range points {
		levels[i] = p.lufs
	}

	events.ShortTerm = summarize(levels)

	loudest := points[floats.MaxIdx(levels)]
	quietest := points[floats.MinIdx(levels)]

	events.Markers = append(events.Markers,
		Marker{Kind: KindLoudest, T: metric.Round(loudest.t, 2), LUFS: metric.Round(loudest.lufs, 2)},
		Marker{Kind: KindQuietest, T: metric.Round(quietest.t, 2), LUFS: metric.Round(quietest.lufs, 2)},
	)
	events.Markers = append(events.Markers, jumps(points)...)

	return events
}

func gate(series metric.Timeline) []point {
	points := make([]point, 0, len(series))

	for _, reading := range series {
		t, lufs, ok := both(reading.T, reading.LUFS)
		if !ok || lufs < GateLUFS {
			continue
		}

		points = append(points, point{t: t, lufs: lufs})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].t < points[j].t })

	return points
}

func summarize(levels []float64) *Stats {
	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)

	stddev := 0.0
	if len(sorted) > 1 {
		stddev = stat.StdDev(sorted, nil)
	}

	return &Stats{
		Points:   len(sorted),
		MeanLUFS: round(stat.Mean(sorted, nil)),
		StdDevLU: round(stddev),
		MinLUFS:  round(sorted[0]),
		MaxLUFS:  round(sorted[len(sorted)-1]),
		P10LUFS:  round(stat.Quantile(0.10, stat.Empirical, sorted, nil)),
		P95LUFS:  round(stat.Quantile(0.95, stat.Empirical, sorted, nil)),
	}
}

// jumps keeps the largest changes, reported in time order. A change too large to represent is
// not a jump marker.
func jumps(points []point) []Marker {
	var found []Marker

	for i := 1; i < len(points); i++ {
		delta := points[i].lufs - points[i-1].lufs
		if math.Abs(delta) < JumpLU || math.IsInf(delta, 0) {
			continue
		}

		found = append(found, Marker{
			Kind:    KindJump,
			T:       metric.Round(points[i].t, 2),
			LUFS:    metric.Round(points[i].lufs, 2),
			DeltaLU: metric.Round(delta, 2),
		})
	}

	if len(found) > MaxJumps {
		sort.SliceStable(found, func(i, j int) bool {
			return math.Abs(found[i].DeltaLU) > math.Abs(found[j].DeltaLU)
		})
		found = found[:MaxJumps]
		sort.SliceStable(found, func(i, j int) bool { return found[i].T < found[j].T })
	}

	return found
}

func both(a, b metric.Value) (float64, float64, bool) {
	x, xok := a.Get()
	y, yok := b.Get()

	return x, y, xok && yok
}

func round(v float64) metric.Value {
	return metric.Of(v).Round(2)
}
