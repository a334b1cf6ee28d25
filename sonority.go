// Package sonority turns mastering measurements into a versioned feedback payload.
//
// Build is a pure function of its request and options: no I/O, no shared state, safe to call
// concurrently. Identical inputs produce byte-identical JSON except for analyzer.generated_at.
package sonority

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/farcloser/sonority/internal/dynamics"
	"github.com/farcloser/sonority/internal/headroom"
	"github.com/farcloser/sonority/internal/normalize"
	"github.com/farcloser/sonority/internal/rules"
	"github.com/farcloser/sonority/internal/timeline"
	"github.com/farcloser/sonority/version"
)

/*
Usage:

req, err := sonority.ParseRequest(data)
if err != nil {
    return err
}

payload, err := sonority.Build(req, sonority.DefaultOptions())
if payload.Summary.Status == sonority.StatusApprovedWithRisks {
    fmt.Println(payload.Summary.Highlights)
}

// Reproducible output
opts := sonority.DefaultOptions()
opts.Now = func() time.Time { return time.Unix(0, 0) }
payload, err := sonority.Build(req, opts)

// Custom platforms
opts := sonority.DefaultOptions()
opts.Platforms = append(opts.Platforms, sonority.Platform{Name: "tidal", Label: "Tidal", TargetLUFS: -14})
payload, err := sonority.Build(req, opts)

// Iterate recommendations
for _, rec := range payload.Recommendations {
    fmt.Printf("[%s] %s\n", rec.Severity, rec.Title)
}

*/

// Platform is a streaming service loudness target.
type Platform = normalize.Platform

// DefaultPlatforms returns Spotify, YouTube and Apple Music.
func DefaultPlatforms() []Platform {
	return normalize.DefaultPlatforms()
}

// Options configures payload generation.
type Options struct {
	AnalyzerName    string
	AnalyzerVersion string

	// Platforms are evaluated in order. Nil means DefaultPlatforms.
	Platforms []Platform
	// CeilingDbTP is the true-peak ceiling up-gain may not exceed.
	CeilingDbTP float64

	// Now stamps analyzer.generated_at. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the built-in analyzer identity, platforms and ceiling.
func DefaultOptions() Options {
	return Options{
		AnalyzerName:    version.Name(),
		AnalyzerVersion: version.Version(),
		Platforms:       DefaultPlatforms(),
		CeilingDbTP:     normalize.DefaultCeilingDbTP,
		Now:             time.Now,
	}
}

//nolint:gochecknoglobals // fixed namespace for feedback ids
var feedbackNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/farcloser/sonority/feedback"))

// FeedbackID derives the stable id of a track's feedback from its queue id and audio hash.
func FeedbackID(queueID, audioHash string) string {
	return uuid.NewSHA1(feedbackNamespace, []byte(queueID+"\x00"+audioHash)).String()
}

// Build evaluates a request and assembles its payload. It only fails on an invalid request.
func Build(req *Request, opts Options) (*Payload, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	opts = withDefaults(opts)

	metrics := req.Measurements
	if metrics.CodecSimulation.Empty() {
		metrics.CodecSimulation = nil
	}

	health := dynamics.Score(metrics.IntegratedLUFS, metrics.LoudnessRangeLU, metrics.CrestFactorDb)
	room := headroom.Compute(metrics.TruePeakDbTP, metrics.CodecSimulation)
	streaming := normalize.Compute(metrics.IntegratedLUFS, metrics.TruePeakDbTP, opts.Platforms, opts.CeilingDbTP)

	findings := rules.Evaluate(rules.Input{
		Metrics:   metrics,
		Health:    health,
		Headroom:  room,
		Streaming: streaming,
	})

	agg := fold(req.Decision, findings)
	reasons := CleanReasons(req.HardFailReasons)
	queueID := string(req.QueueID)
	audioHash := string(req.AudioHash)

	return &Payload{
		SchemaVersion: SchemaVersion,
		Analyzer: Analyzer{
			Name:        opts.AnalyzerName,
			Version:     opts.AnalyzerVersion,
			GeneratedAt: opts.Now().UTC().Format(time.RFC3339),
		},
		Track: Track{
			QueueID:    queueID,
			AudioHash:  audioHash,
			FeedbackID: FeedbackID(queueID, audioHash),
		},
		Summary: Summary{
			Status:     StatusFor(req.Decision, agg.severity),
			Severity:   agg.severity,
			Highlights: agg.highlights,
		},
		HardFail: HardFail{
			Triggered: req.Decision == DecisionRejected && len(reasons) > 0,
			Reasons:   reasons,
		},
		Metrics:         snapshot(metrics, room, streaming),
		DynamicsHealth:  health,
		Events:          timeline.Analyze(metrics.ShortTermLUFS),
		Recommendations: agg.recommendations,
		CodecSimulation: codecBlock(metrics.CodecSimulation, room),
	}, nil
}

func withDefaults(opts Options) Options {
	if opts.AnalyzerName == "" {
		opts.AnalyzerName = version.Name()
	}

	if opts.AnalyzerVersion == "" {
		opts.AnalyzerVersion = version.Version()
	}

	if opts.Platforms == nil {
		opts.Platforms = DefaultPlatforms()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return opts
}
