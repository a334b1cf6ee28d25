//nolint:tagliatelle
package main

import "github.com/farcloser/sonority"

// Record is a single line in the JSONL report file.
type Record struct {
	Source  string            `json:"source,omitempty"`
	Payload *sonority.Payload `json:"payload,omitempty"`
	Error   string            `json:"error,omitempty"`
	Timing  *RecordTiming     `json:"timing,omitempty"`
}

// RecordTiming captures per-request processing durations in milliseconds.
type RecordTiming struct {
	ParseMs float64 `json:"parse_ms"`
	BuildMs float64 `json:"build_ms"`
	TotalMs float64 `json:"total_ms"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	Source  string         `json:"source,omitempty"`
	Payload *digestPayload `json:"payload,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type digestPayload struct {
	Track           digestTrack            `json:"track"`
	Summary         digestSummary          `json:"summary"`
	DynamicsHealth  digestDynamics         `json:"dynamics_health"`
	Recommendations []digestRecommendation `json:"recommendations"`
}

type digestTrack struct {
	QueueID string `json:"queue_id"`
}

type digestSummary struct {
	Status     string   `json:"status"`
	Severity   string   `json:"severity"`
	Highlights []string `json:"highlights"`
}

type digestDynamics struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

type digestRecommendation struct {
	ID       string `json:"id"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
}

// recommendationBreakdown tracks per-recommendation severity counts for the digest.
type recommendationBreakdown struct {
	ID       string
	Title    string
	Total    int
	Critical int
	Warn     int
	Info     int
}
