package types

import (
	"encoding/json"
	"fmt"
)

// Severity is the ordinal importance of a finding: info < warn < critical.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityCritical:
		return "critical"
	}

	return "unknown"
}

// Valid reports whether s is one of the three known levels.
func (s Severity) Valid() bool {
	return s >= SeverityInfo && s <= SeverityCritical
}

// Max returns the higher of the two severities.
func (s Severity) Max(other Severity) Severity {
	if other > s {
		return other
	}

	return s
}

// ParseSeverity converts a string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "info":
		return SeverityInfo, nil
	case "warn":
		return SeverityWarn, nil
	case "critical":
		return SeverityCritical, nil
	}

	return 0, fmt.Errorf("unknown severity %q (valid: info, warn, critical)", s)
}

// MarshalJSON renders the severity as its name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// Recommendation is one actionable piece of advice. ID is unique within a payload.
type Recommendation struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Why      string   `json:"why"`
	How      []string `json:"how"`
	Refs     []string `json:"refs,omitempty"`
}

// Clone returns a deep copy.
func (r Recommendation) Clone() Recommendation {
	out := r
	out.How = append([]string(nil), r.How...)

	if r.Refs != nil {
		out.Refs = append([]string(nil), r.Refs...)
	}

	return out
}

// Finding is the output of a single evaluator. Highlight may be empty; Recommendation may be nil.
type Finding struct {
	Source         string
	Severity       Severity
	Highlight      string
	Recommendation *Recommendation
}

// RecommendationID returns the id of the attached recommendation, or "".
func (f Finding) RecommendationID() string {
	if f.Recommendation == nil {
		return ""
	}

	return f.Recommendation.ID
}
