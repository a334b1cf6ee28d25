package sonority

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/farcloser/primordium/fault"
	"gopkg.in/yaml.v3"

	"github.com/farcloser/sonority/metric"
)

// ErrInvalidRequest is returned when a request cannot be turned into feedback.
var ErrInvalidRequest = errors.New("invalid request")

// Decision is the upstream gate verdict.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Valid reports whether d is one of the known decisions.
func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// Request is one feedback request: track identity, the gate decision and the measurements.
type Request struct {
	QueueID         metric.Text `json:"queueId"`
	AudioHash       metric.Text `json:"audioHash"`
	Decision        Decision    `json:"decision"`
	HardFailReasons Reasons     `json:"hardFailReasons"`

	metric.Measurements
}

// Reasons is the list of external hard-fail reasons. Non-string entries and blanks are dropped,
// duplicates are removed keeping the first occurrence.
type Reasons []string

// UnmarshalJSON tolerates a wrong-typed list.
func (r *Reasons) UnmarshalJSON(data []byte) error {
	*r = nil

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil //nolint:nilerr // wrong-typed reasons are treated as absent
	}

	var list []string

	for _, item := range raw {
		var s string
		if json.Unmarshal(item, &s) == nil {
			list = append(list, s)
		}
	}

	*r = CleanReasons(list)

	return nil
}

// CleanReasons trims, drops blanks and de-duplicates, preserving order.
func CleanReasons(reasons []string) Reasons {
	seen := map[string]bool{}
	out := Reasons{}

	for _, reason := range reasons {
		reason = strings.TrimSpace(reason)
		if reason == "" || seen[reason] {
			continue
		}

		seen[reason] = true
		out = append(out, reason)
	}

	return out
}

// UnmarshalJSON decodes the decision case-insensitively. Wrong types decode to the empty decision,
// which Validate rejects.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var text metric.Text
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}

	*d = Decision(text.Normalized())

	return nil
}

// Validate checks the only two fields a request cannot do without.
func (r *Request) Validate() error {
	if strings.TrimSpace(string(r.QueueID)) == "" {
		return fmt.Errorf("%w: queueId is required", ErrInvalidRequest)
	}

	if !r.Decision.Valid() {
		return fmt.Errorf("%w: decision must be %q or %q, got %q",
			ErrInvalidRequest, DecisionApproved, DecisionRejected, r.Decision)
	}

	return nil
}

// ParseRequest decodes and validates a JSON request.
func ParseRequest(data []byte) (*Request, error) {
	req := &Request{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	if req.CodecSimulation.Empty() {
		req.CodecSimulation = nil
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// ParseRequestYAML decodes a YAML request. The document goes through the JSON decoder so both
// formats share the same tolerance rules.
func ParseRequestYAML(data []byte) (*Request, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	encoded, err := json.Marshal(dropNonFinite(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	return ParseRequest(encoded)
}

// dropNonFinite replaces YAML .nan and .inf scalars with null, which JSON can carry.
func dropNonFinite(node any) any {
	switch value := node.(type) {
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil
		}
	case map[string]any:
		for key, child := range value {
			value[key] = dropNonFinite(child)
		}
	case []any:
		for i, child := range value {
			value[i] = dropNonFinite(child)
		}
	}

	return node
}
