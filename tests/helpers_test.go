package tests_test

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"
)

// rawPayload is the subset of a raw payload the integration tests look at.
//
//nolint:tagliatelle // payload wire format
type rawPayload struct {
	SchemaVersion int `json:"schema_version"`
	Track         struct {
		QueueID    string `json:"queue_id"`
		FeedbackID string `json:"feedback_id"`
	} `json:"track"`
	Summary struct {
		Status   string `json:"status"`
		Severity string `json:"severity"`
	} `json:"summary"`
	HardFail struct {
		Triggered bool     `json:"triggered"`
		Reasons   []string `json:"reasons"`
	} `json:"hard_fail"`
	Recommendations []struct {
		ID       string `json:"id"`
		Severity string `json:"severity"`
	} `json:"recommendations"`
	Analyzer struct {
		GeneratedAt string `json:"generated_at"`
	} `json:"analyzer"`
}

// decodePayload fails the test and returns nil when stdout is not a payload.
func decodePayload(stdout string, testing tig.T) *rawPayload {
	testing.Helper()

	payload := &rawPayload{}
	if err := json.Unmarshal([]byte(stdout), payload); err != nil {
		testing.Log(fmt.Sprintf("output is not a payload document: %v\n%s", err, stdout))
		testing.Fail()

		return nil
	}

	return payload
}

// expectStatus returns a comparator verifying the summary status of a raw payload.
func expectStatus(status, severity string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		payload := decodePayload(stdout, testing)
		if payload == nil {
			return
		}

		if payload.Summary.Status != status || payload.Summary.Severity != severity {
			testing.Log(fmt.Sprintf("expected %s/%s, got %s/%s",
				status, severity, payload.Summary.Status, payload.Summary.Severity))
			testing.Fail()
		}
	}
}

// expectRecommendation returns a comparator verifying a recommendation id is present.
func expectRecommendation(id string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		payload := decodePayload(stdout, testing)
		if payload == nil {
			return
		}

		ids := make([]string, 0, len(payload.Recommendations))
		for _, rec := range payload.Recommendations {
			if rec.ID == id {
				return
			}

			ids = append(ids, rec.ID)
		}

		testing.Log(fmt.Sprintf("expected recommendation %q, got %s", id, strings.Join(ids, ", ")))
		testing.Fail()
	}
}

// expectHardFail returns a comparator verifying the hard-fail block.
func expectHardFail(reasons ...string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		payload := decodePayload(stdout, testing)
		if payload == nil {
			return
		}

		if !payload.HardFail.Triggered {
			testing.Log("expected hard_fail.triggered")
			testing.Fail()
		}

		if strings.Join(payload.HardFail.Reasons, "|") != strings.Join(reasons, "|") {
			testing.Log(fmt.Sprintf("expected reasons %q, got %q", reasons, payload.HardFail.Reasons))
			testing.Fail()
		}
	}
}

// expectGeneratedAt returns a comparator verifying the payload timestamp.
func expectGeneratedAt(stamp string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		payload := decodePayload(stdout, testing)
		if payload == nil {
			return
		}

		if payload.Analyzer.GeneratedAt != stamp {
			testing.Log(fmt.Sprintf("expected generated_at %q, got %q", stamp, payload.Analyzer.GeneratedAt))
			testing.Fail()
		}
	}
}

// expectContains returns a comparator verifying the output contains a substring.
func expectContains(substr string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if !strings.Contains(stdout, substr) {
			testing.Log(fmt.Sprintf("expected substring %q not found in output:\n%s", substr, stdout))
			testing.Fail()
		}
	}
}
