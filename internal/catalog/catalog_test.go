package catalog

import (
	"errors"
	"testing"

	"github.com/farcloser/sonority/internal/types"
)

func TestBuiltinParses(t *testing.T) {
	cat, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}

	if cat.Version != 2 {
		t.Errorf("version = %d, want 2", cat.Version)
	}

	if len(cat.Keys()) == 0 {
		t.Fatal("expected entries")
	}

	if _, ok := cat.Lookup("more_modules_coming"); !ok {
		t.Error("placeholder entry missing")
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	doc := []byte(`
entries:
  - {key: a, id: rec_a, title: A, how: [x]}
  - {key: a, id: rec_b, title: B, how: [y]}
`)

	if _, err := Parse(doc); !errors.Is(err, errDuplicateKey) {
		t.Errorf("err = %v, want duplicate key", err)
	}
}

func TestParseRejectsIncomplete(t *testing.T) {
	doc := []byte(`
entries:
  - {key: a, id: rec_a, title: A}
`)

	if _, err := Parse(doc); !errors.Is(err, errIncomplete) {
		t.Errorf("err = %v, want incomplete", err)
	}
}

func TestRecommendationCopiesText(t *testing.T) {
	first := Recommendation("low_end_mono", types.SeverityWarn)
	first.How[0] = "mutated"

	second := Recommendation("low_end_mono", types.SeverityInfo)
	if second.How[0] == "mutated" {
		t.Error("recommendations must not share backing arrays")
	}

	if second.ID != "rec_low_end_mono" || second.Severity != types.SeverityInfo {
		t.Errorf("unexpected recommendation %+v", second)
	}
}

func TestRecommendationUnknownKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()

	Recommendation("does_not_exist", types.SeverityInfo)
}
