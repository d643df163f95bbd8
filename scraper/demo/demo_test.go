package demo

import (
	"reflect"
	"testing"
	"time"

	"niche-finder/utils"
)

func fixedGenerator() *Generator {
	g := New(utils.NewLogger())
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return base }
	return g
}

func TestGeneratorProducesAnalyzableSet(t *testing.T) {
	g := fixedGenerator()

	records, err := g.Collect("pressure washing", "Miami, FL", 0)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("records: got %d, want 5", len(records))
	}

	withoutWebsite := 0
	for _, r := range records {
		if r.Category != "pressure washing" || r.Location != "Miami, FL" {
			t.Errorf("record %s: wrong niche fields: %q / %q", r.PlaceID, r.Category, r.Location)
		}
		if r.Rating == nil || r.ReviewCount == nil {
			t.Errorf("record %s: missing rating or review count", r.PlaceID)
		}
		if len(r.Reviews) == 0 {
			t.Errorf("record %s: no reviews to mine", r.PlaceID)
		}
		if r.Website == "" {
			withoutWebsite++
		}
	}
	// The set must include website-less businesses so the saturation
	// signal has something to measure.
	if withoutWebsite == 0 {
		t.Error("expected at least one record without a website")
	}
}

func TestGeneratorHonorsMax(t *testing.T) {
	g := fixedGenerator()

	records, err := g.Collect("plumbing", "Denver, CO", 2)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records: got %d, want 2", len(records))
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	first, err := fixedGenerator().Collect("plumbing", "Denver, CO", 0)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	second, err := fixedGenerator().Collect("plumbing", "Denver, CO", 0)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical query and clock should produce identical records")
	}
}
