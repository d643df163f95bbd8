package services

import (
	"errors"
	"testing"

	"niche-finder/models"
	"niche-finder/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func f(v float64) *float64 { return &v }
func n(v int) *int         { return &v }

func TestNormalizerDiscardsUnidentifiable(t *testing.T) {
	norm := NewNormalizer(newTestLogger())

	raw := []models.RawBusiness{
		{Category: "lawn care", Location: "Austin, TX"}, // no id, no name
		{Name: "Green Lawns", Category: "lawn care", Location: "Austin, TX"},
	}

	res := norm.Normalize(raw)
	if res.Discarded != 1 {
		t.Errorf("Discarded: got %d, want 1", res.Discarded)
	}
	if len(res.Records) != 1 {
		t.Fatalf("Records: got %d, want 1", len(res.Records))
	}
	if res.Records[0].Name != "Green Lawns" {
		t.Errorf("surviving record: got %q, want %q", res.Records[0].Name, "Green Lawns")
	}
}

func TestNormalizerSynthesizesPlaceID(t *testing.T) {
	norm := NewNormalizer(newTestLogger())

	raw := []models.RawBusiness{
		{Name: "Green Lawns", Location: "Austin, TX"},
	}
	res := norm.Normalize(raw)
	if len(res.Records) != 1 {
		t.Fatalf("Records: got %d, want 1", len(res.Records))
	}
	if res.Records[0].PlaceID == "" {
		t.Error("expected synthetic place ID for named record without key")
	}

	// Same name+location must map to the same key on a rerun.
	again := norm.Normalize(raw)
	if again.Records[0].PlaceID != res.Records[0].PlaceID {
		t.Errorf("synthetic ID not stable: %q vs %q", again.Records[0].PlaceID, res.Records[0].PlaceID)
	}
}

func TestNormalizerClampsAndFlags(t *testing.T) {
	norm := NewNormalizer(newTestLogger())

	tests := []struct {
		name       string
		rating     float64
		wantRating float64
		wantFlag   bool
	}{
		{"in range", 4.2, 4.2, false},
		{"above range", 7.5, 5.0, true},
		{"below range", -1.0, 0.0, true},
	}

	for _, tt := range tests {
		raw := []models.RawBusiness{
			{PlaceID: "p1", Name: "Biz", Rating: f(tt.rating)},
		}
		res := norm.Normalize(raw)
		b := res.Records[0]
		if b.Rating != tt.wantRating {
			t.Errorf("%s: rating got %.1f, want %.1f", tt.name, b.Rating, tt.wantRating)
		}
		if b.LowConfidence != tt.wantFlag {
			t.Errorf("%s: low-confidence got %v, want %v", tt.name, b.LowConfidence, tt.wantFlag)
		}
	}
}

func TestNormalizerDefaultsReviewCount(t *testing.T) {
	norm := NewNormalizer(newTestLogger())

	raw := []models.RawBusiness{
		{PlaceID: "p1", Name: "Biz A", Reviews: []models.RawReview{
			{Text: "ok", Rating: f(3)},
			{Text: "fine", Rating: f(4)},
		}},
		{PlaceID: "p2", Name: "Biz B", ReviewCount: n(120)},
		{PlaceID: "p3", Name: "Biz C"},
	}
	res := norm.Normalize(raw)

	wantCounts := []int{2, 120, 0}
	for i, want := range wantCounts {
		if got := res.Records[i].ReviewCount; got != want {
			t.Errorf("record %d: review count got %d, want %d", i, got, want)
		}
	}
}

func TestNormalizerDeduplicatesPlaceID(t *testing.T) {
	norm := NewNormalizer(newTestLogger())

	raw := []models.RawBusiness{
		{PlaceID: "p1", Name: "First"},
		{PlaceID: "p1", Name: "Duplicate"},
	}
	res := norm.Normalize(raw)
	if len(res.Records) != 1 {
		t.Errorf("expected 1 record after dedupe, got %d", len(res.Records))
	}
	if res.Discarded != 1 {
		t.Errorf("Discarded: got %d, want 1", res.Discarded)
	}
}

func TestNormalizerEmptyInput(t *testing.T) {
	norm := NewNormalizer(newTestLogger())
	res := norm.Normalize(nil)
	if len(res.Records) != 0 || res.Discarded != 0 || res.Flagged != 0 {
		t.Errorf("empty input: got %d records, %d discarded, %d flagged; want all zero",
			len(res.Records), res.Discarded, res.Flagged)
	}
}

func TestDecodeRecordsRejectsWrongShape(t *testing.T) {
	norm := NewNormalizer(newTestLogger())

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"object at top level", `{"name": "not a list"}`, false},
		{"scalar", `42`, false},
		{"not json", `<html>`, false},
		{"empty array", `[]`, true},
		{"array of records", `[{"name": "Biz", "rating": 4.5}]`, true},
	}

	for _, tt := range tests {
		_, err := norm.DecodeRecords([]byte(tt.input))
		if tt.valid && err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
		if !tt.valid {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("%s: expected *ValidationError, got %v", tt.name, err)
			}
		}
	}
}

func TestNormalizerParsesReviewDates(t *testing.T) {
	norm := NewNormalizer(newTestLogger())

	raw := []models.RawBusiness{
		{PlaceID: "p1", Name: "Biz", Reviews: []models.RawReview{
			{Text: "a", Rating: f(3), Timestamp: "2024-05-01T10:00:00Z"},
			{Text: "b", Rating: f(3), Timestamp: "2024-05-01"},
			{Text: "c", Rating: f(3), Timestamp: "two months ago"},
			{Text: "d", Rating: f(3)},
		}},
	}
	res := norm.Normalize(raw)
	reviews := res.Records[0].Reviews

	if !reviews[0].HasDate() || !reviews[1].HasDate() {
		t.Error("expected parseable timestamps to resolve")
	}
	if reviews[2].HasDate() || reviews[3].HasDate() {
		t.Error("expected unparseable/missing timestamps to stay unknown-age")
	}
}
