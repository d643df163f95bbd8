package services

import (
	"reflect"
	"testing"

	"niche-finder/config"
	"niche-finder/models"
)

func aggregatorWith(t *testing.T, cfg config.AnalysisConfig, concurrency int) *Aggregator {
	t.Helper()
	a, err := NewAggregator(cfg, concurrency, newTestLogger())
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}
	return a
}

func TestAggregatorScenarioReport(t *testing.T) {
	a := aggregatorWith(t, config.DefaultAnalysisConfig(), 1)
	_, businesses := pressureWashingNiche()

	report := a.Analyze(&NormalizeResult{Records: businesses})

	if len(report.Niches) != 1 {
		t.Fatalf("scored niches: got %d, want 1", len(report.Niches))
	}
	n := report.Niches[0]
	if n.Niche.Category != "pressure washing" || n.Niche.Location != "Miami, FL" {
		t.Errorf("niche key: got %v", n.Niche)
	}
	if n.Score.Rank != 1 {
		t.Errorf("rank: got %d, want 1", n.Score.Rank)
	}
	if len(n.PainPoints) < 2 ||
		n.PainPoints[0].Phrase != "slow response" ||
		n.PainPoints[1].Phrase != "no show" {
		t.Errorf("pain points: got %v", n.PainPoints)
	}
	if n.Score.Sub.SentimentGap <= 0 {
		t.Errorf("sentiment gap: got %.3f, want > 0", n.Score.Sub.SentimentGap)
	}
	if len(n.Businesses) != 3 {
		t.Errorf("constituent businesses: got %d, want 3", len(n.Businesses))
	}
	if report.RunID == "" {
		t.Error("expected a run ID")
	}
}

func TestAggregatorEmptyInput(t *testing.T) {
	a := aggregatorWith(t, config.DefaultAnalysisConfig(), 1)

	report := a.Analyze(&NormalizeResult{})
	if len(report.Niches) != 0 {
		t.Errorf("scored niches: got %d, want 0", len(report.Niches))
	}
	if len(report.Skipped) != 0 {
		t.Errorf("skipped niches: got %d, want 0", len(report.Skipped))
	}
}

func TestAggregatorCarriesNormalizerCounts(t *testing.T) {
	a := aggregatorWith(t, config.DefaultAnalysisConfig(), 1)
	_, businesses := pressureWashingNiche()

	report := a.Analyze(&NormalizeResult{Records: businesses, Discarded: 2, Flagged: 1})
	if report.Discarded != 2 || report.Flagged != 1 {
		t.Errorf("counts: got discarded=%d flagged=%d, want 2 and 1", report.Discarded, report.Flagged)
	}
}

func TestAggregatorSkipRecordsReason(t *testing.T) {
	a := aggregatorWith(t, config.DefaultAnalysisConfig(), 1)

	key := models.NicheKey{Category: "gutters", Location: "Boise, ID"}
	outcome := a.analyzeNiche(key, nil)

	if outcome.result != nil {
		t.Error("expected no result for empty partition")
	}
	if outcome.skipped == nil {
		t.Fatal("expected a skip entry for empty partition")
	}
	if outcome.skipped.Niche != key {
		t.Errorf("skip key: got %v, want %v", outcome.skipped.Niche, key)
	}
	if outcome.skipped.Reason == "" {
		t.Error("skip entry must carry a reason")
	}
}

// twoNicheRecords builds two niches with identical data so their totals
// tie and only the lexical order decides ranking.
func twoNicheRecords() []*models.Business {
	mk := func(place, category string) *models.Business {
		return &models.Business{
			PlaceID: place, Name: "Biz " + place, Category: category,
			Location: "Tulsa, OK", ReviewCount: 25,
			Reviews: []models.Review{
				{Rating: 1, Text: "Left the job half finished"},
				{Rating: 2, Text: "Half finished work and no apology"},
				{Rating: 5, Text: "Lovely people"},
			},
		}
	}
	return []*models.Business{
		mk("b1", "window cleaning"),
		mk("a1", "carpet cleaning"),
	}
}

func TestAggregatorTiesBreakLexically(t *testing.T) {
	a := aggregatorWith(t, config.DefaultAnalysisConfig(), 1)

	report := a.Analyze(&NormalizeResult{Records: twoNicheRecords()})
	if len(report.Niches) != 2 {
		t.Fatalf("scored niches: got %d, want 2", len(report.Niches))
	}
	if report.Niches[0].Score.Total != report.Niches[1].Score.Total {
		t.Fatalf("expected identical totals, got %.6f vs %.6f",
			report.Niches[0].Score.Total, report.Niches[1].Score.Total)
	}
	if report.Niches[0].Niche.Category != "carpet cleaning" {
		t.Errorf("tie-break: got %q first, want %q", report.Niches[0].Niche.Category, "carpet cleaning")
	}
	if report.Niches[0].Score.Rank != 1 || report.Niches[1].Score.Rank != 2 {
		t.Errorf("ranks: got %d and %d, want 1 and 2",
			report.Niches[0].Score.Rank, report.Niches[1].Score.Rank)
	}
}

func TestAggregatorDeterministicAcrossRunsAndWorkers(t *testing.T) {
	records := twoNicheRecords()
	_, scenario := pressureWashingNiche()
	records = append(records, scenario...)

	var reports []*models.OpportunityReport
	for _, workers := range []int{1, 4} {
		a := aggregatorWith(t, config.DefaultAnalysisConfig(), workers)
		reports = append(reports, a.Analyze(&NormalizeResult{Records: records}))
	}

	stripRun := func(r *models.OpportunityReport) []models.NicheResult {
		out := make([]models.NicheResult, len(r.Niches))
		copy(out, r.Niches)
		return out
	}

	if !reflect.DeepEqual(stripRun(reports[0]), stripRun(reports[1])) {
		t.Error("ranked output differs between sequential and parallel runs")
	}
}

func TestNewAggregatorRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultAnalysisConfig()
	cfg.Weights.SentimentGap = 0 // sum no longer 1.0

	if _, err := NewAggregator(cfg, 1, newTestLogger()); err == nil {
		t.Error("expected construction to fail before processing any data")
	}
}
