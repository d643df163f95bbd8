package models

import "time"

// PainPoint is one mined complaint theme for a niche.
type PainPoint struct {
	Phrase   string   `json:"phrase"`   // most frequent surface form
	Support  int      `json:"support"`  // reviews containing the theme, >= 1
	Severity float64  `json:"severity"` // support * mean(5.0 - rating)
	Quotes   []string `json:"quotes,omitempty"`
}

// SubScores holds the four normalized opportunity signals, each in [0,1].
type SubScores struct {
	Volume       float64 `json:"volume"`
	Velocity     float64 `json:"velocity"`
	SentimentGap float64 `json:"sentiment_gap"`
	Saturation   float64 `json:"saturation"` // already inverted: high = open market
}

// OpportunityScore is the per-niche composite score.
type OpportunityScore struct {
	Niche NicheKey  `json:"niche"`
	Sub   SubScores `json:"sub_scores"`
	Total float64   `json:"total"` // weighted sum of sub-scores, in [0,1]
	Rank  int       `json:"rank"`  // 1-based position within the report
}

// NicheResult is one scored niche inside a report.
type NicheResult struct {
	Niche      NicheKey         `json:"niche"`
	Score      OpportunityScore `json:"score"`
	PainPoints []PainPoint      `json:"pain_points"`
	Businesses []*Business      `json:"businesses"`
}

// SkippedNiche records a niche that could not be scored and why.
type SkippedNiche struct {
	Niche  NicheKey `json:"niche"`
	Reason string   `json:"reason"`
}

// OpportunityReport is the root artifact of one analysis run. It is
// immutable after the aggregator returns it; exporters and content
// generators only read it.
type OpportunityReport struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Niches      []NicheResult  `json:"niches"` // ranked, best first
	Skipped     []SkippedNiche `json:"skipped,omitempty"`
	Discarded   int            `json:"discarded_records"`
	Flagged     int            `json:"flagged_records"`
}

// Top returns the highest-ranked niche, or nil for an empty report.
func (r *OpportunityReport) Top() *NicheResult {
	if len(r.Niches) == 0 {
		return nil
	}
	return &r.Niches[0]
}
