// Package demo generates synthetic business records so the full
// pipeline can run without any scraping API key. Output is
// deterministic for a given query and location.
package demo

import (
	"fmt"
	"strings"
	"time"

	"niche-finder/models"
	"niche-finder/utils"
)

// Generator is the offline stand-in for a live collector.
type Generator struct {
	logger *utils.Logger

	// now anchors the synthetic review dates; overridable in tests.
	now func() time.Time
}

// New creates a demo Generator.
func New(logger *utils.Logger) *Generator {
	return &Generator{logger: logger, now: time.Now}
}

// Name identifies this collector in logs and artifacts.
func (g *Generator) Name() string { return "demo" }

// Collect fabricates a plausible set of local businesses for the query:
// a couple of solid providers, a couple of struggling ones, and one
// sparse entry, so every analysis signal has something to chew on.
func (g *Generator) Collect(query, location string, max int) ([]models.RawBusiness, error) {
	g.logger.Warn("[demo] No scraping API configured - generating synthetic data for %q in %q", query, location)

	titled := titleCase(query)
	records := []models.RawBusiness{
		{
			PlaceID:     "demo_1",
			Name:        fmt.Sprintf("Pro %s Services", titled),
			Category:    query,
			Location:    location,
			Address:     "123 Main St",
			Phone:       "(555) 123-4567",
			Website:     "https://example.com",
			Rating:      ptr(4.2),
			ReviewCount: intPtr(47),
			Reviews:     g.positiveReviews(),
		},
		{
			PlaceID:     "demo_2",
			Name:        fmt.Sprintf("Budget %s Co", titled),
			Category:    query,
			Location:    location,
			Address:     "456 Oak Ave",
			Phone:       "(555) 234-5678",
			Rating:      ptr(3.1),
			ReviewCount: intPtr(23),
			Reviews:     g.negativeReviews(),
		},
		{
			PlaceID:     "demo_3",
			Name:        fmt.Sprintf("Elite %s", titled),
			Category:    query,
			Location:    location,
			Address:     "789 Pine Rd",
			Phone:       "(555) 345-6789",
			Website:     "https://elite-example.com",
			Rating:      ptr(4.8),
			ReviewCount: intPtr(156),
			Reviews:     g.positiveReviews(),
		},
		{
			PlaceID:     "demo_4",
			Name:        fmt.Sprintf("Local %s Experts", titled),
			Category:    query,
			Location:    location,
			Address:     "321 Elm St",
			Rating:      ptr(2.9),
			ReviewCount: intPtr(12),
			Reviews:     g.negativeReviews(),
		},
		{
			PlaceID:     "demo_5",
			Name:        fmt.Sprintf("Family %s Service", titled),
			Category:    query,
			Location:    location,
			Address:     "654 Maple Dr",
			Phone:       "(555) 456-7890",
			Rating:      ptr(4.5),
			ReviewCount: intPtr(89),
			Reviews:     g.positiveReviews(),
		},
	}

	if max > 0 && len(records) > max {
		records = records[:max]
	}
	return records, nil
}

func (g *Generator) positiveReviews() []models.RawReview {
	return []models.RawReview{
		{Rating: ptr(5.0), Text: "Excellent service! Professional and on time.", Timestamp: g.daysAgo(12)},
		{Rating: ptr(4.0), Text: "Good work, fair prices. Would use again.", Timestamp: g.daysAgo(40)},
		{Rating: ptr(5.0), Text: "Best in the area. Highly recommend!", Timestamp: g.daysAgo(75)},
		{Rating: ptr(4.0), Text: "Quality work, though scheduling took a while.", Timestamp: g.daysAgo(130)},
		{Rating: ptr(5.0), Text: "Transformed my space. Very happy with the results.", Timestamp: g.daysAgo(200)},
	}
}

func (g *Generator) negativeReviews() []models.RawReview {
	return []models.RawReview{
		{Rating: ptr(1.0), Text: "Terrible service! They never showed up on time and the work was sloppy.", Timestamp: g.daysAgo(8)},
		{Rating: ptr(2.0), Text: "Overpriced and unprofessional. Would not recommend.", Timestamp: g.daysAgo(25)},
		{Rating: ptr(2.0), Text: "Communication was awful. Had to call multiple times to get updates.", Timestamp: g.daysAgo(55)},
		{Rating: ptr(3.0), Text: "Average work, but too expensive for what you get.", Timestamp: g.daysAgo(90)},
		{Rating: ptr(1.0), Text: "They damaged my property and refused to take responsibility.", Timestamp: g.daysAgo(160)},
	}
}

func (g *Generator) daysAgo(n int) string {
	return g.now().AddDate(0, 0, -n).Format(time.RFC3339)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func ptr(f float64) *float64 { return &f }
func intPtr(n int) *int      { return &n }
