package models

import (
	"fmt"
	"strings"
	"time"
)

// RawReview is a single review as delivered by a collector. Every field is
// optional; timestamps may be missing or unparseable.
type RawReview struct {
	Text      string   `json:"text"`
	Rating    *float64 `json:"rating,omitempty"`
	Author    string   `json:"author,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// RawBusiness is one loosely-structured listing entry from a collector
// (live API, browser scrape, or demo generator). Nothing past the
// normalizer boundary touches this type.
type RawBusiness struct {
	PlaceID     string      `json:"place_id,omitempty"`
	Name        string      `json:"name,omitempty"`
	Category    string      `json:"category,omitempty"`
	Location    string      `json:"location,omitempty"`
	Address     string      `json:"address,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	Website     string      `json:"website,omitempty"`
	Rating      *float64    `json:"rating,omitempty"`
	ReviewCount *int        `json:"review_count,omitempty"`
	Reviews     []RawReview `json:"reviews,omitempty"`
}

// Review is a normalized customer review owned by one Business.
type Review struct {
	Text   string    `json:"text"`
	Rating float64   `json:"rating"`
	Author string    `json:"author,omitempty"`
	Date   time.Time `json:"date,omitempty"` // zero value = unknown age
}

// HasDate reports whether the review carries a resolvable timestamp.
func (r Review) HasDate() bool {
	return !r.Date.IsZero()
}

// Business is a normalized listing record, immutable once the normalizer
// has produced it.
type Business struct {
	PlaceID       string    `json:"place_id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Location      string    `json:"location"`
	Address       string    `json:"address,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Website       string    `json:"website,omitempty"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"review_count"`
	Reviews       []Review  `json:"reviews,omitempty"`
	HasWebsite    bool      `json:"has_website"`
	LowConfidence bool      `json:"low_confidence,omitempty"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
}

// NegativeReviews returns the reviews rated at or below the threshold.
func (b *Business) NegativeReviews(threshold float64) []Review {
	var out []Review
	for _, r := range b.Reviews {
		if r.Rating <= threshold {
			out = append(out, r)
		}
	}
	return out
}

// NicheKey identifies one (category, location) niche, the unit of scoring.
type NicheKey struct {
	Category string `json:"category"`
	Location string `json:"location"`
}

// NicheFor derives the grouping key for a normalized business.
func NicheFor(b *Business) NicheKey {
	return NicheKey{
		Category: strings.ToLower(strings.TrimSpace(b.Category)),
		Location: strings.TrimSpace(b.Location),
	}
}

// String renders the key as "category / location" for logs and reports.
func (k NicheKey) String() string {
	return fmt.Sprintf("%s / %s", k.Category, k.Location)
}
