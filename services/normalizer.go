package services

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
	"unicode"

	"niche-finder/models"
	"niche-finder/utils"
)

// Normalizer validates and coerces raw collector records into Business
// records, filling defaults for missing fields. Per-record problems are
// recovered by discarding (counted) or clamping (flagged); only a
// malformed top-level payload is fatal.
type Normalizer struct {
	logger *utils.Logger
}

// NormalizeResult is the outcome of one normalization pass.
type NormalizeResult struct {
	Records   []*models.Business
	Discarded int // entries with no identity key and no name, plus duplicates
	Flagged   int // records clamped into range and marked low-confidence
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// DecodeRecords parses a raw collector payload. The top level must be a
// JSON array of record-like objects; anything else is a *ValidationError.
func (n *Normalizer) DecodeRecords(data []byte) ([]models.RawBusiness, error) {
	var raw []models.RawBusiness
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Reason: "top level is not a sequence of records", Err: err}
	}
	return raw, nil
}

// Normalize processes raw entries and returns normalized records plus
// discard/flag counts. Duplicate place IDs are dropped.
func (n *Normalizer) Normalize(raw []models.RawBusiness) *NormalizeResult {
	res := &NormalizeResult{}
	seen := utils.NewKeySet()
	now := time.Now()

	for i := range raw {
		r := &raw[i]

		name := normalizeText(r.Name)
		placeID := strings.TrimSpace(r.PlaceID)
		if placeID == "" && name == "" {
			n.logger.Warn("[normalizer] Dropping entry with no identity key and no name")
			res.Discarded++
			continue
		}
		if placeID == "" {
			placeID = syntheticPlaceID(name, r.Location)
		}

		if !seen.Add(placeID) {
			n.logger.Debug("[normalizer] Duplicate place ID skipped: %s", placeID)
			res.Discarded++
			continue
		}

		b := &models.Business{
			PlaceID:   placeID,
			Name:      name,
			Category:  normalizeText(r.Category),
			Location:  normalizeText(r.Location),
			Address:   normalizeText(r.Address),
			Phone:     strings.TrimSpace(r.Phone),
			Website:   strings.TrimSpace(r.Website),
			FirstSeen: now,
			LastSeen:  now,
		}
		b.HasWebsite = b.Website != ""

		flagged := false
		if r.Rating != nil {
			b.Rating, flagged = clampRating(*r.Rating)
		}

		for _, rr := range r.Reviews {
			rev := models.Review{
				Text:   strings.TrimSpace(rr.Text),
				Author: normalizeText(rr.Author),
				Date:   parseReviewDate(rr.Timestamp),
			}
			if rr.Rating != nil {
				var c bool
				rev.Rating, c = clampRating(*rr.Rating)
				flagged = flagged || c
			}
			b.Reviews = append(b.Reviews, rev)
		}

		if r.ReviewCount != nil && *r.ReviewCount >= 0 {
			b.ReviewCount = *r.ReviewCount
		} else {
			b.ReviewCount = len(b.Reviews)
		}

		if flagged {
			b.LowConfidence = true
			res.Flagged++
			n.logger.Debug("[normalizer] Clamped out-of-range rating for %q - flagged low-confidence", b.Name)
		}

		res.Records = append(res.Records, b)
	}

	n.logger.Info("[normalizer] Normalized %d → %d records (discarded %d, flagged %d)",
		len(raw), len(res.Records), res.Discarded, res.Flagged)
	return res
}

// clampRating forces a rating into [0,5] and reports whether it had to.
func clampRating(v float64) (float64, bool) {
	switch {
	case v < 0:
		return 0, true
	case v > 5:
		return 5, true
	default:
		return v, false
	}
}

var reviewDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseReviewDate tries the known collector timestamp layouts. A zero
// time means unknown age.
func parseReviewDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range reviewDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// syntheticPlaceID derives a stable key for entries the collector could
// not identify, so reruns dedupe the same way.
func syntheticPlaceID(name, location string) string {
	sum := md5.Sum([]byte(strings.ToLower(name) + "|" + strings.ToLower(location)))
	return "syn_" + hex.EncodeToString(sum[:])
}

// normalizeText strips leading/trailing whitespace and collapses internal whitespace.
func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
