package scraper

import "niche-finder/models"

// Collector fetches raw listing and review records for one
// (category, location) query. Implementations may return fewer records
// than requested, entirely synthetic records, or fail outright; the
// analysis engine treats all sources the same.
type Collector interface {
	// Collect returns up to max raw business records for the query.
	Collect(query, location string, max int) ([]models.RawBusiness, error)
	// Name identifies the source in logs and saved artifacts.
	Name() string
}
