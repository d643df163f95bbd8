package storage

import "niche-finder/models"

// LeadWriter is the interface any lead-export backend must satisfy.
type LeadWriter interface {
	Write(businesses []*models.Business) error
	Close() error
}

// ReportStore persists pipeline artifacts between steps.
type ReportStore interface {
	SaveScrape(source string, records []models.RawBusiness) (string, error)
	SaveReport(report *models.OpportunityReport) (string, error)
}

var (
	_ LeadWriter  = (*CSVWriter)(nil)
	_ LeadWriter  = (*PostgresWriter)(nil)
	_ ReportStore = (*JSONStore)(nil)
)
