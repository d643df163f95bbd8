package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"niche-finder/models"
)

// CSVWriter exports normalized businesses as lead lists.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

var leadHeader = []string{
	"name", "category", "location", "address", "phone", "website",
	"rating", "review_count", "opportunity_notes",
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(leadHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one row per business, annotated with outreach notes.
func (c *CSVWriter) Write(businesses []*models.Business) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range businesses {
		row := []string{
			b.Name,
			b.Category,
			b.Location,
			b.Address,
			b.Phone,
			b.Website,
			strconv.FormatFloat(b.Rating, 'f', 1, 64),
			strconv.Itoa(b.ReviewCount),
			outreachNotes(b),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// outreachNotes summarizes why a business is worth contacting.
func outreachNotes(b *models.Business) string {
	var notes []string
	if b.Rating > 0 && b.Rating < 4.0 {
		notes = append(notes, "below avg rating - may want help")
	}
	if !b.HasWebsite {
		notes = append(notes, "no website - digital marketing opportunity")
	}
	if b.ReviewCount < 20 {
		notes = append(notes, "low review count - reputation management")
	}
	if len(notes) == 0 {
		return "standard outreach"
	}
	return strings.Join(notes, "; ")
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
