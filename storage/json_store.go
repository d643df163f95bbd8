package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"niche-finder/models"
)

// JSONStore persists pipeline artifacts (scrapes, analysis reports,
// content plans) as JSON files between steps, so each stage can run
// independently.
type JSONStore struct {
	dataDir   string
	outputDir string
}

// NewJSONStore ensures both directories exist and returns the store.
func NewJSONStore(dataDir, outputDir string) (*JSONStore, error) {
	for _, dir := range []string{dataDir, outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("json store: create dir %q: %w", dir, err)
		}
	}
	return &JSONStore{dataDir: dataDir, outputDir: outputDir}, nil
}

// scrapeEnvelope wraps one collector run on disk.
type scrapeEnvelope struct {
	Source    string               `json:"source"`
	ScrapedAt time.Time            `json:"scraped_at"`
	Count     int                  `json:"count"`
	Records   []models.RawBusiness `json:"businesses"`
}

// SaveScrape writes collector output to data/scrape_<ts>.json and
// returns the path.
func (s *JSONStore) SaveScrape(source string, records []models.RawBusiness) (string, error) {
	env := scrapeEnvelope{
		Source:    source,
		ScrapedAt: time.Now(),
		Count:     len(records),
		Records:   records,
	}
	path := filepath.Join(s.dataDir, fmt.Sprintf("scrape_%s.json", timestamp()))
	if err := writeJSON(path, env); err != nil {
		return "", err
	}
	return path, nil
}

// LoadScrape reads a saved scrape back. A file whose top level is not a
// record sequence envelope is a malformed artifact, reported as an
// error the caller can treat as fatal input validation.
func (s *JSONStore) LoadScrape(path string) ([]models.RawBusiness, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("json store: read %q: %w", path, err)
	}
	var env scrapeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("json store: %q is not a scrape artifact: %w", path, err)
	}
	return env.Records, nil
}

// LatestScrape finds the most recent scrape artifact, or "" if none.
func (s *JSONStore) LatestScrape() (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dataDir, "scrape_*.json"))
	if err != nil {
		return "", fmt.Errorf("json store: glob: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	// Timestamped names sort chronologically.
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// SaveReport writes an analysis report to output/analysis_<ts>.json.
func (s *JSONStore) SaveReport(report *models.OpportunityReport) (string, error) {
	path := filepath.Join(s.outputDir, fmt.Sprintf("analysis_%s.json", timestamp()))
	if err := writeJSON(path, report); err != nil {
		return "", err
	}
	return path, nil
}

// LoadReport reads a saved analysis report back.
func (s *JSONStore) LoadReport(path string) (*models.OpportunityReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("json store: read %q: %w", path, err)
	}
	var report models.OpportunityReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("json store: %q is not an analysis artifact: %w", path, err)
	}
	return &report, nil
}

// LatestReport finds the most recent analysis artifact, or "" if none.
func (s *JSONStore) LatestReport() (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.outputDir, "analysis_*.json"))
	if err != nil {
		return "", fmt.Errorf("json store: glob: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// SaveContentPlan writes a rendered markdown plan to the output dir.
func (s *JSONStore) SaveContentPlan(plan *models.ContentPlan, markdown string) (string, error) {
	safe := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, strings.ToLower(plan.Niche.Category))

	path := filepath.Join(s.outputDir, fmt.Sprintf("content_%s_%s.md", safe, timestamp()))
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return "", fmt.Errorf("json store: write %q: %w", path, err)
	}
	return path, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json store: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("json store: write %q: %w", path, err)
	}
	return nil
}

func timestamp() string {
	return time.Now().Format("20060102_150405")
}
