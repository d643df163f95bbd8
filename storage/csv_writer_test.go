package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"niche-finder/models"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestCSVWriterHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	leads := []*models.Business{
		{Name: "Miami Power Clean", Category: "pressure washing", Location: "Miami, FL",
			Phone: "305-555-0101", Website: "https://mpc.example", HasWebsite: true,
			Rating: 4.2, ReviewCount: 50},
		{Name: "Quick Wash Co", Category: "pressure washing", Location: "Miami, FL",
			Rating: 3.1, ReviewCount: 10},
	}
	if err := w.Write(leads); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want header + 2", len(rows))
	}
	if rows[0][0] != "name" || rows[0][len(rows[0])-1] != "opportunity_notes" {
		t.Errorf("header: got %v", rows[0])
	}
	if rows[1][0] != "Miami Power Clean" || rows[1][6] != "4.2" {
		t.Errorf("first lead row: got %v", rows[1])
	}
}

func TestOutreachNotes(t *testing.T) {
	tests := []struct {
		name string
		b    *models.Business
		want []string
	}{
		{
			"solid business",
			&models.Business{Rating: 4.6, ReviewCount: 80, HasWebsite: true},
			[]string{"standard outreach"},
		},
		{
			"low rating",
			&models.Business{Rating: 3.2, ReviewCount: 40, HasWebsite: true},
			[]string{"below avg rating"},
		},
		{
			"no website and few reviews",
			&models.Business{Rating: 4.8, ReviewCount: 5},
			[]string{"no website", "low review count"},
		},
		{
			"unrated is not below average",
			&models.Business{Rating: 0, ReviewCount: 30, HasWebsite: true},
			[]string{"standard outreach"},
		},
	}

	for _, tt := range tests {
		got := outreachNotes(tt.b)
		for _, want := range tt.want {
			if !strings.Contains(got, want) {
				t.Errorf("%s: notes %q missing %q", tt.name, got, want)
			}
		}
		if len(tt.want) == 1 && tt.want[0] == "standard outreach" && got != "standard outreach" {
			t.Errorf("%s: got %q, want exactly %q", tt.name, got, "standard outreach")
		}
	}
}

func TestCSVWriterCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "leads.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter with missing parents: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file at %s: %v", path, err)
	}
}
