package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"niche-finder/models"
)

// PostgresWriter persists normalized businesses and their reviews as
// the lead database.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS businesses (
			place_id     TEXT PRIMARY KEY,
			name         TEXT          NOT NULL,
			category     TEXT          NOT NULL DEFAULT '',
			location     TEXT          NOT NULL DEFAULT '',
			address      TEXT          NOT NULL DEFAULT '',
			phone        TEXT          NOT NULL DEFAULT '',
			website      TEXT          NOT NULL DEFAULT '',
			rating       NUMERIC(4,2)  NOT NULL DEFAULT 0,
			review_count INTEGER       NOT NULL DEFAULT 0,
			low_confidence BOOLEAN     NOT NULL DEFAULT FALSE,
			first_seen   TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			last_seen    TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS reviews (
			id        SERIAL PRIMARY KEY,
			place_id  TEXT NOT NULL REFERENCES businesses(place_id) ON DELETE CASCADE,
			rating    NUMERIC(4,2) NOT NULL DEFAULT 0,
			text      TEXT NOT NULL DEFAULT '',
			author    TEXT NOT NULL DEFAULT '',
			review_date TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS idx_businesses_category ON businesses(category);
		CREATE INDEX IF NOT EXISTS idx_businesses_location ON businesses(location);
		CREATE INDEX IF NOT EXISTS idx_businesses_rating   ON businesses(rating);
		CREATE INDEX IF NOT EXISTS idx_reviews_place       ON reviews(place_id);
	`)
	return err
}

// Write upserts all businesses and replaces their stored reviews.
func (pw *PostgresWriter) Write(businesses []*models.Business) error {
	if len(businesses) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(businesses); i += batchSize {
		end := i + batchSize
		if end > len(businesses) {
			end = len(businesses)
		}
		if err := pw.insertBatch(businesses[i:end]); err != nil {
			return err
		}
	}

	for _, b := range businesses {
		if err := pw.replaceReviews(b); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Business) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*10)

	for idx, b := range batch {
		base := idx * 10
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))
		valueArgs = append(valueArgs,
			b.PlaceID, b.Name, b.Category, b.Location, b.Address,
			b.Phone, b.Website, b.Rating, b.ReviewCount, b.LowConfidence)
	}

	query := fmt.Sprintf(`
		INSERT INTO businesses
			(place_id, name, category, location, address, phone, website, rating, review_count, low_confidence)
		VALUES %s
		ON CONFLICT (place_id) DO UPDATE SET
			name = EXCLUDED.name,
			rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count,
			website = EXCLUDED.website,
			low_confidence = EXCLUDED.low_confidence,
			last_seen = NOW()
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	if err != nil {
		return fmt.Errorf("postgres: insert businesses: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) replaceReviews(b *models.Business) error {
	if _, err := pw.db.Exec("DELETE FROM reviews WHERE place_id = $1", b.PlaceID); err != nil {
		return fmt.Errorf("postgres: clear reviews: %w", err)
	}
	for _, r := range b.Reviews {
		var date interface{}
		if r.HasDate() {
			date = r.Date
		}
		_, err := pw.db.Exec(`
			INSERT INTO reviews (place_id, rating, text, author, review_date)
			VALUES ($1, $2, $3, $4, $5)
		`, b.PlaceID, r.Rating, r.Text, r.Author, date)
		if err != nil {
			return fmt.Errorf("postgres: insert review: %w", err)
		}
	}
	return nil
}

// FetchByNiche retrieves stored businesses for one (category, location)
// pair, reviews included, for re-analysis and lead export.
func (pw *PostgresWriter) FetchByNiche(category, location string) ([]*models.Business, error) {
	rows, err := pw.db.Query(`
		SELECT place_id, name, category, location, address, phone, website,
		       rating, review_count, low_confidence, first_seen, last_seen
		FROM businesses
		WHERE category = $1 AND location = $2
		ORDER BY place_id
	`, category, location)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch by niche: %w", err)
	}
	defer rows.Close()

	var businesses []*models.Business
	for rows.Next() {
		b := &models.Business{}
		if err := rows.Scan(
			&b.PlaceID, &b.Name, &b.Category, &b.Location, &b.Address,
			&b.Phone, &b.Website, &b.Rating, &b.ReviewCount,
			&b.LowConfidence, &b.FirstSeen, &b.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan business: %w", err)
		}
		b.HasWebsite = b.Website != ""
		businesses = append(businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range businesses {
		if err := pw.loadReviews(b); err != nil {
			return nil, err
		}
	}
	return businesses, nil
}

func (pw *PostgresWriter) loadReviews(b *models.Business) error {
	rows, err := pw.db.Query(`
		SELECT rating, text, author, review_date
		FROM reviews
		WHERE place_id = $1
		ORDER BY id
	`, b.PlaceID)
	if err != nil {
		return fmt.Errorf("postgres: fetch reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.Review
		var date sql.NullTime
		if err := rows.Scan(&r.Rating, &r.Text, &r.Author, &date); err != nil {
			return fmt.Errorf("postgres: scan review: %w", err)
		}
		if date.Valid {
			r.Date = date.Time
		}
		b.Reviews = append(b.Reviews, r)
	}
	return rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
