package serpapi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"niche-finder/config"
	"niche-finder/models"
	"niche-finder/utils"
)

const baseURL = "https://serpapi.com/search.json"

// Client collects business listings and reviews from the SerpAPI
// Google Maps engine.
type Client struct {
	cfg    *config.Config
	logger *utils.Logger
	http   *resty.Client
	retry  *utils.RetryConfig
	pool   *utils.WorkerPool
}

// New creates a ready-to-use SerpAPI collector.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		cfg:    cfg,
		logger: logger,
		http:   http,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Name identifies this collector in logs and artifacts.
func (c *Client) Name() string { return "serpapi" }

type searchResponse struct {
	LocalResults []localResult `json:"local_results"`
	Error        string        `json:"error"`
}

type localResult struct {
	PlaceID string   `json:"place_id"`
	Title   string   `json:"title"`
	Type    string   `json:"type"`
	Address string   `json:"address"`
	Phone   string   `json:"phone"`
	Website string   `json:"website"`
	Rating  *float64 `json:"rating"`
	Reviews *int     `json:"reviews"`
}

type reviewsResponse struct {
	Reviews []reviewResult `json:"reviews"`
	Error   string         `json:"error"`
}

type reviewResult struct {
	Rating  *float64 `json:"rating"`
	Snippet string   `json:"snippet"`
	ISODate string   `json:"iso_date"`
	User    struct {
		Name string `json:"name"`
	} `json:"user"`
}

// Collect searches the maps engine for the query and fans out review
// fetches per place, rate limited by the shared worker pool.
func (c *Client) Collect(query, location string, max int) ([]models.RawBusiness, error) {
	c.logger.Info("[serpapi] Searching %q in %q (max %d)", query, location, max)

	var search searchResponse
	err := c.retry.Do("serpapi-search", func() error {
		resp, err := c.http.R().
			SetQueryParams(map[string]string{
				"engine":  "google_maps",
				"type":    "search",
				"q":       fmt.Sprintf("%s in %s", query, location),
				"api_key": c.cfg.SerpAPIKey,
			}).
			SetResult(&search).
			Get("")
		if err != nil {
			return fmt.Errorf("serpapi: search request: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("serpapi: search returned %s", resp.Status())
		}
		if search.Error != "" {
			return fmt.Errorf("serpapi: %s", search.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := search.LocalResults
	if max > 0 && len(results) > max {
		results = results[:max]
	}

	records := make([]models.RawBusiness, len(results))
	for i, r := range results {
		records[i] = models.RawBusiness{
			PlaceID:     r.PlaceID,
			Name:        r.Title,
			Category:    orDefault(r.Type, query),
			Location:    location,
			Address:     r.Address,
			Phone:       r.Phone,
			Website:     r.Website,
			Rating:      r.Rating,
			ReviewCount: r.Reviews,
		}
	}

	// Review fetches are independent per place.
	for i := range records {
		i := i
		if records[i].PlaceID == "" {
			continue
		}
		c.pool.Submit(func() {
			reviews, err := c.fetchReviews(records[i].PlaceID)
			if err != nil {
				c.logger.Warn("[serpapi] Reviews for %q failed: %v", records[i].Name, err)
				return
			}
			records[i].Reviews = reviews
		})
	}
	c.pool.Wait()

	c.logger.Info("[serpapi] Collected %d record(s)", len(records))
	return records, nil
}

// fetchReviews pulls up to MaxReviews reviews for one place.
func (c *Client) fetchReviews(placeID string) ([]models.RawReview, error) {
	var out reviewsResponse
	err := c.retry.Do("serpapi-reviews-"+placeID, func() error {
		resp, err := c.http.R().
			SetQueryParams(map[string]string{
				"engine":   "google_maps_reviews",
				"place_id": placeID,
				"num":      strconv.Itoa(c.cfg.MaxReviews),
				"api_key":  c.cfg.SerpAPIKey,
			}).
			SetResult(&out).
			Get("")
		if err != nil {
			return fmt.Errorf("serpapi: reviews request: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("serpapi: reviews returned %s", resp.Status())
		}
		if out.Error != "" {
			return fmt.Errorf("serpapi: %s", out.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reviews := out.Reviews
	if len(reviews) > c.cfg.MaxReviews {
		reviews = reviews[:c.cfg.MaxReviews]
	}

	raw := make([]models.RawReview, 0, len(reviews))
	for _, r := range reviews {
		raw = append(raw, models.RawReview{
			Text:      r.Snippet,
			Rating:    r.Rating,
			Author:    r.User.Name,
			Timestamp: r.ISODate,
		})
	}
	return raw, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
