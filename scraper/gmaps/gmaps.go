// Package gmaps collects business listings straight from Google Maps
// with a headless browser. It is the fallback collector for users
// without a SerpAPI key; expect it to be slower and more brittle than
// the API client.
package gmaps

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"niche-finder/config"
	"niche-finder/models"
	"niche-finder/utils"
)

const searchURL = "https://www.google.com/maps/search/"

// Scraper drives a headless Chrome session over Google Maps search
// results and place pages.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	pool    *utils.WorkerPool
	visited *utils.KeySet
	retry   *utils.RetryConfig

	mu      sync.Mutex
	records []models.RawBusiness
}

// New creates a ready-to-use Google Maps Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		pool:    utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		visited: utils.NewKeySet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Name identifies this collector in logs and artifacts.
func (s *Scraper) Name() string { return "gmaps" }

// cardData is what the search-results extraction script returns per
// listing card.
type cardData struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Rating      string `json:"rating"`
	ReviewCount string `json:"reviewCount"`
	Category    string `json:"category"`
	Address     string `json:"address"`
}

// reviewData is one review scraped from a place page.
type reviewData struct {
	Rating string `json:"rating"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

// Collect runs a maps search and enriches each result from its place
// page (website, review snippets).
func (s *Scraper) Collect(query, location string, max int) ([]models.RawBusiness, error) {
	s.logger.Info("[gmaps] Scraping %q in %q (max %d)", query, location, max)

	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Info("[gmaps] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "en-US"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	silentCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelSilent()
	allocCtx = silentCtx

	cards, err := s.scrapeSearch(allocCtx, query, location, max)
	if err != nil {
		return nil, err
	}

	for _, c := range cards {
		if c.URL == "" || !s.visited.Add(c.URL) {
			continue
		}

		record := models.RawBusiness{
			Name:     c.Name,
			Category: firstNonEmpty(c.Category, query),
			Location: location,
			Address:  c.Address,
			Rating:   parseFloatPtr(c.Rating),
		}
		if n, err := strconv.Atoi(strings.Trim(c.ReviewCount, "()")); err == nil {
			record.ReviewCount = &n
		}

		s.mu.Lock()
		s.records = append(s.records, record)
		idx := len(s.records) - 1
		s.mu.Unlock()

		placeURL := c.URL
		s.pool.Submit(func() {
			website, reviews, err := s.scrapePlace(allocCtx, placeURL)
			if err != nil {
				s.logger.Warn("[gmaps] Place page failed for %s: %v", placeURL, err)
				return
			}
			s.mu.Lock()
			s.records[idx].Website = website
			s.records[idx].Reviews = reviews
			s.mu.Unlock()
		})
	}
	s.pool.Wait()

	s.logger.Info("[gmaps] Scrape complete - %d record(s)", len(s.records))
	return s.records, nil
}

// scrapeSearch loads the results feed and extracts listing cards.
func (s *Scraper) scrapeSearch(allocCtx context.Context, query, location string, max int) ([]cardData, error) {
	target := searchURL + url.PathEscape(query+" in "+location)

	var cards []cardData
	err := s.retry.Do("gmaps-search", func() error {
		ctx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		ctx, cancelTimeout := context.WithTimeout(ctx, 90*time.Second)
		defer cancelTimeout()

		return chromedp.Run(ctx,
			chromedp.Navigate(target),
			chromedp.Sleep(6*time.Second),

			// Scroll the results feed so lazy cards load.
			chromedp.Evaluate(`
				(function() {
					var feed = document.querySelector('div[role="feed"]');
					if (feed) feed.scrollTo(0, feed.scrollHeight);
				})()
			`, nil),
			chromedp.Sleep(3*time.Second),

			chromedp.Evaluate(`
				(function() {
					var results = [];
					var limit = `+strconv.Itoa(max)+`;
					var links = document.querySelectorAll('a[href*="/maps/place/"]');
					var seen = {};
					for (var i = 0; i < links.length && results.length < limit; i++) {
						var link = links[i];
						var href = link.href;
						if (!href || seen[href]) continue;
						seen[href] = true;

						var card = link.closest('div[role="article"]') || link.parentElement;
						var name = link.getAttribute('aria-label') ||
						           (card && card.querySelector('div.fontHeadlineSmall') ?
						            card.querySelector('div.fontHeadlineSmall').innerText : '');

						var rating = '', reviewCount = '';
						var ratingEl = card && card.querySelector('span[role="img"]');
						if (ratingEl) {
							var label = ratingEl.getAttribute('aria-label') || '';
							var rm = label.match(/([0-5]\.\d)/);
							if (rm) rating = rm[1];
							var cm = label.match(/([\d,]+)\s+review/i);
							if (cm) reviewCount = cm[1].replace(/,/g, '');
						}

						var category = '', address = '';
						if (card) {
							var lines = card.innerText.split('\n')
								.map(function(l){ return l.trim(); }).filter(Boolean);
							for (var j = 0; j < lines.length; j++) {
								var parts = lines[j].split('·');
								if (parts.length >= 2 && !category) {
									category = parts[0].trim();
									address = parts[parts.length - 1].trim();
								}
							}
						}

						results.push({
							name: name, url: href, rating: rating,
							reviewCount: reviewCount, category: category, address: address
						});
					}
					return results;
				})()
			`, &cards),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("gmaps: search scrape: %w", err)
	}

	s.logger.Debug("[gmaps] Search feed yielded %d card(s)", len(cards))
	return cards, nil
}

// scrapePlace opens one place page and pulls the website link plus the
// visible review snippets. Review timestamps on Maps are relative
// ("2 months ago"), so they are left blank and treated as unknown age.
func (s *Scraper) scrapePlace(allocCtx context.Context, placeURL string) (string, []models.RawReview, error) {
	var website string
	var reviews []reviewData

	err := s.retry.Do("gmaps-place", func() error {
		ctx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
		defer cancelTimeout()

		return chromedp.Run(ctx,
			chromedp.Navigate(placeURL),
			chromedp.Sleep(5*time.Second),

			chromedp.Evaluate(`
				(function() {
					var a = document.querySelector('a[data-item-id="authority"]') ||
					        document.querySelector('a[aria-label*="Website"]');
					return a ? a.href : '';
				})()
			`, &website),

			chromedp.Evaluate(`
				(function() {
					var out = [];
					var blocks = document.querySelectorAll('div[data-review-id]');
					var limit = `+strconv.Itoa(s.cfg.MaxReviews)+`;
					for (var i = 0; i < blocks.length && out.length < limit; i++) {
						var b = blocks[i];
						var rating = '';
						var star = b.querySelector('span[role="img"]');
						if (star) {
							var label = star.getAttribute('aria-label') || '';
							var m = label.match(/([0-5])/);
							if (m) rating = m[1];
						}
						var textEl = b.querySelector('span.wiI7pd') || b.querySelector('span[lang]');
						var authorEl = b.querySelector('div.d4r55') || b.querySelector('button[aria-label]');
						out.push({
							rating: rating,
							text: textEl ? textEl.innerText.trim() : '',
							author: authorEl ? authorEl.innerText.trim() : ''
						});
					}
					return out;
				})()
			`, &reviews),
		)
	})
	if err != nil {
		return "", nil, fmt.Errorf("gmaps: place scrape: %w", err)
	}

	raw := make([]models.RawReview, 0, len(reviews))
	for _, r := range reviews {
		raw = append(raw, models.RawReview{
			Text:   r.Text,
			Rating: parseFloatPtr(r.Rating),
			Author: r.Author,
		})
	}
	return website, raw, nil
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
