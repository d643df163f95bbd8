package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"niche-finder/config"
	"niche-finder/models"
	"niche-finder/utils"
)

// Aggregator partitions normalized records by (category, location),
// runs the miner and scorer per partition, and assembles the ranked
// report. Niches are independent, so they are fanned out across a
// worker pool; a failure scoring one niche becomes a recorded skip and
// never aborts the rest.
type Aggregator struct {
	cfg            config.AnalysisConfig
	logger         *utils.Logger
	miner          *PainPointMiner
	scorer         *Scorer
	maxConcurrency int
}

// NewAggregator builds the full analysis engine. Configuration is
// validated here, before any data is touched.
func NewAggregator(cfg config.AnalysisConfig, maxConcurrency int, logger *utils.Logger) (*Aggregator, error) {
	miner, err := NewPainPointMiner(cfg, logger)
	if err != nil {
		return nil, err
	}
	scorer, err := NewScorer(cfg, logger)
	if err != nil {
		return nil, err
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Aggregator{
		cfg:            cfg,
		logger:         logger,
		miner:          miner,
		scorer:         scorer,
		maxConcurrency: maxConcurrency,
	}, nil
}

// nicheOutcome is the per-partition result produced by one worker.
type nicheOutcome struct {
	result  *models.NicheResult
	skipped *models.SkippedNiche
}

// Analyze runs the full engine over one normalization pass and returns
// the report. It always returns a report: empty input yields a report
// with zero niches, and per-niche failures land in the skip list.
func (a *Aggregator) Analyze(norm *NormalizeResult) *models.OpportunityReport {
	groups := make(map[models.NicheKey][]*models.Business)
	for _, b := range norm.Records {
		key := models.NicheFor(b)
		groups[key] = append(groups[key], b)
	}

	keys := make([]models.NicheKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	a.logger.Info("[aggregator] Analyzing %d niche(s) across %d record(s)",
		len(keys), len(norm.Records))

	// One slot per niche; workers never share state.
	outcomes := make([]nicheOutcome, len(keys))
	pool := utils.NewWorkerPool(a.maxConcurrency, 0)
	var mu sync.Mutex

	for i, key := range keys {
		i, key := i, key
		pool.Submit(func() {
			outcome := a.analyzeNiche(key, groups[key])
			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()
		})
	}
	pool.Wait()

	report := &models.OpportunityReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
		Discarded:   norm.Discarded,
		Flagged:     norm.Flagged,
	}
	for _, o := range outcomes {
		if o.result != nil {
			report.Niches = append(report.Niches, *o.result)
		}
		if o.skipped != nil {
			report.Skipped = append(report.Skipped, *o.skipped)
		}
	}

	// Rank: total score descending, niche key lexical order on ties so
	// identical input always produces identical ranking.
	sort.SliceStable(report.Niches, func(i, j int) bool {
		si, sj := report.Niches[i].Score.Total, report.Niches[j].Score.Total
		if si != sj {
			return si > sj
		}
		return lessKey(report.Niches[i].Niche, report.Niches[j].Niche)
	})
	for i := range report.Niches {
		report.Niches[i].Score.Rank = i + 1
	}

	a.logger.Info("[aggregator] Report ready - %d scored, %d skipped",
		len(report.Niches), len(report.Skipped))
	return report
}

// analyzeNiche scores and mines one partition. Errors are converted to
// skips here so the batch always completes.
func (a *Aggregator) analyzeNiche(key models.NicheKey, businesses []*models.Business) nicheOutcome {
	score, err := a.scorer.Score(key, businesses)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, ErrInsufficientData) {
			reason = "no businesses to score"
		}
		a.logger.Warn("[aggregator] Skipping %s: %s", key, reason)
		return nicheOutcome{skipped: &models.SkippedNiche{Niche: key, Reason: reason}}
	}

	var reviews []models.Review
	for _, b := range businesses {
		reviews = append(reviews, b.Reviews...)
	}
	points := a.miner.Mine(reviews)

	a.logger.Debug("[aggregator] %s - total %.3f, %d pain point(s)", key, score.Total, len(points))
	return nicheOutcome{result: &models.NicheResult{
		Niche:      key,
		Score:      score,
		PainPoints: points,
		Businesses: businesses,
	}}
}

func lessKey(a, b models.NicheKey) bool {
	if a.Category != b.Category {
		return a.Category < b.Category
	}
	return a.Location < b.Location
}

// Summarize renders a one-line outcome for logs and CLI output.
func Summarize(r *models.OpportunityReport) string {
	if top := r.Top(); top != nil {
		return fmt.Sprintf("%d niche(s) scored, best: %s (%.2f)",
			len(r.Niches), top.Niche, top.Score.Total)
	}
	return fmt.Sprintf("no niches scored (%d skipped)", len(r.Skipped))
}
