package services

import (
	"time"

	"niche-finder/config"
	"niche-finder/models"
	"niche-finder/utils"
)

// Scorer computes the composite opportunity score for one niche. The
// weights and scale constants are validated once at construction and
// reused for every niche in the run.
type Scorer struct {
	cfg    config.AnalysisConfig
	logger *utils.Logger

	// now is swapped out in tests so the velocity window is stable.
	now func() time.Time
}

// NewScorer validates the configuration and returns a Scorer. An
// invalid configuration is a *config.ConfigError.
func NewScorer(cfg config.AnalysisConfig, logger *utils.Logger) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg, logger: logger, now: time.Now}, nil
}

// saturate maps x >= 0 into [0,1) with 1 - 1/(1 + x/k), so a single
// outlier record cannot dominate a sub-score.
func saturate(x, k float64) float64 {
	if x <= 0 {
		return 0
	}
	return x / (x + k)
}

// Score computes the opportunity score for a niche's businesses. A
// niche with zero businesses cannot be scored and returns
// ErrInsufficientData so the caller can tell "no data" from "bad
// opportunity".
func (s *Scorer) Score(niche models.NicheKey, businesses []*models.Business) (models.OpportunityScore, error) {
	if len(businesses) == 0 {
		return models.OpportunityScore{}, ErrInsufficientData
	}

	var (
		totalReviews  int
		recentReviews int
		negReviews    int
		datedReviews  int
		withWebsite   int
	)

	windowStart := s.now().AddDate(0, 0, -s.cfg.RecencyWindowDays)

	for _, b := range businesses {
		count := b.ReviewCount
		if count < len(b.Reviews) {
			count = len(b.Reviews)
		}
		totalReviews += count

		if b.HasWebsite {
			withWebsite++
		}

		for _, r := range b.Reviews {
			if r.Rating <= s.cfg.NegativeThreshold {
				negReviews++
			}
			if r.HasDate() {
				datedReviews++
				if r.Date.After(windowStart) {
					recentReviews++
				}
			}
		}
	}

	sub := models.SubScores{
		Volume: saturate(float64(totalReviews), s.cfg.VolumeScale),
	}

	// Velocity: recent reviews per day over the recency window. Reviews
	// without a resolvable timestamp are unknown-age and excluded.
	rate := float64(recentReviews) / float64(s.cfg.RecencyWindowDays)
	sub.Velocity = saturate(rate, s.cfg.VelocityScale)

	// Sentiment gap: share of attached reviews at or below the
	// negative-signal threshold.
	attached := 0
	for _, b := range businesses {
		attached += len(b.Reviews)
	}
	if attached > 0 {
		sub.SentimentGap = saturate(float64(negReviews)/float64(attached), s.cfg.SentimentScale)
	}

	// Saturation, inverted: a business without a website is a quarter
	// of a competitor, since it is far easier to displace.
	effective := float64(withWebsite) + 0.25*float64(len(businesses)-withWebsite)
	sub.Saturation = 1 - saturate(effective, s.cfg.SaturationScale)

	w := s.cfg.Weights
	total := w.Volume*sub.Volume +
		w.Velocity*sub.Velocity +
		w.SentimentGap*sub.SentimentGap +
		w.Saturation*sub.Saturation

	s.logger.Debug("[scorer] %s - vol=%.3f vel=%.3f gap=%.3f sat=%.3f total=%.3f",
		niche, sub.Volume, sub.Velocity, sub.SentimentGap, sub.Saturation, total)

	return models.OpportunityScore{Niche: niche, Sub: sub, Total: total}, nil
}
