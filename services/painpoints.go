package services

import (
	"sort"
	"strings"
	"unicode"

	"niche-finder/config"
	"niche-finder/models"
	"niche-finder/utils"
)

// PainPointMiner extracts recurring complaint themes from the
// negative-signal reviews of one niche. Mining is a pure function of
// the review set: identical input yields identical ranked output.
type PainPointMiner struct {
	cfg    config.AnalysisConfig
	logger *utils.Logger
}

// NewPainPointMiner validates the configuration and returns a miner.
func NewPainPointMiner(cfg config.AnalysisConfig, logger *utils.Logger) (*PainPointMiner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PainPointMiner{cfg: cfg, logger: logger}, nil
}

// theme accumulates evidence for one merged phrase key.
type theme struct {
	key       string
	tokens    []string // stemmed tokens of the key
	surface   map[string]int
	support   int
	ratingSum float64
	quotes    []string
}

// Mine returns the ranked pain points for the given reviews. Reviews
// above the negative-signal threshold contribute nothing; a niche with
// no negative reviews yields an empty list.
func (m *PainPointMiner) Mine(reviews []models.Review) []models.PainPoint {
	themes := make(map[string]*theme)

	for _, rev := range reviews {
		if rev.Rating > m.cfg.NegativeThreshold {
			continue
		}
		text := strings.TrimSpace(rev.Text)
		if text == "" {
			continue
		}

		phrases := candidatePhrases(tokenize(text))
		if len(phrases) == 0 {
			continue
		}

		// Each review supports a theme at most once, however often
		// the phrase repeats inside it.
		counted := make(map[string]bool)
		for _, p := range phrases {
			th, ok := themes[p.key]
			if !ok {
				th = &theme{key: p.key, tokens: p.stems, surface: make(map[string]int)}
				themes[p.key] = th
			}
			th.surface[p.surface]++
			if !counted[p.key] {
				counted[p.key] = true
				th.support++
				th.ratingSum += rev.Rating
				if len(th.quotes) < m.cfg.MaxQuotes {
					th.quotes = append(th.quotes, snippet(text))
				}
			}
		}
	}

	kept := m.prune(themes)

	points := make([]models.PainPoint, 0, len(kept))
	for _, th := range kept {
		meanGap := 5.0 - th.ratingSum/float64(th.support)
		points = append(points, models.PainPoint{
			Phrase:   representative(th.surface),
			Support:  th.support,
			Severity: float64(th.support) * meanGap,
			Quotes:   th.quotes,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Severity != points[j].Severity {
			return points[i].Severity > points[j].Severity
		}
		if points[i].Support != points[j].Support {
			return points[i].Support > points[j].Support
		}
		return points[i].Phrase < points[j].Phrase
	})

	if len(points) > m.cfg.TopPainPoints {
		points = points[:m.cfg.TopPainPoints]
	}
	return points
}

// prune drops themes below the support floor and unigrams that are
// already covered by an equally supported bigram, so themes surface as
// phrases rather than fragments.
func (m *PainPointMiner) prune(themes map[string]*theme) []*theme {
	var kept []*theme
	for _, th := range themes {
		if th.support < m.cfg.MinSupport {
			continue
		}
		if len(th.tokens) == 1 && subsumedByBigram(th, themes) {
			continue
		}
		kept = append(kept, th)
	}
	// Map iteration order is random; restore determinism before ranking.
	sort.Slice(kept, func(i, j int) bool { return kept[i].key < kept[j].key })
	return kept
}

func subsumedByBigram(uni *theme, themes map[string]*theme) bool {
	stem := uni.tokens[0]
	for _, th := range themes {
		if len(th.tokens) != 2 || th.support < uni.support {
			continue
		}
		if th.tokens[0] == stem || th.tokens[1] == stem {
			return true
		}
	}
	return false
}

// representative picks the most frequent surface form, ties broken
// lexically.
func representative(surface map[string]int) string {
	best, bestCount := "", -1
	for form, count := range surface {
		if count > bestCount || (count == bestCount && form < best) {
			best, bestCount = form, count
		}
	}
	return best
}

// phrase is one candidate n-gram extracted from a review.
type phrase struct {
	key     string   // merge key: stemmed, space-joined
	surface string   // as written (lowercased)
	stems   []string // stemmed tokens
}

// candidatePhrases emits the unigrams and bigrams worth counting.
func candidatePhrases(tokens []string) []phrase {
	var out []phrase

	for _, t := range tokens {
		if stopwords[t] || len(t) < 3 {
			continue
		}
		s := stemToken(t)
		out = append(out, phrase{key: s, surface: t, stems: []string{s}})
	}

	for i := 0; i+1 < len(tokens); i++ {
		a, b := tokens[i], tokens[i+1]
		if stopwords[a] || stopwords[b] {
			continue
		}
		sa, sb := stemToken(a), stemToken(b)
		out = append(out, phrase{
			key:     sa + " " + sb,
			surface: a + " " + b,
			stems:   []string{sa, sb},
		})
	}
	return out
}

// tokenize lowercases and splits on anything that is not a letter or
// digit, so "no-show" and "no show" merge.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stemToken applies a light suffix strip so "delays", "delayed" and
// "delay" land on one key. Deliberately crude: a real stemmer buys
// little on review-length text.
func stemToken(t string) string {
	switch {
	case strings.HasSuffix(t, "ing") && len(t) > 5:
		return t[:len(t)-3]
	case strings.HasSuffix(t, "ed") && len(t) > 4:
		return t[:len(t)-2]
	case strings.HasSuffix(t, "s") && !strings.HasSuffix(t, "ss") && len(t) > 3:
		return t[:len(t)-1]
	default:
		return t
	}
}

const maxSnippetLen = 140

// snippet bounds an example quote for the report.
func snippet(text string) string {
	if len(text) <= maxSnippetLen {
		return text
	}
	cut := text[:maxSnippetLen]
	if i := strings.LastIndexByte(cut, ' '); i > maxSnippetLen/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

// stopwords is the filter applied to candidate phrases. Negations stay
// out of the set: "no show" and "never called" are exactly the kind of
// phrase the miner exists to find.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "been": true, "but": true, "by": true, "for": true,
	"from": true, "had": true, "has": true, "have": true, "he": true,
	"her": true, "his": true, "i": true, "in": true, "is": true, "it": true,
	"its": true, "me": true, "my": true, "of": true, "on": true, "or": true,
	"our": true, "she": true, "so": true, "that": true, "the": true,
	"their": true, "them": true, "they": true, "this": true, "to": true,
	"us": true, "was": true, "we": true, "were": true, "with": true,
	"would": true, "you": true, "your": true, "get": true, "got": true,
	"very": true, "really": true, "just": true, "about": true, "out": true,
	"up": true, "all": true, "when": true, "than": true, "then": true,
	"there": true, "here": true, "will": true, "did": true, "do": true,
	"done": true, "what": true, "who": true, "how": true, "also": true,
	"after": true, "before": true, "because": true, "if": true, "into": true,
	"over": true, "again": true, "even": true, "only": true, "some": true,
	"such": true, "these": true, "those": true, "which": true, "while": true,
	"am": true, "him": true, "one": true, "two": true,
}
