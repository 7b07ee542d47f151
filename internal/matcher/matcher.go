package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"foresight/internal/catalog"
	"foresight/internal/config"
	"foresight/internal/market"
	"foresight/internal/metrics"
)

// Recommendation tags derived from similarity bands.
const (
	TagStrongOpportunity = "Strong Opportunity"
	TagInvestigate       = "Investigate Further"
	TagRelated           = "Related Market"
	TagUnique            = "Unique Market"
)

// MatchResult pairs one condition with its best-matching market, or none.
// Exactly one result is produced per input condition.
type MatchResult struct {
	Condition         catalog.Condition `json:"condition"`
	Market            *market.Market    `json:"market,omitempty"`
	Similarity        float64           `json:"similarity"`
	AnalysisText      string            `json:"analysisText"`
	RecommendationTag string            `json:"recommendationTag"`
}

// Matcher pairs internal conditions to external markets by lexical overlap.
// Pure and deterministic: no network, no mutable shared state.
type Matcher struct {
	cfg config.MatcherConfig
	rec *metrics.Recorder
}

func New(cfg config.MatcherConfig, rec *metrics.Recorder) *Matcher {
	return &Matcher{cfg: cfg, rec: rec}
}

// Tokenize lower-cases the text, splits on whitespace, and discards tokens
// with length at or below minLen.
func Tokenize(text string, minLen int) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if len(tok) > minLen {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

// Jaccard returns |A∩B| / |A∪B|, defined as 0 when the union is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Match finds the best-matching market for one condition. The scan keeps the
// argmax by similarity; ties keep the first-encountered candidate, stable
// over input iteration order. Below-threshold matches are discarded.
func (m *Matcher) Match(cond catalog.Condition, markets []market.Market) MatchResult {
	condTokens := Tokenize(cond.Question, m.cfg.MinTokenLength)

	var best *market.Market
	bestSim := 0.0
	for i := range markets {
		sim := Jaccard(condTokens, Tokenize(markets[i].Title, m.cfg.MinTokenLength))
		if sim > bestSim {
			bestSim = sim
			best = &markets[i]
		}
	}

	if best == nil || bestSim < m.cfg.SimilarityThreshold {
		return MatchResult{
			Condition:         cond,
			Similarity:        0,
			AnalysisText:      fmt.Sprintf("No tradable market resembles %q; the proposition appears unique.", cond.Question),
			RecommendationTag: TagUnique,
		}
	}

	matched := *best
	result := MatchResult{
		Condition:  cond,
		Market:     &matched,
		Similarity: bestSim,
	}

	switch {
	case bestSim > 0.7:
		result.RecommendationTag = TagStrongOpportunity
		result.AnalysisText = fmt.Sprintf("Strong lexical match with %q on %s; the two propositions very likely describe the same event.", matched.Title, matched.Platform)
	case bestSim > 0.5:
		result.RecommendationTag = TagInvestigate
		result.AnalysisText = fmt.Sprintf("Substantial overlap with %q on %s; worth manual review before trading.", matched.Title, matched.Platform)
	default:
		result.RecommendationTag = TagRelated
		result.AnalysisText = fmt.Sprintf("Partial overlap with %q on %s; the markets are related but may resolve differently.", matched.Title, matched.Platform)
	}

	return result
}

// MatchAll runs the per-condition scan for every condition. Scans run in
// parallel: each worker reads only the shared immutable inputs and writes
// only its own result slot. Output ordering is matched results first by
// descending similarity, then unmatched results.
func (m *Matcher) MatchAll(ctx context.Context, conditions []catalog.Condition, markets []market.Market) ([]MatchResult, error) {
	results := make([]MatchResult, len(conditions))

	g, ctx := errgroup.WithContext(ctx)
	for i := range conditions {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = m.Match(conditions[i], markets)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(a, b int) bool {
		am, bm := results[a].Market != nil, results[b].Market != nil
		if am != bm {
			return am
		}
		return results[a].Similarity > results[b].Similarity
	})

	m.rec.RecordMatchRun()
	matched := 0
	for _, r := range results {
		if r.Market != nil {
			matched++
		}
	}
	slog.Info("matching pass complete",
		"conditions", len(conditions), "markets", len(markets), "matched", matched)

	return results, nil
}
