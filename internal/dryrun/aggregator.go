package dryrun

import (
	"foresight/internal/oracle"
	"foresight/internal/recommend"
)

// Decision actions.
const (
	ActionBuy  = "buy"
	ActionSkip = "skip"
)

// Decision is the dry-run record of what would have been traded for one
// subject. All ratio fields are on the internal [0,1] scale.
//
// Stake is the intended per-trade size; Funded says whether the summary's
// trade budget actually covered it. Only funded buys put capital at risk.
type Decision struct {
	SubjectID    string  `json:"subjectId"`
	Action       string  `json:"action"`
	Side         string  `json:"side,omitempty"` // "YES" or "NO" when buying
	CurrentPrice float64 `json:"currentPrice"`
	FairValue    float64 `json:"fairValue"`
	Edge         float64 `json:"edge"`
	Confidence   float64 `json:"confidence"`
	Stake        float64 `json:"stake"`
	Funded       bool    `json:"funded"`
}

// Derive turns a forecast into a dry-run decision with the given per-trade
// stake.
func Derive(f oracle.Forecast, currentPrice, stake float64) Decision {
	d := Decision{
		SubjectID:    f.SubjectID,
		Action:       ActionSkip,
		CurrentPrice: currentPrice,
		FairValue:    f.FairValue,
		Edge:         f.Edge,
		Confidence:   f.Confidence,
	}

	switch f.Recommendation {
	case recommend.BuyYes:
		d.Action = ActionBuy
		d.Side = "YES"
		d.Stake = stake
	case recommend.BuyNo:
		d.Action = ActionBuy
		d.Side = "NO"
		d.Stake = stake
	}

	return d
}

// Summary is the streaming reduction over an unordered sequence of
// decisions. Counts and sums are associative and commutative, so partial
// summaries computed by independent workers can be merged in any order.
//
// CapitalDeployed is the deliberate exception: the per-trade sizing policy
// funds the first MaxTrades eligible buys in arrival order, so the capped
// capital figure depends on processing order.
type Summary struct {
	TotalAnalyzed    int        `json:"totalAnalyzed"`
	RecommendedCount int        `json:"recommendedCount"`
	SkippedCount     int        `json:"skippedCount"`
	ConfidenceSum    float64    `json:"-"`
	EdgeSum          float64    `json:"-"`
	CapitalDeployed  float64    `json:"capitalDeployed"`
	FundedTrades     int        `json:"fundedTrades"`
	Decisions        []Decision `json:"decisions"`
}

// Add folds one decision into the summary, stamping its funded state.
// maxTrades <= 0 means unlimited.
func (s *Summary) Add(d Decision, maxTrades int) {
	s.TotalAnalyzed++
	s.ConfidenceSum += d.Confidence
	s.EdgeSum += d.Edge

	if d.Action == ActionBuy {
		s.RecommendedCount++
		d.Funded = maxTrades <= 0 || s.FundedTrades < maxTrades
		if d.Funded {
			s.CapitalDeployed += d.Stake
			s.FundedTrades++
		}
	} else {
		s.SkippedCount++
		d.Funded = false
	}

	s.Decisions = append(s.Decisions, d)
}

// Merge folds another partial summary into this one. Counts and sums merge
// commutatively; capital deployment replays the other summary's buys through
// this summary's remaining funding budget, preserving first-N semantics.
// Each replayed decision's funded state is restamped against the combined
// budget.
func (s *Summary) Merge(other Summary, maxTrades int) {
	s.TotalAnalyzed += other.TotalAnalyzed
	s.RecommendedCount += other.RecommendedCount
	s.SkippedCount += other.SkippedCount
	s.ConfidenceSum += other.ConfidenceSum
	s.EdgeSum += other.EdgeSum

	for _, d := range other.Decisions {
		if d.Action == ActionBuy {
			d.Funded = maxTrades <= 0 || s.FundedTrades < maxTrades
			if d.Funded {
				s.CapitalDeployed += d.Stake
				s.FundedTrades++
			}
		}
		s.Decisions = append(s.Decisions, d)
	}
}

// AvgConfidence returns the running mean confidence, 0 when empty.
func (s *Summary) AvgConfidence() float64 {
	if s.TotalAnalyzed == 0 {
		return 0
	}
	return s.ConfidenceSum / float64(s.TotalAnalyzed)
}

// AvgEdge returns the running mean edge, 0 when empty.
func (s *Summary) AvgEdge() float64 {
	if s.TotalAnalyzed == 0 {
		return 0
	}
	return s.EdgeSum / float64(s.TotalAnalyzed)
}

// Result is the JSON shape reported to callers.
type Result struct {
	RunID            string     `json:"runId,omitempty"`
	TotalAnalyzed    int        `json:"totalAnalyzed"`
	RecommendedCount int        `json:"recommendedCount"`
	SkippedCount     int        `json:"skippedCount"`
	AvgConfidence    float64    `json:"avgConfidence"`
	AvgEdge          float64    `json:"avgEdge"`
	CapitalDeployed  float64    `json:"capitalDeployed"`
	OracleErrors     int        `json:"oracleErrors"`
	Decisions        []Decision `json:"decisions"`
}

// Result snapshots the summary with derived means.
func (s *Summary) Result() Result {
	return Result{
		TotalAnalyzed:    s.TotalAnalyzed,
		RecommendedCount: s.RecommendedCount,
		SkippedCount:     s.SkippedCount,
		AvgConfidence:    s.AvgConfidence(),
		AvgEdge:          s.AvgEdge(),
		CapitalDeployed:  s.CapitalDeployed,
		Decisions:        s.Decisions,
	}
}
