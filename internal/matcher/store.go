package matcher

import (
	"database/sql"
	"fmt"
)

// Store persists the outcome of matching passes.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save appends one row per match result.
func (s *Store) Save(results []MatchResult) error {
	if s == nil || s.db == nil {
		return nil
	}

	for _, r := range results {
		var marketID, marketPlatform any
		if r.Market != nil {
			marketID = r.Market.ID
			marketPlatform = string(r.Market.Platform)
		}

		_, err := s.db.Exec(`
			INSERT INTO match_results (condition_id, market_id, market_platform, similarity, analysis, tag)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.Condition.ID, marketID, marketPlatform,
			r.Similarity, r.AnalysisText, r.RecommendationTag,
		)
		if err != nil {
			return fmt.Errorf("saving match result for %s: %w", r.Condition.ID, err)
		}
	}
	return nil
}
