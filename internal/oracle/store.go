package oracle

import (
	"database/sql"
	"fmt"
)

// Store persists normalized forecasts.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveAll appends one row per forecast.
func (s *Store) SaveAll(forecasts []Forecast) error {
	if s == nil || s.db == nil {
		return nil
	}

	for _, f := range forecasts {
		var ev any
		if f.ExpectedValue != nil {
			ev = *f.ExpectedValue
		}
		_, err := s.db.Exec(`
			INSERT INTO forecasts (subject_id, probability, confidence, reasoning, fair_value, edge, recommendation, expected_value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			f.SubjectID, f.Probability, f.Confidence, f.Reasoning,
			f.FairValue, f.Edge, string(f.Recommendation), ev,
		)
		if err != nil {
			return fmt.Errorf("saving forecast for %s: %w", f.SubjectID, err)
		}
	}
	return nil
}
