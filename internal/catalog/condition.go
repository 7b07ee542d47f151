package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// Condition is an internally tracked forecastable proposition awaiting
// comparison against external markets. Immutable for the duration of one
// matching pass.
type Condition struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	ShortName string    `json:"shortName,omitempty"`
	EndTime   time.Time `json:"endTime"`
}

// Store persists the condition catalog in SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Put inserts or replaces a condition.
func (s *Store) Put(c Condition) error {
	_, err := s.db.Exec(`
		INSERT INTO conditions (id, question, short_name, end_time)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			question = excluded.question,
			short_name = excluded.short_name,
			end_time = excluded.end_time`,
		c.ID, c.Question, c.ShortName, c.EndTime.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upserting condition %s: %w", c.ID, err)
	}
	return nil
}

// List returns all conditions ordered by end time.
func (s *Store) List() ([]Condition, error) {
	rows, err := s.db.Query(`
		SELECT id, question, COALESCE(short_name, ''), end_time
		FROM conditions ORDER BY end_time`)
	if err != nil {
		return nil, fmt.Errorf("listing conditions: %w", err)
	}
	defer rows.Close()

	var conditions []Condition
	for rows.Next() {
		var c Condition
		var endMillis int64
		if err := rows.Scan(&c.ID, &c.Question, &c.ShortName, &endMillis); err != nil {
			return nil, fmt.Errorf("scanning condition: %w", err)
		}
		c.EndTime = time.UnixMilli(endMillis)
		conditions = append(conditions, c)
	}
	return conditions, rows.Err()
}
