package catalog

import (
	"database/sql"
	"fmt"

	"foresight/internal/market"
)

// MarketStore persists snapshots of the fetched market catalog.
type MarketStore struct {
	db *sql.DB
}

func NewMarketStore(db *sql.DB) *MarketStore {
	return &MarketStore{db: db}
}

// UpsertAll records the latest observation of every market. Existing rows
// keep their first_seen_at; prices and last_updated_at are refreshed.
func (s *MarketStore) UpsertAll(markets []market.Market) error {
	if s == nil || s.db == nil {
		return nil
	}

	for _, m := range markets {
		var closeDate any
		if m.CloseDate != nil {
			closeDate = m.CloseDate.UTC().Format("2006-01-02 15:04:05")
		}
		var volume, liquidity any
		if m.Volume != nil {
			volume = *m.Volume
		}
		if m.Liquidity != nil {
			liquidity = *m.Liquidity
		}

		_, err := s.db.Exec(`
			INSERT INTO markets (id, platform, title, description, yes_price, no_price, volume, close_date, liquidity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id, platform) DO UPDATE SET
				title = excluded.title,
				description = excluded.description,
				yes_price = excluded.yes_price,
				no_price = excluded.no_price,
				volume = excluded.volume,
				close_date = excluded.close_date,
				liquidity = excluded.liquidity,
				last_updated_at = datetime('now')`,
			m.ID, string(m.Platform), m.Title, m.Description,
			m.YesPrice, m.NoPrice, volume, closeDate, liquidity,
		)
		if err != nil {
			return fmt.Errorf("upserting market %s/%s: %w", m.Platform, m.ID, err)
		}
	}
	return nil
}
