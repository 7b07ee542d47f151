package dryrun

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"foresight/internal/catalog"
	"foresight/internal/config"
	"foresight/internal/oracle"
	"foresight/internal/venue"
)

// Runner drives a full dry run: fetch catalogs, forecast every market, and
// reduce the resulting decisions into a summary. No orders are ever placed.
type Runner struct {
	venues    *venue.Service
	oracle    *oracle.Client
	db        *sql.DB
	markets   *catalog.MarketStore
	forecasts *oracle.Store
	venCfg    config.VenuesConfig
	trading   config.TradingConfig
}

func NewRunner(venues *venue.Service, oc *oracle.Client, db *sql.DB, venCfg config.VenuesConfig, trading config.TradingConfig) *Runner {
	return &Runner{
		venues:    venues,
		oracle:    oc,
		db:        db,
		markets:   catalog.NewMarketStore(db),
		forecasts: oracle.NewStore(db),
		venCfg:    venCfg,
		trading:   trading,
	}
}

// Run executes one dry run. maxTrades <= 0 falls back to the configured
// default.
func (r *Runner) Run(ctx context.Context, maxTrades int) (*Result, error) {
	if maxTrades <= 0 {
		maxTrades = r.trading.MaxTrades
	}
	runID := uuid.NewString()
	startedAt := time.Now()

	slog.Info("dry run starting", "run_id", runID, "max_trades", maxTrades)

	markets, fetchErrs := r.venues.FetchAll(ctx, "both", r.venCfg.FetchLimit)
	if len(markets) == 0 {
		return nil, fmt.Errorf("no markets available from any venue (%d venue errors)", len(fetchErrs))
	}
	if err := r.markets.UpsertAll(markets); err != nil {
		slog.Error("failed to persist market snapshot", "run_id", runID, "error", err)
	}

	subjects := make([]oracle.Subject, 0, len(markets))
	priceByID := make(map[string]float64, len(markets))
	for _, m := range markets {
		subjects = append(subjects, oracle.SubjectFromMarket(m))
		priceByID[m.ID] = m.YesPrice
	}

	forecasts, oracleErrs := r.oracle.ForecastBatch(ctx, subjects)
	if err := r.forecasts.SaveAll(forecasts); err != nil {
		slog.Error("failed to persist forecasts", "run_id", runID, "error", err)
	}

	var summary Summary
	for _, f := range forecasts {
		d := Derive(f, priceByID[f.SubjectID], r.trading.StakePerTrade)
		summary.Add(d, maxTrades)
	}

	result := summary.Result()
	result.RunID = runID
	result.OracleErrors = len(oracleErrs)

	if err := r.record(runID, maxTrades, &summary, len(oracleErrs), startedAt); err != nil {
		slog.Error("failed to record dry run", "run_id", runID, "error", err)
	}

	slog.Info("=== DRY RUN RESULTS ===",
		"run_id", runID,
		"total_analyzed", result.TotalAnalyzed,
		"recommended", result.RecommendedCount,
		"skipped", result.SkippedCount,
		"avg_confidence", result.AvgConfidence,
		"avg_edge", result.AvgEdge,
		"capital_deployed", result.CapitalDeployed,
		"oracle_errors", result.OracleErrors,
	)

	return &result, nil
}

func (r *Runner) record(runID string, maxTrades int, s *Summary, oracleErrs int, startedAt time.Time) error {
	if r.db == nil {
		return nil
	}

	_, err := r.db.Exec(`
		INSERT INTO dry_runs (id, max_trades, total_analyzed, recommended, skipped,
			avg_confidence, avg_edge, capital_deployed, oracle_errors, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, maxTrades, s.TotalAnalyzed, s.RecommendedCount, s.SkippedCount,
		s.AvgConfidence(), s.AvgEdge(), s.CapitalDeployed, oracleErrs,
		startedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("inserting dry run: %w", err)
	}

	for _, d := range s.Decisions {
		_, err := r.db.Exec(`
			INSERT INTO dry_run_decisions (run_id, subject_id, action, side,
				current_price, fair_value, edge, confidence, stake, funded)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, d.SubjectID, d.Action, d.Side,
			d.CurrentPrice, d.FairValue, d.Edge, d.Confidence, d.Stake, d.Funded,
		)
		if err != nil {
			return fmt.Errorf("inserting decision for %s: %w", d.SubjectID, err)
		}
	}

	return nil
}
