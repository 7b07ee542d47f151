package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"foresight/internal/config"
	"foresight/internal/db"
	"foresight/internal/dryrun"
	"foresight/internal/matcher"
	"foresight/internal/metrics"
	"foresight/internal/oracle"
	"foresight/internal/server"
	"foresight/internal/session"
	"foresight/internal/venue"
)

func main() {
	// Parse CLI flags.
	serveMode := flag.Bool("serve", false, "Run the HTTP API server")
	dryRunMode := flag.Bool("dry-run", false, "Run one dry-run pass and exit")
	sessionMode := flag.Bool("session", false, "Run a dry-run pass, then monitor the paper book until a terminal condition")
	maxTrades := flag.Int("max-trades", 0, "Cap on funded trades for this run (0 = configured default)")
	flag.Parse()

	// Local secrets, if present.
	_ = godotenv.Load()

	// Load configuration.
	configPath := "config.toml"
	if p := os.Getenv("FORESIGHT_CONFIG"); p != "" {
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.General.LogLevel),
	})))

	slog.Info("foresight starting")

	if *dryRunMode || *sessionMode {
		if err := cfg.ValidateOracle(); err != nil {
			slog.Error("oracle configuration invalid", "error", err)
			os.Exit(1)
		}
	}

	// Initialize database.
	database, err := db.Open(cfg.General.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database initialized", "path", cfg.General.DBPath)

	// Wire the pipeline.
	rec := metrics.New()
	cache := venue.NewCache(cfg.Venues.CacheTTL.Duration)
	venues := venue.NewService(cache, rec,
		venue.NewKalshiClient(cfg.Venues.KalshiURL, cfg.Venues.FetchTimeout.Duration),
		venue.NewPolymarketClient(cfg.Venues.PolymarketURL, cfg.Venues.FetchTimeout.Duration),
	)
	oc := oracle.NewClient(oracle.NewOpenAIClient(cfg.Oracle), cfg.Oracle, cfg.Trading, rec)
	runner := dryrun.NewRunner(venues, oc, database, cfg.Venues, cfg.Trading)
	m := matcher.New(cfg.Matcher, rec)

	// Graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	switch {
	case *dryRunMode:
		if _, err := runner.Run(ctx, *maxTrades); err != nil {
			slog.Error("dry run failed", "error", err)
			os.Exit(1)
		}

	case *sessionMode:
		if err := runSession(ctx, cfg, runner, venues, database, *maxTrades); err != nil && err != context.Canceled {
			slog.Error("session failed", "error", err)
			os.Exit(1)
		}

	case *serveMode:
		srv := server.New(venues, m, oc, runner, database, cfg.Venues)
		go func() {
			<-ctx.Done()
			if err := srv.Shutdown(context.Background()); err != nil {
				slog.Error("server shutdown error", "error", err)
			}
		}()
		if err := srv.Start(cfg.Server.Port); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}

	slog.Info("foresight stopped")
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// runSession executes one dry run, opens paper positions from its funded
// decisions, and monitors the book's mark-to-market ROI until the session
// terminates.
func runSession(ctx context.Context, cfg *config.Config, runner *dryrun.Runner, venues *venue.Service, database *sql.DB, maxTrades int) error {
	result, err := runner.Run(ctx, maxTrades)
	if err != nil {
		return err
	}

	tracker := session.NewTracker(result.Decisions)
	if tracker.Deployed() == 0 {
		slog.Info("no funded trades; nothing to monitor")
		return nil
	}

	roi := func() float64 {
		markets, _ := venues.FetchAll(ctx, "both", cfg.Venues.FetchLimit)
		prices := make(map[string]float64, len(markets))
		for _, m := range markets {
			prices[m.ID] = m.YesPrice
		}
		tracker.Mark(prices)
		return tracker.ROI()
	}

	monitor := session.NewMonitor(cfg.Session, session.SystemClock{}, roi, database)
	_, err = monitor.Run(ctx)
	return err
}
