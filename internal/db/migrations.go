package db

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS markets (
    id TEXT NOT NULL,
    platform TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    yes_price REAL NOT NULL,
    no_price REAL NOT NULL,
    volume REAL,
    close_date TEXT,
    liquidity REAL,
    first_seen_at TEXT NOT NULL DEFAULT (datetime('now')),
    last_updated_at TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (id, platform)
);

CREATE TABLE IF NOT EXISTS conditions (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    short_name TEXT,
    end_time INTEGER NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS match_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    condition_id TEXT NOT NULL REFERENCES conditions(id),
    market_id TEXT,
    market_platform TEXT,
    similarity REAL NOT NULL,
    analysis TEXT NOT NULL,
    tag TEXT NOT NULL,
    matched_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_match_results_condition ON match_results(condition_id);

CREATE TABLE IF NOT EXISTS forecasts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    subject_id TEXT NOT NULL,
    probability REAL NOT NULL,
    confidence REAL NOT NULL,
    reasoning TEXT NOT NULL,
    fair_value REAL NOT NULL,
    edge REAL NOT NULL,
    recommendation TEXT NOT NULL,
    expected_value REAL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_forecasts_subject ON forecasts(subject_id);

CREATE TABLE IF NOT EXISTS dry_runs (
    id TEXT PRIMARY KEY,
    max_trades INTEGER NOT NULL,
    total_analyzed INTEGER NOT NULL,
    recommended INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    avg_confidence REAL NOT NULL,
    avg_edge REAL NOT NULL,
    capital_deployed REAL NOT NULL,
    oracle_errors INTEGER NOT NULL DEFAULT 0,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS dry_run_decisions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES dry_runs(id),
    subject_id TEXT NOT NULL,
    action TEXT NOT NULL,
    side TEXT,
    current_price REAL NOT NULL,
    fair_value REAL NOT NULL,
    edge REAL NOT NULL,
    confidence REAL NOT NULL,
    stake REAL NOT NULL,
    funded INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_decisions_run ON dry_run_decisions(run_id);

CREATE TABLE IF NOT EXISTS session_reports (
    id TEXT PRIMARY KEY,
    cause TEXT NOT NULL,
    roi REAL NOT NULL,
    elapsed_seconds REAL NOT NULL,
    started_at TEXT NOT NULL,
    ended_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`
