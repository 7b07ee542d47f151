package session

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"foresight/internal/config"
)

// State of a bounded monitoring session.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateTerminated
)

// Cause names the single terminal transition of a session.
type Cause string

const (
	CauseSuccess          Cause = "success"
	CauseCatastrophicLoss Cause = "catastrophic_loss"
	CauseTimeout          Cause = "timeout"
)

// ROISource reports the session's cumulative return on investment as a
// fraction (1.0 = +100%).
type ROISource func() float64

// Report is the final session report, generated exactly once on entering a
// terminal state.
type Report struct {
	SessionID string        `json:"sessionId"`
	Cause     Cause         `json:"cause"`
	ROI       float64       `json:"roi"`
	Elapsed   time.Duration `json:"elapsed"`
	StartedAt time.Time     `json:"startedAt"`
	EndedAt   time.Time     `json:"endedAt"`
}

// Monitor drives a bounded-duration monitoring session. A single goroutine
// (the one calling Run) owns all state, so the terminal transition cannot
// race: exactly one terminal cause fires even when several conditions become
// true in the same tick.
type Monitor struct {
	cfg   config.SessionConfig
	clock Clock
	roi   ROISource
	db    *sql.DB

	state State
	cause Cause
}

func NewMonitor(cfg config.SessionConfig, clock Clock, roi ROISource, db *sql.DB) *Monitor {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Monitor{
		cfg:   cfg,
		clock: clock,
		roi:   roi,
		db:    db,
		state: StateIdle,
	}
}

// State returns the monitor's current state. Only meaningful from the
// goroutine driving Run.
func (m *Monitor) State() State { return m.state }

// Cause returns the terminal cause once the monitor has terminated.
func (m *Monitor) Cause() Cause { return m.cause }

// Run samples the session on the configured period until one terminal
// condition fires, then emits the final report and returns. The periodic
// sampler is always cancelled on exit.
func (m *Monitor) Run(ctx context.Context) (*Report, error) {
	sessionID := uuid.NewString()
	start := m.clock.Now()
	m.state = StateRunning

	slog.Info("session starting",
		"session_id", sessionID,
		"target_roi", m.cfg.TargetROI,
		"loss_floor", m.cfg.LossFloor,
		"duration", m.cfg.Duration.Duration,
	)

	ticker := m.clock.NewTicker(m.cfg.SampleInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C():
			roi := m.roi()
			elapsed := m.clock.Now().Sub(start)
			cause, done := m.terminalCause(roi, elapsed)
			if !done {
				slog.Debug("session sampled", "session_id", sessionID, "roi", roi, "elapsed", elapsed)
				continue
			}

			m.state = StateTerminated
			m.cause = cause
			report := &Report{
				SessionID: sessionID,
				Cause:     cause,
				ROI:       roi,
				Elapsed:   elapsed,
				StartedAt: start,
				EndedAt:   m.clock.Now(),
			}
			m.saveReport(report)

			slog.Info("=== SESSION REPORT ===",
				"session_id", sessionID,
				"cause", cause,
				"roi", roi,
				"elapsed", elapsed,
			)
			return report, nil
		}
	}
}

// terminalCause evaluates the three termination conditions in strict
// priority order: Success, then CatastrophicLoss, then Timeout. The ordering
// guarantees a single cause even when several conditions hold at once.
func (m *Monitor) terminalCause(roi float64, elapsed time.Duration) (Cause, bool) {
	if roi >= m.cfg.TargetROI {
		return CauseSuccess, true
	}
	if roi <= m.cfg.LossFloor {
		return CauseCatastrophicLoss, true
	}
	if elapsed >= m.cfg.Duration.Duration {
		return CauseTimeout, true
	}
	return "", false
}

func (m *Monitor) saveReport(r *Report) {
	if m.db == nil {
		return
	}
	_, err := m.db.Exec(`
		INSERT INTO session_reports (id, cause, roi, elapsed_seconds, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.SessionID, string(r.Cause), r.ROI, r.Elapsed.Seconds(),
		r.StartedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		slog.Error("failed to save session report", "session_id", r.SessionID, "error", err)
	}
}
