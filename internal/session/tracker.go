package session

import (
	"sync"

	"foresight/internal/dryrun"
)

// Position is one funded paper trade being marked to market for the
// duration of a session.
type Position struct {
	SubjectID  string
	Side       string // "YES" or "NO"
	Stake      float64
	EntryPrice float64 // YES price at entry, [0,1]
}

// Tracker holds the session's paper book and computes its mark-to-market
// ROI. Positions are fixed at construction; only price marks change.
type Tracker struct {
	mu        sync.RWMutex
	positions []Position
	marks     map[string]float64 // subjectID -> latest YES price
}

// NewTracker opens a paper position for every funded buy decision. Buys the
// trade budget declined to fund carry no capital and are excluded.
func NewTracker(decisions []dryrun.Decision) *Tracker {
	var positions []Position
	for _, d := range decisions {
		if d.Action != dryrun.ActionBuy || !d.Funded || d.Stake == 0 {
			continue
		}
		positions = append(positions, Position{
			SubjectID:  d.SubjectID,
			Side:       d.Side,
			Stake:      d.Stake,
			EntryPrice: d.CurrentPrice,
		})
	}
	return &Tracker{
		positions: positions,
		marks:     make(map[string]float64),
	}
}

// Mark records the latest observed YES prices.
func (t *Tracker) Mark(prices map[string]float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, p := range prices {
		t.marks[id] = p
	}
}

// Deployed returns the total capital at risk.
func (t *Tracker) Deployed() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total float64
	for _, p := range t.positions {
		total += p.Stake
	}
	return total
}

// ROI returns the book's cumulative return as a fraction. A YES position's
// value scales with the YES price relative to entry; a NO position with the
// complement. Unmarked positions are held at entry value. Returns 0 for an
// empty book.
func (t *Tracker) ROI() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var deployed, value float64
	for _, p := range t.positions {
		deployed += p.Stake
		value += t.positionValue(p)
	}
	if deployed == 0 {
		return 0
	}
	return (value - deployed) / deployed
}

func (t *Tracker) positionValue(p Position) float64 {
	mark, ok := t.marks[p.SubjectID]
	if !ok {
		return p.Stake
	}

	if p.Side == "NO" {
		entry := 1 - p.EntryPrice
		if entry <= 0 {
			return p.Stake
		}
		return p.Stake * (1 - mark) / entry
	}

	if p.EntryPrice <= 0 {
		return p.Stake
	}
	return p.Stake * mark / p.EntryPrice
}
