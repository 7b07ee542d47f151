package session

import (
	"math"
	"testing"

	"foresight/internal/dryrun"
)

func fundedBuy(id, side string, stake, price float64) dryrun.Decision {
	return dryrun.Decision{
		SubjectID:    id,
		Action:       dryrun.ActionBuy,
		Side:         side,
		Stake:        stake,
		CurrentPrice: price,
		Funded:       true,
	}
}

func TestTracker_OpensPositionsFromFundedBuys(t *testing.T) {
	unfunded := fundedBuy("c", "YES", 10, 0.5)
	unfunded.Funded = false

	decisions := []dryrun.Decision{
		fundedBuy("a", "YES", 10, 0.40),
		{SubjectID: "b", Action: dryrun.ActionSkip},
		unfunded,
		fundedBuy("d", "NO", 10, 0.70),
	}

	tr := NewTracker(decisions)
	if got := tr.Deployed(); got != 20 {
		t.Errorf("expected 20 deployed, got %f", got)
	}
}

func TestTracker_DeployedMatchesCappedCapital(t *testing.T) {
	// The paper book must put at risk exactly the capital the trade budget
	// funded, not every recommended buy.
	var s dryrun.Summary
	for _, id := range []string{"a", "b", "c"} {
		s.Add(fundedBuy(id, "YES", 10, 0.40), 1)
	}

	if s.CapitalDeployed != 10 {
		t.Fatalf("expected capped capital 10, got %f", s.CapitalDeployed)
	}

	tr := NewTracker(s.Decisions)
	if got := tr.Deployed(); got != s.CapitalDeployed {
		t.Errorf("tracker deployed %f, want funded capital %f", got, s.CapitalDeployed)
	}
}

func TestTracker_YesPositionROI(t *testing.T) {
	tr := NewTracker([]dryrun.Decision{fundedBuy("a", "YES", 10, 0.40)})

	tr.Mark(map[string]float64{"a": 0.50})
	// Value 10 * 0.50/0.40 = 12.5, ROI = 2.5/10.
	if got := tr.ROI(); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("expected roi 0.25, got %f", got)
	}

	tr.Mark(map[string]float64{"a": 0.20})
	if got := tr.ROI(); math.Abs(got-(-0.5)) > 1e-9 {
		t.Errorf("expected roi -0.5, got %f", got)
	}
}

func TestTracker_NoPositionROI(t *testing.T) {
	// NO entered at YES price 0.70, so NO cost basis is 0.30.
	tr := NewTracker([]dryrun.Decision{fundedBuy("a", "NO", 10, 0.70)})

	tr.Mark(map[string]float64{"a": 0.55})
	// Value 10 * 0.45/0.30 = 15, ROI = 0.5.
	if got := tr.ROI(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected roi 0.5, got %f", got)
	}

	tr.Mark(map[string]float64{"a": 0.85})
	// Value 10 * 0.15/0.30 = 5, ROI = -0.5.
	if got := tr.ROI(); math.Abs(got-(-0.5)) > 1e-9 {
		t.Errorf("expected roi -0.5, got %f", got)
	}
}

func TestTracker_UnmarkedPositionsHeldAtEntry(t *testing.T) {
	tr := NewTracker([]dryrun.Decision{
		fundedBuy("a", "YES", 10, 0.40),
		fundedBuy("b", "YES", 10, 0.60),
	})

	tr.Mark(map[string]float64{"a": 0.80})
	// Position a doubled (value 20), b unmarked (value 10): ROI = 10/20.
	if got := tr.ROI(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected roi 0.5, got %f", got)
	}
}

func TestTracker_EmptyBook(t *testing.T) {
	tr := NewTracker(nil)
	if got := tr.ROI(); got != 0 {
		t.Errorf("expected roi 0 for empty book, got %f", got)
	}
	if got := tr.Deployed(); got != 0 {
		t.Errorf("expected 0 deployed, got %f", got)
	}
}

func TestTracker_ZeroEntryPriceGuard(t *testing.T) {
	tr := NewTracker([]dryrun.Decision{fundedBuy("a", "YES", 10, 0)})
	tr.Mark(map[string]float64{"a": 0.50})
	if got := tr.ROI(); got != 0 {
		t.Errorf("expected position held at stake, roi 0, got %f", got)
	}
}
