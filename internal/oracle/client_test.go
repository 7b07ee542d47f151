package oracle

import (
	"context"
	"errors"
	"math"
	"testing"

	"foresight/internal/config"
	"foresight/internal/recommend"
)

// scriptedCompleter returns canned replies keyed by subject appearance order.
type scriptedCompleter struct {
	replies []string
	errs    []error
	calls   int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ string) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var reply string
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	return reply, err
}

func newTestClient(c Completer) *Client {
	cfg := config.DefaultConfig()
	cfg.Oracle.CallSpacing.Duration = 0 // no pacing in tests
	return NewClient(c, cfg.Oracle, cfg.Trading, nil)
}

func TestForecast_BuyYesScenario(t *testing.T) {
	// fair_value 55 against a 42% market: edge = 13 points, confidence 80.
	completer := &scriptedCompleter{replies: []string{
		`Here you go: {"probability": 55, "confidence": 80, "reasoning": "underpriced", "fair_value": 55, "edge": 13, "recommendation": "BUY_YES"}`,
	}}
	client := newTestClient(completer)

	f, err := client.Forecast(context.Background(), Subject{ID: "m1", Title: "test", YesPrice: 0.42})
	if err != nil {
		t.Fatal(err)
	}
	if f.Recommendation != recommend.BuyYes {
		t.Errorf("expected BUY_YES, got %s", f.Recommendation)
	}
	if math.Abs(f.Edge-0.13) > 1e-9 {
		t.Errorf("expected edge 0.13, got %f", f.Edge)
	}
	if f.Confidence != 0.80 {
		t.Errorf("expected confidence 0.80, got %f", f.Confidence)
	}
	if f.FairValue != 0.55 {
		t.Errorf("expected fair value 0.55, got %f", f.FairValue)
	}
	if f.ExpectedValue == nil || math.Abs(*f.ExpectedValue-0.55/0.42) > 1e-9 {
		t.Errorf("unexpected expected value %v", f.ExpectedValue)
	}
}

func TestForecast_SmallEdgeSkips(t *testing.T) {
	// fair_value 45 against 42%: edge = 3 < 5, SKIP regardless of confidence.
	completer := &scriptedCompleter{replies: []string{
		`{"probability": 45, "confidence": 80, "reasoning": "close to fair", "fair_value": 45, "edge": 3, "recommendation": "BUY_YES"}`,
	}}
	client := newTestClient(completer)

	f, err := client.Forecast(context.Background(), Subject{ID: "m1", YesPrice: 0.42})
	if err != nil {
		t.Fatal(err)
	}
	if f.Recommendation != recommend.Skip {
		t.Errorf("expected SKIP, got %s", f.Recommendation)
	}
}

func TestForecast_OverridesOracleRecommendation(t *testing.T) {
	// The oracle's own recommendation field is ignored; the decision comes
	// from the recomputed edge against configured thresholds.
	completer := &scriptedCompleter{replies: []string{
		`{"probability": 20, "confidence": 90, "reasoning": "overpriced", "fair_value": 20, "edge": 0, "recommendation": "SKIP"}`,
	}}
	client := newTestClient(completer)

	f, err := client.Forecast(context.Background(), Subject{ID: "m1", YesPrice: 0.42})
	if err != nil {
		t.Fatal(err)
	}
	// edge = 0.20 - 0.42 = -22 points, confidence 90 -> BUY_NO.
	if f.Recommendation != recommend.BuyNo {
		t.Errorf("expected BUY_NO, got %s", f.Recommendation)
	}
}

func TestForecast_ZeroPriceOmitsExpectedValue(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{
		`{"probability": 50, "confidence": 50, "reasoning": "", "fair_value": 50, "edge": 0, "recommendation": "SKIP"}`,
	}}
	client := newTestClient(completer)

	f, err := client.Forecast(context.Background(), Subject{ID: "m1", YesPrice: 0})
	if err != nil {
		t.Fatal(err)
	}
	if f.ExpectedValue != nil {
		t.Errorf("expected nil expected value at zero price, got %f", *f.ExpectedValue)
	}
}

func TestForecast_ParseErrorIsTyped(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{"no json here"}}
	client := newTestClient(completer)

	_, err := client.Forecast(context.Background(), Subject{ID: "m1", YesPrice: 0.5})
	if err == nil {
		t.Fatal("expected parse error")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.SubjectID != "m1" {
		t.Errorf("expected error scoped to m1, got %s", perr.SubjectID)
	}
	if !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected wrapped ErrNoJSON, got %v", perr.Err)
	}
}

func TestForecastBatch_IsolatesFailures(t *testing.T) {
	good := `{"probability": 55, "confidence": 80, "reasoning": "ok", "fair_value": 55, "edge": 13, "recommendation": "BUY_YES"}`
	completer := &scriptedCompleter{replies: []string{good, "garbage reply", good}}
	client := newTestClient(completer)

	subjects := []Subject{
		{ID: "a", YesPrice: 0.42},
		{ID: "b", YesPrice: 0.42},
		{ID: "c", YesPrice: 0.42},
	}

	forecasts, errs := client.ForecastBatch(context.Background(), subjects)
	if len(forecasts) != 2 {
		t.Errorf("expected 2 forecasts, got %d", len(forecasts))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	var perr *ParseError
	if !errors.As(errs[0], &perr) || perr.SubjectID != "b" {
		t.Errorf("expected parse error scoped to subject b, got %v", errs[0])
	}
	if completer.calls != 3 {
		t.Errorf("expected exactly one call per subject, got %d", completer.calls)
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	s := Subject{ID: "m1", Title: "Test market", Platform: "kalshi", YesPrice: 0.42, NoPrice: 0.6}
	if BuildPrompt(s) != BuildPrompt(s) {
		t.Error("expected identical prompts for identical subjects")
	}
}
