package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"foresight/internal/config"
	"foresight/internal/metrics"
	"foresight/internal/recommend"
)

// Forecast is the normalized oracle estimate for one subject. All ratio
// fields are on the internal [0,1] scale; the 0-100 wire scale is converted
// exactly once, here at the client's parse edge.
type Forecast struct {
	SubjectID      string           `json:"subjectId"`
	Probability    float64          `json:"probability"`
	Confidence     float64          `json:"confidence"`
	Reasoning      string           `json:"reasoning"`
	FairValue      float64          `json:"fairValue"`
	Edge           float64          `json:"edge"`
	Recommendation recommend.Action `json:"recommendation"`

	// ExpectedValue is fairValue / currentYesPrice, omitted when the
	// current price is zero.
	ExpectedValue *float64 `json:"expectedValue,omitempty"`
}

// Client obtains probability and fair-value estimates from the external
// text-generation capability. Exactly one outbound call per subject, no
// automatic retries.
type Client struct {
	completer Completer
	trading   config.TradingConfig
	spacing   time.Duration
	rec       *metrics.Recorder
}

func NewClient(completer Completer, oracleCfg config.OracleConfig, trading config.TradingConfig, rec *metrics.Recorder) *Client {
	return &Client{
		completer: completer,
		trading:   trading,
		spacing:   oracleCfg.CallSpacing.Duration,
		rec:       rec,
	}
}

// Forecast obtains one estimate. Parse failures come back as a *ParseError
// scoped to the subject.
func (c *Client) Forecast(ctx context.Context, s Subject) (*Forecast, error) {
	start := time.Now()
	reply, err := c.completer.Complete(ctx, BuildPrompt(s))
	c.rec.ObserveOracleCall(time.Since(start))
	if err != nil {
		c.rec.RecordForecast("error")
		return nil, fmt.Errorf("oracle call for %s: %w", s.ID, err)
	}

	wf, err := parseReply(reply)
	if err != nil {
		c.rec.RecordForecast("parse_error")
		return nil, &ParseError{SubjectID: s.ID, Err: err}
	}

	f := c.normalize(s, wf)
	c.rec.RecordForecast("ok")
	return f, nil
}

// normalize converts the 0-100 wire fields down to the internal scale,
// recomputes the edge from the market's actual price, and re-derives the
// recommendation through the decision function so the oracle's own
// recommendation field can never contradict the configured thresholds.
func (c *Client) normalize(s Subject, wf *wireForecast) *Forecast {
	fairValue := wf.FairValue / 100
	edge := fairValue - s.YesPrice

	f := &Forecast{
		SubjectID:   s.ID,
		Probability: wf.Probability / 100,
		Confidence:  wf.Confidence / 100,
		Reasoning:   wf.Reasoning,
		FairValue:   fairValue,
		Edge:        edge,
		Recommendation: recommend.Recommend(
			edge*100, wf.Confidence,
			c.trading.EdgeThreshold, c.trading.ConfidenceThreshold,
		),
	}

	if s.YesPrice != 0 {
		ev := fairValue / s.YesPrice
		f.ExpectedValue = &ev
	}

	return f
}

// ForecastBatch estimates many subjects sequentially with a minimum
// inter-call spacing to respect the oracle's rate limits. A failure is
// isolated to its subject and recorded in the returned error list; sibling
// calls are never halted.
func (c *Client) ForecastBatch(ctx context.Context, subjects []Subject) ([]Forecast, []error) {
	forecasts := make([]Forecast, 0, len(subjects))
	var errs []error

	for i, s := range subjects {
		if i > 0 && c.spacing > 0 {
			select {
			case <-ctx.Done():
				errs = append(errs, ctx.Err())
				return forecasts, errs
			case <-time.After(c.spacing):
			}
		}

		f, err := c.Forecast(ctx, s)
		if err != nil {
			errs = append(errs, err)
			slog.Warn("forecast failed for subject", "subject", s.ID, "error", err)
			continue
		}
		forecasts = append(forecasts, *f)
	}

	slog.Info("forecast batch complete",
		"subjects", len(subjects), "forecasts", len(forecasts), "errors", len(errs))
	return forecasts, errs
}
