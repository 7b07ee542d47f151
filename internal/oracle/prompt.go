package oracle

import (
	"fmt"
	"strings"
	"time"

	"foresight/internal/market"
)

// Subject is one thing the oracle is asked to estimate: a market, optionally
// paired with the internal condition it was matched against.
type Subject struct {
	ID        string
	Title     string
	Platform  market.Platform
	YesPrice  float64 // [0,1]
	NoPrice   float64 // [0,1]
	Volume    *float64
	CloseDate *time.Time

	// Question is the matched internal condition's wording, when the
	// subject is a market/condition pair.
	Question string
}

func SubjectFromMarket(m market.Market) Subject {
	return Subject{
		ID:        m.ID,
		Title:     m.Title,
		Platform:  m.Platform,
		YesPrice:  m.YesPrice,
		NoPrice:   m.NoPrice,
		Volume:    m.Volume,
		CloseDate: m.CloseDate,
	}
}

// BuildPrompt renders the deterministic natural-language prompt for one
// subject. Prices are presented as percentages because that is the scale the
// oracle is instructed to answer in.
func BuildPrompt(s Subject) string {
	var b strings.Builder

	b.WriteString("You are a prediction-market analyst. Estimate the true probability that the following market resolves YES.\n\n")
	fmt.Fprintf(&b, "Market: %s\n", s.Title)
	fmt.Fprintf(&b, "Platform: %s\n", s.Platform)
	fmt.Fprintf(&b, "Current YES price: %.1f%%\n", s.YesPrice*100)
	fmt.Fprintf(&b, "Current NO price: %.1f%%\n", s.NoPrice*100)
	if s.Volume != nil {
		fmt.Fprintf(&b, "Volume: %.0f\n", *s.Volume)
	} else {
		b.WriteString("Volume: unknown\n")
	}
	if s.CloseDate != nil {
		fmt.Fprintf(&b, "Closes: %s\n", s.CloseDate.Format("2006-01-02"))
	} else {
		b.WriteString("Closes: unknown\n")
	}
	if s.Question != "" {
		fmt.Fprintf(&b, "Internal proposition being tracked: %s\n", s.Question)
	}

	b.WriteString("\nRespond with a single JSON object and nothing else:\n")
	b.WriteString(`{"probability": <0-100>, "confidence": <0-100>, "reasoning": "<one or two sentences>", "fair_value": <0-100>, "edge": <fair_value minus current YES price, percentage points>, "recommendation": "<BUY_YES|BUY_NO|SKIP>"}` + "\n")
	b.WriteString("Decision rules: recommend BUY_YES only when edge > 5 percentage points and confidence > 65. Recommend BUY_NO only when edge < -5 percentage points and confidence > 65. Otherwise recommend SKIP.\n")

	return b.String()
}
