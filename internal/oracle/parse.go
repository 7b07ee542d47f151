package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoJSON means the oracle's reply contained no balanced JSON object.
var ErrNoJSON = errors.New("no JSON object in oracle reply")

// ParseError is scoped to a single subject: one malformed reply never aborts
// the rest of a batch.
type ParseError struct {
	SubjectID string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing oracle reply for %s: %v", e.SubjectID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// wireForecast is the oracle's declared output contract. All numeric fields
// are on the 0-100 scale on the wire.
type wireForecast struct {
	Probability    float64 `json:"probability"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
	FairValue      float64 `json:"fair_value"`
	Edge           float64 `json:"edge"`
	Recommendation string  `json:"recommendation"`
}

// extractJSON returns the first balanced {...} region of free-form text.
// Braces inside JSON string literals are skipped.
func extractJSON(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		case '"':
			if start >= 0 {
				inString = true
			}
		}
	}

	return "", ErrNoJSON
}

// parseReply extracts and schema-validates the forecast embedded in an
// oracle reply.
func parseReply(reply string) (*wireForecast, error) {
	blob, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}

	var wf wireForecast
	if err := json.Unmarshal([]byte(blob), &wf); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"probability", wf.Probability},
		{"confidence", wf.Confidence},
		{"fair_value", wf.FairValue},
	} {
		if f.value < 0 || f.value > 100 {
			return nil, fmt.Errorf("field %s out of range: %f", f.name, f.value)
		}
	}

	return &wf, nil
}
