package market

import (
	"encoding/json"
	"strconv"
	"time"
)

// defaultPrice is used when a venue omits a price quote entirely.
const defaultPrice = 0.5

// adapter maps one venue's raw record shape onto the canonical Market.
// Each field is resolved through an ordered list of acceptable source keys;
// the first key present and parseable wins.
type adapter struct {
	idKeys     []string
	titleKeys  []string
	descKeys   []string
	yesKeys    []string
	noKeys     []string
	volumeKeys []string
	closeKeys  []string
	liqKeys    []string

	// priceScale divides venue-native price units down to the [0,1]
	// fraction scale (Kalshi quotes in cents).
	priceScale float64
}

var adapters = map[Platform]adapter{
	PlatformKalshi: {
		idKeys:     []string{"ticker", "id"},
		titleKeys:  []string{"title", "subtitle", "ticker"},
		descKeys:   []string{"rules_primary", "subtitle"},
		yesKeys:    []string{"yes_ask", "yes_bid", "last_price"},
		noKeys:     []string{"no_ask", "no_bid"},
		volumeKeys: []string{"volume", "volume_24h"},
		closeKeys:  []string{"close_time", "expiration_time"},
		liqKeys:    []string{"liquidity", "open_interest"},
		priceScale: 100,
	},
	PlatformPolymarket: {
		idKeys:     []string{"id", "conditionId", "slug"},
		titleKeys:  []string{"question", "title"},
		descKeys:   []string{"description"},
		yesKeys:    []string{"yesPrice", "bestAsk", "lastTradePrice"},
		noKeys:     []string{"noPrice", "bestBid"},
		volumeKeys: []string{"volumeNum", "volume"},
		closeKeys:  []string{"endDate", "endDateIso"},
		liqKeys:    []string{"liquidityNum", "liquidity"},
		priceScale: 1,
	},
}

// Normalize maps a raw venue record into the canonical Market shape.
// Pure: lenient numeric parsing, never panics, no side effects.
func Normalize(p Platform, raw map[string]any) Market {
	a, ok := adapters[p]
	if !ok {
		// Unknown venues fall back to the Polymarket field shape, which
		// is the closest to the canonical one.
		a = adapters[PlatformPolymarket]
	}

	m := Market{
		ID:          firstString(raw, a.idKeys, ""),
		Title:       firstString(raw, a.titleKeys, ""),
		Description: firstString(raw, a.descKeys, ""),
		Platform:    p,
		YesPrice:    defaultPrice,
		NoPrice:     defaultPrice,
	}

	if v, ok := firstNumber(raw, a.yesKeys); ok {
		m.YesPrice = clamp01(v / a.priceScale)
	}
	if v, ok := firstNumber(raw, a.noKeys); ok {
		m.NoPrice = clamp01(v / a.priceScale)
	}
	if v, ok := firstNumber(raw, a.volumeKeys); ok && v >= 0 {
		m.Volume = &v
	}
	if v, ok := firstNumber(raw, a.liqKeys); ok && v >= 0 {
		m.Liquidity = &v
	}
	if t, ok := firstTime(raw, a.closeKeys); ok {
		m.CloseDate = &t
	}

	return m
}

// NormalizeAll maps a batch of raw records from one venue.
func NormalizeAll(p Platform, raws []map[string]any) []Market {
	markets := make([]Market, 0, len(raws))
	for _, raw := range raws {
		markets = append(markets, Normalize(p, raw))
	}
	return markets
}

func firstString(raw map[string]any, keys []string, def string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return def
}

// firstNumber resolves the first parseable numeric value among keys.
// Venues are inconsistent about numeric encodings: JSON numbers, quoted
// strings, and integers all appear in the wild.
func firstNumber(raw map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func firstTime(raw map[string]any, keys []string) (time.Time, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if parsed, err := time.Parse(time.RFC3339, t); err == nil {
				return parsed, true
			}
		case float64:
			// Unix millis, the common venue encoding for timestamps.
			return time.UnixMilli(int64(t)), true
		}
	}
	return time.Time{}, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
