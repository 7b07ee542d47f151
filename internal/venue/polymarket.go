package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"foresight/internal/market"
)

// PolymarketClient fetches the open-market catalog from the Polymarket
// gamma API.
type PolymarketClient struct {
	client *resty.Client
}

func NewPolymarketClient(baseURL string, timeout time.Duration) *PolymarketClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &PolymarketClient{client: client}
}

func (p *PolymarketClient) Platform() market.Platform { return market.PlatformPolymarket }

func (p *PolymarketClient) Fetch(ctx context.Context, limit int) ([]market.Market, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":  strconv.Itoa(limit),
			"closed": "false",
		}).
		Get("/markets")
	if err != nil {
		return nil, fmt.Errorf("requesting polymarket markets: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("polymarket API error %d: %s", resp.StatusCode(), resp.String())
	}

	var raws []map[string]any
	if err := json.Unmarshal(resp.Body(), &raws); err != nil {
		return nil, fmt.Errorf("parsing polymarket response: %w", err)
	}

	for _, raw := range raws {
		flattenOutcomePrices(raw)
	}

	return market.NormalizeAll(market.PlatformPolymarket, raws), nil
}

// flattenOutcomePrices lifts the gamma API's outcomePrices pair (a JSON
// array, sometimes double-encoded as a string) into the yesPrice/noPrice
// keys the normalizer's adapter table resolves.
func flattenOutcomePrices(raw map[string]any) {
	v, ok := raw["outcomePrices"]
	if !ok {
		return
	}

	var prices []any
	switch p := v.(type) {
	case []any:
		prices = p
	case string:
		if err := json.Unmarshal([]byte(p), &prices); err != nil {
			return
		}
	default:
		return
	}

	if len(prices) >= 1 {
		if _, exists := raw["yesPrice"]; !exists {
			raw["yesPrice"] = toPriceString(prices[0])
		}
	}
	if len(prices) >= 2 {
		if _, exists := raw["noPrice"]; !exists {
			raw["noPrice"] = toPriceString(prices[1])
		}
	}
}

func toPriceString(v any) string {
	switch p := v.(type) {
	case string:
		return p
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	default:
		return ""
	}
}
