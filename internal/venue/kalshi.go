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

// KalshiClient fetches the open-market catalog from the Kalshi trade API.
type KalshiClient struct {
	client *resty.Client
}

func NewKalshiClient(baseURL string, timeout time.Duration) *KalshiClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &KalshiClient{client: client}
}

func (k *KalshiClient) Platform() market.Platform { return market.PlatformKalshi }

func (k *KalshiClient) Fetch(ctx context.Context, limit int) ([]market.Market, error) {
	resp, err := k.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":  strconv.Itoa(limit),
			"status": "open",
		}).
		Get("/markets")
	if err != nil {
		return nil, fmt.Errorf("requesting kalshi markets: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("kalshi API error %d: %s", resp.StatusCode(), resp.String())
	}

	var payload struct {
		Markets []map[string]any `json:"markets"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("parsing kalshi response: %w", err)
	}

	return market.NormalizeAll(market.PlatformKalshi, payload.Markets), nil
}
