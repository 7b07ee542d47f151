package venue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foresight/internal/market"
)

func TestKalshiClient_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("status"); got != "open" {
			t.Errorf("expected status=open, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"markets": [
			{"ticker": "BTC-100K", "title": "Bitcoin above 100000 by end of 2025",
			 "yes_ask": 42, "no_ask": 60, "volume": 1500}
		]}`))
	}))
	defer ts.Close()

	client := NewKalshiClient(ts.URL, 5*time.Second)
	markets, err := client.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(markets) != 1 {
		t.Fatalf("expected 1 market, got %d", len(markets))
	}
	m := markets[0]
	if m.Platform != market.PlatformKalshi {
		t.Errorf("expected kalshi platform, got %s", m.Platform)
	}
	if m.YesPrice != 0.42 {
		t.Errorf("expected yes price 0.42, got %f", m.YesPrice)
	}
}

func TestKalshiClient_Fetch_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewKalshiClient(ts.URL, 5*time.Second)
	if _, err := client.Fetch(context.Background(), 10); err == nil {
		t.Error("expected error on non-200 response")
	}
}

func TestPolymarketClient_Fetch_OutcomePrices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// outcomePrices double-encoded as a string, as the gamma API returns it.
		w.Write([]byte(`[
			{"id": "p1", "question": "Will it rain", "outcomePrices": "[\"0.62\", \"0.40\"]"}
		]`))
	}))
	defer ts.Close()

	client := NewPolymarketClient(ts.URL, 5*time.Second)
	markets, err := client.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(markets) != 1 {
		t.Fatalf("expected 1 market, got %d", len(markets))
	}
	if markets[0].YesPrice != 0.62 {
		t.Errorf("expected yes price 0.62, got %f", markets[0].YesPrice)
	}
	if markets[0].NoPrice != 0.40 {
		t.Errorf("expected no price 0.40, got %f", markets[0].NoPrice)
	}
}

type stubFetcher struct {
	platform market.Platform
	markets  []market.Market
	err      error
}

func (s *stubFetcher) Platform() market.Platform { return s.platform }
func (s *stubFetcher) Fetch(context.Context, int) ([]market.Market, error) {
	return s.markets, s.err
}

func TestService_FetchAll_PartialOutage(t *testing.T) {
	ok := &stubFetcher{
		platform: market.PlatformKalshi,
		markets:  []market.Market{{ID: "a", Platform: market.PlatformKalshi}},
	}
	down := &stubFetcher{
		platform: market.PlatformPolymarket,
		err:      errors.New("connection refused"),
	}

	svc := NewService(nil, nil, ok, down)
	markets, errs := svc.FetchAll(context.Background(), "both", 10)

	if len(markets) != 1 {
		t.Fatalf("expected 1 market from the healthy venue, got %d", len(markets))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 recorded fetch error, got %d", len(errs))
	}
	var ferr *FetchError
	if !errors.As(errs[0], &ferr) {
		t.Fatalf("expected *FetchError, got %T", errs[0])
	}
	if ferr.Platform != market.PlatformPolymarket {
		t.Errorf("expected polymarket fetch error, got %s", ferr.Platform)
	}
}

func TestService_FetchAll_PlatformFilter(t *testing.T) {
	kalshi := &stubFetcher{
		platform: market.PlatformKalshi,
		markets:  []market.Market{{ID: "k", Platform: market.PlatformKalshi}},
	}
	poly := &stubFetcher{
		platform: market.PlatformPolymarket,
		markets:  []market.Market{{ID: "p", Platform: market.PlatformPolymarket}},
	}

	svc := NewService(nil, nil, kalshi, poly)
	markets, errs := svc.FetchAll(context.Background(), "kalshi", 10)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(markets) != 1 || markets[0].ID != "k" {
		t.Fatalf("expected only the kalshi market, got %v", markets)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	cache := NewCache(1 * time.Millisecond)
	cache.Set(market.Market{ID: "a", Platform: market.PlatformKalshi})

	if _, ok := cache.Get(market.PlatformKalshi, "a"); !ok {
		t.Error("expected fresh entry to be cached")
	}

	time.Sleep(5 * time.Millisecond)
	if _, ok := cache.Get(market.PlatformKalshi, "a"); ok {
		t.Error("expected entry to expire")
	}
	if got := cache.All(); len(got) != 0 {
		t.Errorf("expected no live entries, got %d", len(got))
	}
}
