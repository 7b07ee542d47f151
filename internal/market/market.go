package market

import "time"

// Platform identifies the venue a market was sourced from.
type Platform string

const (
	PlatformKalshi     Platform = "kalshi"
	PlatformPolymarket Platform = "polymarket"
)

// Market is the canonical shape every venue record is normalized into.
//
// YesPrice and NoPrice are independent order-book quotes on the [0,1] scale;
// they need not sum to 1. Volume, CloseDate and Liquidity are nil when the
// venue did not report them; zero is a valid observed value, so absence is
// not defaulted to zero.
type Market struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Platform    Platform   `json:"platform"`
	YesPrice    float64    `json:"yesPrice"`
	NoPrice     float64    `json:"noPrice"`
	Volume      *float64   `json:"volume,omitempty"`
	CloseDate   *time.Time `json:"closeDate,omitempty"`
	Liquidity   *float64   `json:"liquidity,omitempty"`
}
