package domain

import "time"

// MarketQuote is one synthetic price/volume observation for a symbol.
// The market snapshot is a map keyed by symbol, replaced wholesale each tick.
type MarketQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"changePercent"`
	Volume        float64   `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}
