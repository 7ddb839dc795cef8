package usecase

import (
	"time"

	"github.com/vitos/crypto_bot_fleet/internal/domain"
	"go.uber.org/zap"
)

// symbolSpec is the base price and volatility for one tracked symbol.
type symbolSpec struct {
	BasePrice  float64
	Volatility float64
}

// Fallback for symbols outside the tracked universe.
var defaultSymbolSpec = symbolSpec{BasePrice: 100, Volatility: 0.03}

func defaultUniverse() map[string]symbolSpec {
	return map[string]symbolSpec{
		"BTC/USD": {BasePrice: 45000, Volatility: 0.04},
		"ETH/USD": {BasePrice: 2500, Volatility: 0.05},
		"SOL/USD": {BasePrice: 100, Volatility: 0.08},
		"BNB/USD": {BasePrice: 300, Volatility: 0.05},
		"XRP/USD": {BasePrice: 0.55, Volatility: 0.06},
	}
}

// MarketSimulator produces one synthetic quote per tracked symbol and replaces
// the store's market snapshot wholesale on every refresh.
type MarketSimulator struct {
	store    *Store
	rng      domain.RandSource
	logger   *zap.Logger
	universe map[string]symbolSpec
	symbols  []string // stable iteration order
}

func NewMarketSimulator(store *Store, rng domain.RandSource, logger *zap.Logger) *MarketSimulator {
	universe := defaultUniverse()
	symbols := make([]string, 0, len(universe))
	for _, sym := range []string{"BTC/USD", "ETH/USD", "SOL/USD", "BNB/USD", "XRP/USD"} {
		if _, ok := universe[sym]; ok {
			symbols = append(symbols, sym)
		}
	}
	return &MarketSimulator{
		store:    store,
		rng:      rng,
		logger:   logger,
		universe: universe,
		symbols:  symbols,
	}
}

// spec returns the base price/volatility for a symbol, falling back to the
// default for anything unrecognized.
func (m *MarketSimulator) spec(symbol string) symbolSpec {
	if spec, ok := m.universe[symbol]; ok {
		return spec
	}
	return defaultSymbolSpec
}

// Quote draws one sample for a symbol.
func (m *MarketSimulator) Quote(symbol string, now time.Time) domain.MarketQuote {
	spec := m.spec(symbol)
	delta := (m.rng.Float64() - 0.5) * spec.Volatility
	return domain.MarketQuote{
		Symbol:        symbol,
		Price:         spec.BasePrice * (1 + delta),
		ChangePercent: delta * 100,
		Volume:        m.rng.Float64() * 1_000_000,
		Timestamp:     now,
	}
}

// Refresh builds a full replacement snapshot and writes it to the store.
func (m *MarketSimulator) Refresh() {
	now := time.Now()
	quotes := make(map[string]domain.MarketQuote, len(m.symbols))
	for _, sym := range m.symbols {
		quotes[sym] = m.Quote(sym, now)
	}
	m.store.ReplaceMarketData(quotes)
	m.logger.Debug("Market snapshot refreshed", zap.Int("symbols", len(quotes)))
}
