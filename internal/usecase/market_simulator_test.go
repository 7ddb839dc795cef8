package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_bot_fleet/internal/domain"
	"go.uber.org/zap"
)

func TestQuote_PriceFormula(t *testing.T) {
	store, _ := newTestStore(t)
	sim := NewMarketSimulator(store, &stubRand{vals: []float64{0.75, 0.2}}, zap.NewNop())

	q := sim.Quote("BTC/USD", time.Unix(1000, 0))

	// delta = (0.75-0.5) * 0.04 = 0.01
	assert.InDelta(t, 45000*1.01, q.Price, 1e-6)
	assert.InDelta(t, 1.0, q.ChangePercent, 1e-9)
	assert.InDelta(t, 200_000, q.Volume, 1e-6)
}

func TestQuote_UnknownSymbolFallback(t *testing.T) {
	store, _ := newTestStore(t)
	sim := NewMarketSimulator(store, &stubRand{vals: []float64{1.0, 0.0}}, zap.NewNop())

	q := sim.Quote("DOGE/USD", time.Unix(1000, 0))

	// fallback base 100, volatility 0.03: delta = 0.5*0.03 = 0.015
	assert.InDelta(t, 101.5, q.Price, 1e-9)
	assert.InDelta(t, 1.5, q.ChangePercent, 1e-9)
}

func TestRefresh_ReplacesSnapshotWholesale(t *testing.T) {
	store, repo := newTestStore(t)
	store.ReplaceMarketData(map[string]domain.MarketQuote{
		"STALE/USD": {Symbol: "STALE/USD", Price: 1},
	})

	sim := NewMarketSimulator(store, &stubRand{}, zap.NewNop())
	savesBefore := repo.saves
	sim.Refresh()

	quotes := store.MarketData()
	require.Len(t, quotes, 5)
	_, stale := quotes["STALE/USD"]
	assert.False(t, stale, "refresh must replace, not merge")
	assert.Equal(t, savesBefore+1, repo.saves, "refresh must persist")

	for _, sym := range []string{"BTC/USD", "ETH/USD", "SOL/USD", "BNB/USD", "XRP/USD"} {
		q, ok := quotes[sym]
		require.True(t, ok, sym)
		assert.Equal(t, sym, q.Symbol)
		assert.Greater(t, q.Price, 0.0)
	}
}

func TestRefresh_DeterministicWithFixedSource(t *testing.T) {
	storeA, _ := newTestStore(t)
	storeB, _ := newTestStore(t)

	NewMarketSimulator(storeA, &stubRand{vals: []float64{0.1, 0.9}}, zap.NewNop()).Refresh()
	NewMarketSimulator(storeB, &stubRand{vals: []float64{0.1, 0.9}}, zap.NewNop()).Refresh()

	quotesA, quotesB := storeA.MarketData(), storeB.MarketData()
	for sym, qa := range quotesA {
		assert.Equal(t, qa.Price, quotesB[sym].Price, sym)
		assert.Equal(t, qa.Volume, quotesB[sym].Volume, sym)
	}
}
