package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_bot_fleet/internal/domain"
	"go.uber.org/zap"
)

func newTestAgent(t *testing.T) (*AdaptiveAgent, *Store) {
	t.Helper()
	store, _ := newTestStore(t)
	agent := NewAdaptiveAgent(store, &stubRand{}, zap.NewNop())
	return agent, store
}

func TestClassifySentiment_Bands(t *testing.T) {
	cases := []struct {
		trend      float64
		volatility float64
		want       Sentiment
	}{
		{0.6, 0.02, SentimentStrongBull},
		{0.3, 0.04, SentimentBull},
		{-0.6, 0.09, SentimentStrongBear},
		{-0.3, 0.06, SentimentBear},
		{0.0, 0.05, SentimentNeutral},
		{0.6, 0.04, SentimentBull},      // too volatile for strong_bull
		{-0.6, 0.04, SentimentNeutral},  // not volatile enough for bear
		{0.21, 0.049, SentimentBull},    // band edges
		{0.2, 0.01, SentimentNeutral},   // trend exactly at the bull threshold
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifySentiment(tc.trend, tc.volatility),
			"trend=%v volatility=%v", tc.trend, tc.volatility)
	}
}

func TestAnalyzeMarket_Aggregates(t *testing.T) {
	agent, store := newTestAgent(t)
	store.ReplaceMarketData(map[string]domain.MarketQuote{
		"BTC/USD": {Symbol: "BTC/USD", ChangePercent: 1.0, Volume: 800_000},
		"ETH/USD": {Symbol: "ETH/USD", ChangePercent: -0.5, Volume: 400_000},
	})

	analysis := agent.AnalyzeMarket()

	assert.InDelta(t, 0.75, analysis.Volatility, 1e-9) // mean(|1|, |-0.5|)
	assert.InDelta(t, 0.25, analysis.Trend, 1e-9)
	assert.InDelta(t, 0.6, analysis.Volume, 1e-9) // 1.2M / (1M * 2)
	assert.Equal(t, SentimentNeutral, analysis.Sentiment)
}

func TestAnalyzeMarket_EmptySnapshot(t *testing.T) {
	agent, _ := newTestAgent(t)

	analysis := agent.AnalyzeMarket()

	assert.Equal(t, SentimentNeutral, analysis.Sentiment)
	assert.Zero(t, analysis.Volatility)
	assert.Zero(t, analysis.Trend)
}

func TestUpdateConfidence(t *testing.T) {
	agent, _ := newTestAgent(t)

	agent.analysis = MarketAnalysis{Volatility: 0.02, Trend: 0.4, Volume: 0.8}
	assert.Equal(t, 95.0, agent.UpdateConfidence(), "75+10+5+5 clamps to 95")

	agent.analysis = MarketAnalysis{Volatility: 0.09, Trend: 0.1, Volume: 0.2}
	assert.Equal(t, 60.0, agent.UpdateConfidence(), "75-15")

	agent.analysis = MarketAnalysis{Volatility: 0.05, Trend: 0.1, Volume: 0.2}
	assert.Equal(t, 75.0, agent.UpdateConfidence(), "base when nothing triggers")
}

func TestShouldTrade_ScoreAndStochasticGate(t *testing.T) {
	store, _ := newTestStore(t)
	bot := domain.Bot{RiskLevel: 0.9, SuccessRate: 100, Profit: 5000}

	pass := NewAdaptiveAgent(store, &stubRand{vals: []float64{0.9}}, zap.NewNop())
	pass.analysis = MarketAnalysis{Volatility: 1, Trend: 1, Volume: 1}
	assert.True(t, pass.ShouldTrade(bot))

	// Same score, but the independent draw fails the >0.3 gate.
	blocked := NewAdaptiveAgent(store, &stubRand{vals: []float64{0.1}}, zap.NewNop())
	blocked.analysis = MarketAnalysis{Volatility: 1, Trend: 1, Volume: 1}
	assert.False(t, blocked.ShouldTrade(bot))
}

func TestShouldTrade_LowScore(t *testing.T) {
	agent, _ := newTestAgent(t)
	agent.analysis = MarketAnalysis{Volatility: 0.1, Trend: 0.1, Volume: 0.1}

	bot := domain.Bot{RiskLevel: 0.1}
	assert.False(t, agent.ShouldTrade(bot), "score below 45 never trades")
}

func TestTradeSide_FollowsTrend(t *testing.T) {
	agent, _ := newTestAgent(t)

	agent.analysis.Trend = 0.2
	assert.Equal(t, domain.SideBuy, agent.TradeSide(domain.Bot{}))

	agent.analysis.Trend = -0.2
	assert.Equal(t, domain.SideSell, agent.TradeSide(domain.Bot{}))
}

func TestTradeConfidence(t *testing.T) {
	agent, _ := newTestAgent(t)

	// Neutral record: 75 * 0.8 = 60.
	assert.InDelta(t, 60, agent.TradeConfidence(domain.Bot{RiskLevel: 0.8, SuccessRate: 50}), 1e-9)

	// Strong record clamps at 95.
	strong := domain.Bot{RiskLevel: 0.9, SuccessRate: 100, Profit: 1000}
	assert.Equal(t, 95.0, agent.TradeConfidence(strong))

	// Weak record clamps at 20.
	weak := domain.Bot{RiskLevel: 0.1, SuccessRate: 0, Profit: -500}
	assert.Equal(t, 20.0, agent.TradeConfidence(weak))
}

func TestLearnFromTrade_RollingWindow(t *testing.T) {
	agent, _ := newTestAgent(t)

	// Ten losses followed by twenty wins: the window only sees the wins.
	for i := 0; i < 10; i++ {
		agent.LearnFromTrade(1, Decision{}, -1)
	}
	for i := 0; i < 20; i++ {
		agent.LearnFromTrade(1, Decision{}, 2)
	}

	model, ok := agent.Model(1)
	require.True(t, ok)
	assert.Equal(t, 100.0, model.WinRate)
	assert.InDelta(t, 2.0, model.AvgProfit, 1e-9)
	assert.InDelta(t, 2.0, model.RiskAdjustedReturn, 1e-9)
	assert.Equal(t, 30, model.history.Len())
}

func TestLearnFromTrade_ZeroWinRateDivisor(t *testing.T) {
	agent, _ := newTestAgent(t)

	agent.LearnFromTrade(2, Decision{}, -4)
	agent.LearnFromTrade(2, Decision{}, -2)

	model, ok := agent.Model(2)
	require.True(t, ok)
	assert.Zero(t, model.WinRate)
	assert.InDelta(t, -3.0, model.AvgProfit, 1e-9)
	// Divisor falls back to 1 when the win rate is zero.
	assert.InDelta(t, -3.0, model.RiskAdjustedReturn, 1e-9)
}

func TestLearnFromTrade_HistoryCap(t *testing.T) {
	agent, _ := newTestAgent(t)

	for i := 0; i < learningHistoryCap+50; i++ {
		agent.LearnFromTrade(3, Decision{}, 1)
	}

	model, _ := agent.Model(3)
	assert.Equal(t, learningHistoryCap, model.history.Len())
}

func TestOptimizeBot_Underperformer(t *testing.T) {
	agent, store := newTestAgent(t)
	require.NoError(t, store.UpdateBot(2, func(b *domain.Bot) {
		b.RiskLevel = 0.5
		b.Trades = 10
		b.Wins = 3
	}))

	result, err := agent.OptimizeBot(2)
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.InDelta(t, 0.3, result.NewRisk, 1e-9)
	assert.Equal(t, 80.0, result.Confidence)

	bot, _ := store.Bot(2)
	assert.InDelta(t, 0.3, bot.RiskLevel, 1e-9)

	decisions := store.Decisions(1)
	require.Len(t, decisions, 1)
	assert.Equal(t, domain.DecisionOptimization, decisions[0].Category)

	model, ok := agent.Model(2)
	require.True(t, ok)
	assert.False(t, model.LastOptimization.IsZero())
}

func TestOptimizeBot_HighPerformer(t *testing.T) {
	agent, store := newTestAgent(t)
	require.NoError(t, store.UpdateBot(1, func(b *domain.Bot) {
		b.RiskLevel = 0.5
		b.Trades = 10
		b.Wins = 8
		b.Profit = 120
	}))

	result, err := agent.OptimizeBot(1)
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.InDelta(t, 0.65, result.NewRisk, 1e-9)
	assert.Equal(t, 85.0, result.Confidence)
}

func TestOptimizeBot_NoChange(t *testing.T) {
	agent, store := newTestAgent(t)
	require.NoError(t, store.UpdateBot(3, func(b *domain.Bot) {
		b.RiskLevel = 0.4
		b.Trades = 10
		b.Wins = 5
	}))

	result, err := agent.OptimizeBot(3)
	require.NoError(t, err)

	assert.False(t, result.Applied)
	assert.Equal(t, 70.0, result.Confidence)
	bot, _ := store.Bot(3)
	assert.InDelta(t, 0.4, bot.RiskLevel, 1e-9)
}

func TestOptimizeBot_RiskFloor(t *testing.T) {
	agent, store := newTestAgent(t)
	require.NoError(t, store.UpdateBot(4, func(b *domain.Bot) {
		b.RiskLevel = 0.2
		b.Trades = 10
		b.Wins = 1
	}))

	result, err := agent.OptimizeBot(4)
	require.NoError(t, err)
	assert.InDelta(t, domain.MinRiskLevel, result.NewRisk, 1e-9)
}

func TestOptimizeBot_UnknownBot(t *testing.T) {
	agent, _ := newTestAgent(t)

	_, err := agent.OptimizeBot(404)
	assert.ErrorIs(t, err, domain.ErrBotNotFound)
}

func TestDetectHighCorrelation(t *testing.T) {
	agent, store := newTestAgent(t)

	assert.False(t, agent.DetectHighCorrelation(), "no trades, no correlation")

	for i := 0; i < 50; i++ {
		store.AppendTrade(domain.TradeRecord{Success: true})
	}
	assert.True(t, agent.DetectHighCorrelation(), "uniform outcomes are correlated")

	for i := 0; i < 25; i++ {
		store.AppendTrade(domain.TradeRecord{Success: false})
	}
	assert.False(t, agent.DetectHighCorrelation(), "mixed recent outcomes are not")
}

func TestMakeStrategicDecisions_BearCutsRisk(t *testing.T) {
	agent, store := newTestAgent(t)
	store.SetAllBotStatus(domain.BotActive)
	require.NoError(t, store.UpdateBot(1, func(b *domain.Bot) { b.RiskLevel = 0.5 }))
	agent.analysis = MarketAnalysis{Sentiment: SentimentBear, Volatility: 0.05}

	agent.MakeStrategicDecisions()

	bot, _ := store.Bot(1)
	assert.InDelta(t, 0.35, bot.RiskLevel, 1e-9)

	decisions := store.Decisions(1)
	require.Len(t, decisions, 1)
	assert.Equal(t, domain.DecisionStrategy, decisions[0].Category)
}

func TestMakeStrategicDecisions_StrongBullRaisesRisk(t *testing.T) {
	agent, store := newTestAgent(t)
	store.SetAllBotStatus(domain.BotActive)
	require.NoError(t, store.UpdateBot(2, func(b *domain.Bot) { b.RiskLevel = 0.5 }))
	// Volatility 0.02 also triggers the calm-market nudge on top of the
	// sentiment raise: +0.1 then +0.05.
	agent.analysis = MarketAnalysis{Sentiment: SentimentStrongBull, Volatility: 0.02}

	agent.MakeStrategicDecisions()

	bot, _ := store.Bot(2)
	assert.InDelta(t, 0.65, bot.RiskLevel, 1e-9)
}

func TestMakeStrategicDecisions_VolatilityNudgeAlone(t *testing.T) {
	agent, store := newTestAgent(t)
	store.SetAllBotStatus(domain.BotActive)
	require.NoError(t, store.UpdateBot(3, func(b *domain.Bot) { b.RiskLevel = 0.5 }))
	agent.analysis = MarketAnalysis{Sentiment: SentimentNeutral, Volatility: 0.09}

	agent.MakeStrategicDecisions()

	bot, _ := store.Bot(3)
	assert.InDelta(t, 0.4, bot.RiskLevel, 1e-9)
}

func TestMakeStrategicDecisions_InactiveBotsUntouched(t *testing.T) {
	agent, store := newTestAgent(t)
	require.NoError(t, store.UpdateBot(1, func(b *domain.Bot) {
		b.Status = domain.BotActive
		b.RiskLevel = 0.5
	}))
	require.NoError(t, store.UpdateBot(2, func(b *domain.Bot) { b.RiskLevel = 0.5 }))
	agent.analysis = MarketAnalysis{Sentiment: SentimentBear, Volatility: 0.05}

	agent.MakeStrategicDecisions()

	active, _ := store.Bot(1)
	idle, _ := store.Bot(2)
	assert.InDelta(t, 0.35, active.RiskLevel, 1e-9)
	assert.InDelta(t, 0.5, idle.RiskLevel, 1e-9)
}

func TestRiskLevelInvariant_UnderRepeatedAdjustment(t *testing.T) {
	agent, store := newTestAgent(t)
	store.SetAllBotStatus(domain.BotActive)
	agent.analysis = MarketAnalysis{Sentiment: SentimentStrongBear, Volatility: 0.12}

	for i := 0; i < 20; i++ {
		agent.MakeStrategicDecisions()
		for _, b := range store.Bots() {
			require.GreaterOrEqual(t, b.RiskLevel, domain.MinRiskLevel)
			require.LessOrEqual(t, b.RiskLevel, domain.MaxRiskLevel)
		}
	}

	agent.analysis = MarketAnalysis{Sentiment: SentimentStrongBull, Volatility: 0.01}
	for i := 0; i < 20; i++ {
		agent.MakeStrategicDecisions()
		for _, b := range store.Bots() {
			require.LessOrEqual(t, b.RiskLevel, domain.MaxRiskLevel)
		}
	}
}

func TestAssessPortfolioHealth_EmitsDecision(t *testing.T) {
	agent, store := newTestAgent(t)
	store.SetAllBotStatus(domain.BotActive)
	for id := int64(1); id <= 5; id++ {
		require.NoError(t, store.UpdateBot(id, func(b *domain.Bot) {
			b.Trades = 10
			b.Wins = 1
			b.Profit = -5
		}))
	}

	health := agent.AssessPortfolioHealth()

	// -30 (win rate) -25 (losing majority) = 45
	assert.InDelta(t, 45, health, 1e-9)
	decisions := store.Decisions(1)
	require.Len(t, decisions, 1)
	assert.Equal(t, domain.DecisionPortfolioHealth, decisions[0].Category)
	assert.Equal(t, 85.0, decisions[0].Confidence)
	assert.Contains(t, decisions[0].Message, "win rate")
}

func TestAssessPortfolioHealth_HealthyFleetStaysQuiet(t *testing.T) {
	agent, store := newTestAgent(t)
	store.SetAllBotStatus(domain.BotActive)
	for id := int64(1); id <= 5; id++ {
		require.NoError(t, store.UpdateBot(id, func(b *domain.Bot) {
			b.Trades = 10
			b.Wins = 6
			b.Profit = 20
		}))
	}

	health := agent.AssessPortfolioHealth()

	assert.Equal(t, 100.0, health)
	assert.Empty(t, store.Decisions(0))
}

func TestRunMonitorCycle(t *testing.T) {
	agent, store := newTestAgent(t)
	store.ReplaceMarketData(map[string]domain.MarketQuote{
		"BTC/USD": {Symbol: "BTC/USD", ChangePercent: 0.1, Volume: 500_000},
	})

	agent.RunMonitorCycle()

	// Neutral sentiment still records one strategy decision per cycle.
	decisions := store.Decisions(0)
	require.NotEmpty(t, decisions)
	assert.Equal(t, domain.DecisionStrategy, decisions[0].Category)
}
