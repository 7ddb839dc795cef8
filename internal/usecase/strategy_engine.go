package usecase

import (
	"math"

	"github.com/vitos/crypto_bot_fleet/internal/domain"
)

// MarketConditions are the per-cycle inputs to the decision functions. They are
// resampled fresh each trading cycle from the random source and deliberately
// NOT derived from the live market snapshot; the snapshot feeds pricing and the
// adaptive analysis instead.
type MarketConditions struct {
	Volatility float64 // [0,1)
	Trend      float64 // [-1,1)
	Volume     float64 // [0,1)
	Sentiment  float64 // [0,1)
}

// SampleMarketConditions draws the four independent per-cycle samples.
func SampleMarketConditions(rng domain.RandSource) MarketConditions {
	return MarketConditions{
		Volatility: rng.Float64(),
		Trend:      rng.Float64()*2 - 1,
		Volume:     rng.Float64(),
		Sentiment:  rng.Float64(),
	}
}

// Decision is the outcome of asking the engine about one bot for one cycle.
type Decision struct {
	Execute    bool
	Side       domain.Side
	Symbol     string
	Amount     float64
	Confidence float64
}

// AdaptiveStrategy is the slice of the adaptive agent the engine delegates the
// ai_adaptive strategy to.
type AdaptiveStrategy interface {
	ShouldTrade(bot domain.Bot) bool
	TradeSide(bot domain.Bot) domain.Side
	TradeConfidence(bot domain.Bot) float64
}

type decisionFunc func(e *StrategyEngine, bot domain.Bot, mc MarketConditions) (execute bool, side domain.Side, confidence float64)

// StrategyEngine maps (bot, market conditions) to a trade decision via a
// dispatch table keyed by strategy kind.
type StrategyEngine struct {
	rng      domain.RandSource
	adaptive AdaptiveStrategy
	handlers map[domain.StrategyKind]decisionFunc
}

func NewStrategyEngine(rng domain.RandSource, adaptive AdaptiveStrategy) *StrategyEngine {
	return &StrategyEngine{
		rng:      rng,
		adaptive: adaptive,
		handlers: map[domain.StrategyKind]decisionFunc{
			domain.StrategyArbitrage:    decideArbitrage,
			domain.StrategyMomentum:     decideMomentum,
			domain.StrategyMarketMaking: decideMarketMaking,
			domain.StrategyScalping:     decideScalping,
			domain.StrategyAIAdaptive:   decideAdaptive,
		},
	}
}

func decideArbitrage(e *StrategyEngine, _ domain.Bot, mc MarketConditions) (bool, domain.Side, float64) {
	return mc.Volatility > 0.3, e.randomSide(), mc.Volatility * 80
}

func decideMomentum(_ *StrategyEngine, _ domain.Bot, mc MarketConditions) (bool, domain.Side, float64) {
	side := domain.SideSell
	if mc.Trend > 0 {
		side = domain.SideBuy
	}
	return math.Abs(mc.Trend) > 0.2, side, math.Abs(mc.Trend) * 90
}

func decideMarketMaking(e *StrategyEngine, _ domain.Bot, mc MarketConditions) (bool, domain.Side, float64) {
	return mc.Volume > 0.4, e.randomSide(), mc.Volume * 70
}

func decideScalping(e *StrategyEngine, _ domain.Bot, mc MarketConditions) (bool, domain.Side, float64) {
	// Scalpers lean short: 30% buy / 70% sell.
	side := domain.SideSell
	if e.rng.Float64() < 0.3 {
		side = domain.SideBuy
	}
	return mc.Volatility > 0.2, side, mc.Volatility * 85
}

func decideAdaptive(e *StrategyEngine, bot domain.Bot, _ MarketConditions) (bool, domain.Side, float64) {
	return e.adaptive.ShouldTrade(bot), e.adaptive.TradeSide(bot), e.adaptive.TradeConfidence(bot)
}

func (e *StrategyEngine) randomSide() domain.Side {
	if e.rng.Float64() < 0.5 {
		return domain.SideBuy
	}
	return domain.SideSell
}

// Decide runs the strategy dispatch for one bot. symbols are the currently
// known market symbols; "BTC/USD" is used when none are known yet.
func (e *StrategyEngine) Decide(bot domain.Bot, mc MarketConditions, symbols []string) Decision {
	handler, ok := e.handlers[bot.Strategy]
	if !ok {
		return Decision{}
	}
	execute, side, confidence := handler(e, bot, mc)

	symbol := "BTC/USD"
	if len(symbols) > 0 {
		symbol = symbols[int(e.rng.Float64()*float64(len(symbols)))%len(symbols)]
	}

	return Decision{
		Execute:    execute && confidence > 50,
		Side:       side,
		Symbol:     symbol,
		Amount:     100 + e.rng.Float64()*400,
		Confidence: confidence,
	}
}

// Outcome computes the profit of an executed decision. Higher risk levels trim
// the deterministic part of the payoff before the random market multiplier.
func (e *StrategyEngine) Outcome(bot domain.Bot, d Decision) (profit float64, success bool) {
	baseProfit := d.Confidence / 10
	riskAdjustment := 1 - bot.RiskLevel
	marketMultiplier := 1 + (e.rng.Float64() - 0.5)
	profit = round2(baseProfit*riskAdjustment*marketMultiplier - 0.5)
	return profit, profit > 0
}

// PerformanceScore blends success rate with the latest profit impact.
func PerformanceScore(successRate, profit float64) float64 {
	return round1(successRate*0.6 + math.Max(0, profit*10)*0.4)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
