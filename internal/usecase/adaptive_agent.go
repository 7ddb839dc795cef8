package usecase

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/vitos/crypto_bot_fleet/internal/domain"
	"go.uber.org/zap"
)

type Sentiment string

const (
	SentimentStrongBull Sentiment = "strong_bull"
	SentimentBull       Sentiment = "bull"
	SentimentNeutral    Sentiment = "neutral"
	SentimentBear       Sentiment = "bear"
	SentimentStrongBear Sentiment = "strong_bear"
)

// MarketAnalysis is the agent's aggregate view of the live market snapshot.
type MarketAnalysis struct {
	Volatility float64   `json:"volatility"`
	Trend      float64   `json:"trend"`
	Volume     float64   `json:"volume"`
	Sentiment  Sentiment `json:"sentiment"`
}

// TradeOutcome is one entry in a bot's learning history.
type TradeOutcome struct {
	Profit    float64   `json:"profit"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	learningHistoryCap = 100
	rollingWindow      = 20
)

// BotLearningModel tracks one bot's recent outcomes and rolling metrics. The
// metrics are recomputed over the newest rollingWindow entries after every trade.
type BotLearningModel struct {
	LearningRate       float64   `json:"learningRate"`
	WinRate            float64   `json:"winRate"`
	AvgProfit          float64   `json:"avgProfit"`
	RiskAdjustedReturn float64   `json:"riskAdjustedReturn"`
	AdaptationFactor   float64   `json:"adaptationFactor"`
	LastOptimization   time.Time `json:"lastOptimization"`

	history *domain.RecordLog[TradeOutcome]
}

func newBotLearningModel() *BotLearningModel {
	return &BotLearningModel{
		LearningRate:     0.1,
		AdaptationFactor: 1.0,
		history:          domain.NewRecordLog[TradeOutcome](learningHistoryCap),
	}
}

// History returns the recorded outcomes, newest first.
func (m *BotLearningModel) History() []TradeOutcome {
	return m.history.Items()
}

func (m *BotLearningModel) recompute() {
	recent := m.history.Recent(rollingWindow)
	if len(recent) == 0 {
		m.WinRate, m.AvgProfit, m.RiskAdjustedReturn = 0, 0, 0
		return
	}
	var wins int
	var total float64
	for _, o := range recent {
		if o.Success {
			wins++
		}
		total += o.Profit
	}
	m.WinRate = float64(wins) / float64(len(recent)) * 100
	m.AvgProfit = total / float64(len(recent))
	divisor := m.WinRate / 100
	if divisor == 0 {
		divisor = 1
	}
	m.RiskAdjustedReturn = m.AvgProfit / divisor
}

// OptimizeResult reports a manual bot recalibration.
type OptimizeResult struct {
	BotID      int64   `json:"botId"`
	Applied    bool    `json:"applied"`
	OldRisk    float64 `json:"oldRisk"`
	NewRisk    float64 `json:"newRisk"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence"`
}

// AdaptiveAgent analyzes aggregate market and portfolio state, adjusts bot risk
// levels and supplies decisions for the ai_adaptive strategy.
type AdaptiveAgent struct {
	store  *Store
	rng    domain.RandSource
	logger *zap.Logger

	mu         sync.Mutex
	analysis   MarketAnalysis
	confidence float64
	models     map[int64]*BotLearningModel
}

func NewAdaptiveAgent(store *Store, rng domain.RandSource, logger *zap.Logger) *AdaptiveAgent {
	return &AdaptiveAgent{
		store:      store,
		rng:        rng,
		logger:     logger,
		analysis:   MarketAnalysis{Sentiment: SentimentNeutral},
		confidence: 75,
		models:     make(map[int64]*BotLearningModel),
	}
}

// Analysis returns the current aggregate market view.
func (a *AdaptiveAgent) Analysis() MarketAnalysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.analysis
}

// Confidence returns the agent's overall confidence in [20,95].
func (a *AdaptiveAgent) Confidence() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.confidence
}

// Model returns the learning model for a bot, if one exists yet.
func (a *AdaptiveAgent) Model(botID int64) (*BotLearningModel, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.models[botID]
	return m, ok
}

func (a *AdaptiveAgent) modelLocked(botID int64) *BotLearningModel {
	m, ok := a.models[botID]
	if !ok {
		m = newBotLearningModel()
		a.models[botID] = m
	}
	return m
}

// AnalyzeMarket recomputes volatility, trend, volume strength and sentiment
// from the live market snapshot.
func (a *AdaptiveAgent) AnalyzeMarket() MarketAnalysis {
	quotes := a.store.MarketData()

	analysis := MarketAnalysis{Sentiment: SentimentNeutral}
	if len(quotes) > 0 {
		var absChange, change, volume float64
		for _, q := range quotes {
			absChange += math.Abs(q.ChangePercent)
			change += q.ChangePercent
			volume += q.Volume
		}
		n := float64(len(quotes))
		analysis.Volatility = absChange / n
		analysis.Trend = change / n
		analysis.Volume = volume / (1_000_000 * n)
		analysis.Sentiment = classifySentiment(analysis.Trend, analysis.Volatility)
	}

	a.mu.Lock()
	a.analysis = analysis
	a.mu.Unlock()
	return analysis
}

// classifySentiment applies the exact trend/volatility bands.
func classifySentiment(trend, volatility float64) Sentiment {
	switch {
	case trend > 0.5 && volatility < 0.03:
		return SentimentStrongBull
	case trend > 0.2 && volatility < 0.05:
		return SentimentBull
	case trend < -0.5 && volatility > 0.08:
		return SentimentStrongBear
	case trend < -0.2 && volatility > 0.05:
		return SentimentBear
	default:
		return SentimentNeutral
	}
}

// UpdateConfidence rescores the agent's overall confidence from the current
// analysis: base 75, nudged by volatility, trend and volume, clamped [20,95].
func (a *AdaptiveAgent) UpdateConfidence() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	confidence := 75.0
	if a.analysis.Volatility < 0.04 {
		confidence += 10
	}
	if math.Abs(a.analysis.Trend) > 0.3 {
		confidence += 5
	}
	if a.analysis.Volume > 0.7 {
		confidence += 5
	}
	if a.analysis.Volatility > 0.08 {
		confidence -= 15
	}
	a.confidence = clamp(confidence, 20, 95)
	return a.confidence
}

// AssessPortfolioHealth scores the fleet and, when unhealthy, emits one
// portfolio_health decision carrying the first triggered recommendation.
func (a *AdaptiveAgent) AssessPortfolioHealth() float64 {
	stats := a.store.Stats()
	bots := a.store.Bots()

	healthScore := 100.0
	var recommendations []string

	if stats.TotalTrades > 0 && stats.SuccessRate < 40 {
		healthScore -= 30
		recommendations = append(recommendations, "Fleet win rate below 40% - consider reducing risk exposure")
	}

	var active, losing int
	for _, b := range bots {
		if !b.Active() {
			continue
		}
		active++
		if b.Profit < 0 {
			losing++
		}
	}
	if active > 0 && float64(losing)/float64(active) > 0.6 {
		healthScore -= 25
		recommendations = append(recommendations, "Majority of active bots are unprofitable - rebalance recommended")
	}

	if a.DetectHighCorrelation() {
		healthScore -= 20
		recommendations = append(recommendations, "Bot outcomes are highly correlated - diversify the strategy mix")
	}

	if healthScore < 70 && len(recommendations) > 0 {
		a.store.AppendDecision(domain.DecisionRecord{
			Category:   domain.DecisionPortfolioHealth,
			Message:    recommendations[0],
			Confidence: 85,
		})
		a.logger.Warn("Portfolio health degraded",
			zap.Float64("health_score", healthScore),
			zap.Strings("recommendations", recommendations))
	}
	return healthScore
}

// DetectHighCorrelation maps the most recent 50 trades to +1/-1 by success and
// flags correlation when the absolute mean exceeds 0.7.
func (a *AdaptiveAgent) DetectHighCorrelation() bool {
	trades := a.store.Trades(50)
	if len(trades) == 0 {
		return false
	}
	var sum float64
	for _, t := range trades {
		if t.Success {
			sum++
		} else {
			sum--
		}
	}
	return math.Abs(sum/float64(len(trades))) > 0.7
}

// MakeStrategicDecisions adjusts active-bot risk levels from the current
// sentiment, then applies the volatility nudges independently. Every risk
// change is clamped and written through the store.
func (a *AdaptiveAgent) MakeStrategicDecisions() {
	a.mu.Lock()
	analysis := a.analysis
	confidence := a.confidence
	a.mu.Unlock()

	switch analysis.Sentiment {
	case SentimentStrongBull:
		a.adjustActiveRisk(0.10)
		a.store.AppendDecision(domain.DecisionRecord{
			Category:   domain.DecisionStrategy,
			Message:    "Strong bullish market detected - raising risk exposure across active bots",
			Confidence: confidence,
		})
	case SentimentBull:
		a.adjustActiveRisk(0.10)
		a.store.AppendDecision(domain.DecisionRecord{
			Category:   domain.DecisionStrategy,
			Message:    "Bullish conditions - shifting active bots toward a growth posture",
			Confidence: confidence,
		})
	case SentimentBear, SentimentStrongBear:
		a.adjustActiveRisk(-0.15)
		a.store.AppendDecision(domain.DecisionRecord{
			Category:   domain.DecisionStrategy,
			Message:    "Bearish conditions - cutting risk exposure across active bots",
			Confidence: confidence,
		})
	default:
		a.store.AppendDecision(domain.DecisionRecord{
			Category:   domain.DecisionStrategy,
			Message:    "Neutral market - holding current risk allocations",
			Confidence: confidence,
		})
	}

	// Volatility nudges apply on top of the sentiment branch.
	if analysis.Volatility > 0.08 {
		a.adjustActiveRisk(-0.10)
	}
	if analysis.Volatility < 0.03 {
		a.adjustActiveRisk(0.05)
	}
}

func (a *AdaptiveAgent) adjustActiveRisk(delta float64) {
	for _, bot := range a.store.ActiveBots() {
		err := a.store.UpdateBot(bot.ID, func(b *domain.Bot) {
			b.RiskLevel = domain.ClampRiskLevel(b.RiskLevel + delta)
		})
		if err != nil {
			a.logger.Error("Failed to adjust bot risk", zap.Int64("bot_id", bot.ID), zap.Error(err))
		}
	}
}

// ShouldTrade gates the ai_adaptive strategy: a composite score scaled by the
// bot's risk level must clear 45 AND an independent uniform sample must clear
// 0.3. The stochastic gate is intentional dampening, kept as documented.
func (a *AdaptiveAgent) ShouldTrade(bot domain.Bot) bool {
	a.mu.Lock()
	analysis := a.analysis
	a.mu.Unlock()

	score := analysis.Volatility*30 +
		math.Abs(analysis.Trend)*25 +
		analysis.Volume*20 +
		(bot.SuccessRate/100)*15 +
		math.Min(10, bot.Profit/100)*10
	score *= bot.RiskLevel

	return score > 45 && a.rng.Float64() > 0.3
}

// TradeSide follows the sign of the aggregate trend.
func (a *AdaptiveAgent) TradeSide(bot domain.Bot) domain.Side {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.analysis.Trend > 0 {
		return domain.SideBuy
	}
	return domain.SideSell
}

// TradeConfidence derives a per-bot confidence from the overall confidence and
// the bot's track record, scaled by its risk level.
func (a *AdaptiveAgent) TradeConfidence(bot domain.Bot) float64 {
	a.mu.Lock()
	confidence := a.confidence
	a.mu.Unlock()

	confidence += (bot.SuccessRate - 50) / 2
	confidence += math.Min(20, bot.Profit/10)
	confidence *= bot.RiskLevel
	return clamp(confidence, 20, 95)
}

// LearnFromTrade appends an outcome to the bot's bounded history and refreshes
// the rolling metrics.
func (a *AdaptiveAgent) LearnFromTrade(botID int64, _ Decision, profit float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	model := a.modelLocked(botID)
	model.history.Push(TradeOutcome{Profit: profit, Success: profit > 0, Timestamp: time.Now()})
	model.recompute()
}

// OptimizeBot runs a one-shot manual recalibration of a single bot.
func (a *AdaptiveAgent) OptimizeBot(botID int64) (OptimizeResult, error) {
	bot, err := a.store.Bot(botID)
	if err != nil {
		return OptimizeResult{}, err
	}

	result := OptimizeResult{BotID: botID, OldRisk: bot.RiskLevel, NewRisk: bot.RiskLevel}
	switch {
	case bot.SuccessRate < 40:
		result.Applied = true
		result.NewRisk = domain.ClampRiskLevel(bot.RiskLevel - 0.2)
		result.Message = fmt.Sprintf("%s underperforming - risk level reduced to %.2f", bot.Name, result.NewRisk)
		result.Confidence = 80
	case bot.SuccessRate > 70 && bot.Profit > 50:
		result.Applied = true
		result.NewRisk = domain.ClampRiskLevel(bot.RiskLevel + 0.15)
		result.Message = fmt.Sprintf("%s performing well - risk level raised to %.2f", bot.Name, result.NewRisk)
		result.Confidence = 85
	default:
		result.Message = fmt.Sprintf("%s within normal parameters - no adjustment", bot.Name)
		result.Confidence = 70
	}

	if result.Applied {
		err := a.store.UpdateBot(botID, func(b *domain.Bot) {
			b.RiskLevel = result.NewRisk
		})
		if err != nil {
			return OptimizeResult{}, err
		}
	}

	a.store.AppendDecision(domain.DecisionRecord{
		Category:   domain.DecisionOptimization,
		Message:    result.Message,
		Confidence: result.Confidence,
	})

	a.mu.Lock()
	a.modelLocked(botID).LastOptimization = time.Now()
	a.mu.Unlock()

	a.logger.Info("Bot optimization completed",
		zap.Int64("bot_id", botID),
		zap.Bool("applied", result.Applied),
		zap.Float64("new_risk", result.NewRisk))
	return result, nil
}

// RunMonitorCycle is the adaptive-monitor task body: refresh the analysis,
// rescore confidence, apply strategic adjustments and check portfolio health.
func (a *AdaptiveAgent) RunMonitorCycle() {
	analysis := a.AnalyzeMarket()
	confidence := a.UpdateConfidence()
	a.MakeStrategicDecisions()
	health := a.AssessPortfolioHealth()

	a.logger.Debug("Adaptive monitor cycle completed",
		zap.String("sentiment", string(analysis.Sentiment)),
		zap.Float64("confidence", confidence),
		zap.Float64("health_score", health))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
