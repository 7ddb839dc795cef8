package domain

type StrategyKind string

const (
	StrategyArbitrage    StrategyKind = "arbitrage"
	StrategyMomentum     StrategyKind = "momentum"
	StrategyMarketMaking StrategyKind = "market_making"
	StrategyScalping     StrategyKind = "scalping"
	StrategyAIAdaptive   StrategyKind = "ai_adaptive"
)

type BotStatus string

const (
	BotActive   BotStatus = "active"
	BotInactive BotStatus = "inactive"
)

// Risk level bounds enforced after every adjustment.
const (
	MinRiskLevel = 0.1
	MaxRiskLevel = 0.9
)

// Bot is one autonomous strategy instance with its own risk and performance state.
type Bot struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Strategy    StrategyKind `json:"strategy"`
	Status      BotStatus    `json:"status"`
	RiskLevel   float64      `json:"riskLevel"`
	Profit      float64      `json:"profit"`
	Trades      int          `json:"trades"`
	Wins        int          `json:"wins"`
	SuccessRate float64      `json:"successRate"` // percent, derived from Wins/Trades
	Score       float64      `json:"score"`
}

func (b *Bot) Active() bool {
	return b.Status == BotActive
}

// ClampRiskLevel bounds a risk value to [MinRiskLevel, MaxRiskLevel].
func ClampRiskLevel(risk float64) float64 {
	if risk < MinRiskLevel {
		return MinRiskLevel
	}
	if risk > MaxRiskLevel {
		return MaxRiskLevel
	}
	return risk
}
