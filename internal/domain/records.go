package domain

import "time"

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Log capacities. Older entries are evicted once the cap is reached.
const (
	TradeLogCap    = 1000
	DecisionLogCap = 100
)

// TradeRecord is one executed (simulated) trade.
type TradeRecord struct {
	ID        int64     `json:"id"`
	BotID     int64     `json:"botId"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Amount    float64   `json:"amount"`
	Profit    float64   `json:"profit"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

type DecisionCategory string

const (
	DecisionSystem          DecisionCategory = "system"
	DecisionEmergency       DecisionCategory = "emergency"
	DecisionBotControl      DecisionCategory = "bot_control"
	DecisionOptimization    DecisionCategory = "optimization"
	DecisionStrategy        DecisionCategory = "strategy"
	DecisionPortfolioHealth DecisionCategory = "portfolio_health"
)

// DecisionRecord is one entry in the system/AI decision log.
type DecisionRecord struct {
	ID         int64            `json:"id"`
	Category   DecisionCategory `json:"category"`
	Message    string           `json:"message"`
	Confidence float64          `json:"confidence"`
	Timestamp  time.Time        `json:"timestamp"`
}
