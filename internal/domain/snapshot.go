package domain

// Settings are persisted fleet-level knobs. They are not consumed by any of the
// simulation heuristics; outer policy layers read them.
type Settings struct {
	RiskManagement bool    `json:"riskManagement"`
	AutoRebalance  bool    `json:"autoRebalance"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
	DailyTarget    float64 `json:"dailyTarget"`
}

// Snapshot is the complete serializable simulation state. It is the shape of
// the persisted record and of import/export payloads.
type Snapshot struct {
	Bots           []Bot                  `json:"bots"`
	TradingHistory []TradeRecord          `json:"tradingHistory"`
	AIDecisions    []DecisionRecord       `json:"aiDecisions"`
	MarketData     map[string]MarketQuote `json:"marketData"`
	Settings       Settings               `json:"settings"`
}

// FleetStats are aggregate figures derived from the current fleet.
type FleetStats struct {
	TotalProfit float64 `json:"totalProfit"`
	TotalTrades int     `json:"totalTrades"`
	SuccessRate float64 `json:"successRate"`
	ActiveBots  int     `json:"activeBots"`
}

// DefaultSnapshot is the dataset used when no persisted snapshot exists or the
// stored one cannot be read.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		Bots: []Bot{
			{ID: 1, Name: "Arb Hunter", Strategy: StrategyArbitrage, Status: BotInactive, RiskLevel: 0.3},
			{ID: 2, Name: "Momentum Rider", Strategy: StrategyMomentum, Status: BotInactive, RiskLevel: 0.5},
			{ID: 3, Name: "Spread Keeper", Strategy: StrategyMarketMaking, Status: BotInactive, RiskLevel: 0.4},
			{ID: 4, Name: "Quick Scalp", Strategy: StrategyScalping, Status: BotInactive, RiskLevel: 0.7},
			{ID: 5, Name: "Neural Pilot", Strategy: StrategyAIAdaptive, Status: BotInactive, RiskLevel: 0.6},
		},
		MarketData: map[string]MarketQuote{},
		Settings: Settings{
			RiskManagement: true,
			AutoRebalance:  true,
			MaxDrawdown:    15,
			DailyTarget:    5,
		},
	}
}
