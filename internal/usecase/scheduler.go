package usecase

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vitos/crypto_bot_fleet/internal/domain"
	"go.uber.org/zap"
)

// SchedulerConfig holds the three task periods. cron rounds them to whole
// seconds; anything below a second is raised to one.
type SchedulerConfig struct {
	MarketRefresh   time.Duration
	TradingCycle    time.Duration
	AdaptiveMonitor time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MarketRefresh:   5 * time.Second,
		TradingCycle:    3 * time.Second,
		AdaptiveMonitor: 10 * time.Second,
	}
}

// Scheduler owns the three periodic tasks and the fleet start/stop/toggle
// controls. Each task carries an in-flight guard: a tick firing while the
// previous invocation of the same task is still running is dropped, never
// queued. The market-refresh task runs from Run() on, independent of the
// fleet flag; Start/Stop only govern the trading-cycle and adaptive-monitor
// tasks.
type Scheduler struct {
	store     *Store
	simulator *MarketSimulator
	engine    *StrategyEngine
	agent     *AdaptiveAgent
	rng       domain.RandSource
	logger    *zap.Logger
	cfg       SchedulerConfig
	cron      *cron.Cron

	mu           sync.Mutex
	running      bool
	tradingEntry cron.EntryID
	monitorEntry cron.EntryID

	marketInFlight  atomic.Bool
	tradingInFlight atomic.Bool
	monitorInFlight atomic.Bool
}

func NewScheduler(
	store *Store,
	simulator *MarketSimulator,
	engine *StrategyEngine,
	agent *AdaptiveAgent,
	rng domain.RandSource,
	cfg SchedulerConfig,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		store:     store,
		simulator: simulator,
		engine:    engine,
		agent:     agent,
		rng:       rng,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Run starts the cron runner and the market-refresh task.
func (s *Scheduler) Run() {
	s.cron.Schedule(cron.Every(s.cfg.MarketRefresh), cron.FuncJob(s.marketTick))
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Duration("market_refresh", s.cfg.MarketRefresh))
}

// Shutdown stops the cron runner entirely and waits for running jobs.
func (s *Scheduler) Shutdown() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// Running reports whether the fleet tasks are active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start activates the fleet: every bot goes active, one system decision is
// logged and the trading-cycle and adaptive-monitor tasks begin. No-op when
// already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	s.store.SetAllBotStatus(domain.BotActive)
	s.store.AppendDecision(domain.DecisionRecord{
		Category:   domain.DecisionSystem,
		Message:    "Trading fleet activated - all bots online",
		Confidence: 100,
	})

	s.tradingEntry = s.cron.Schedule(cron.Every(s.cfg.TradingCycle), cron.FuncJob(s.tradingTick))
	s.monitorEntry = s.cron.Schedule(cron.Every(s.cfg.AdaptiveMonitor), cron.FuncJob(s.monitorTick))
	s.logger.Info("Fleet started",
		zap.Duration("trading_cycle", s.cfg.TradingCycle),
		zap.Duration("adaptive_monitor", s.cfg.AdaptiveMonitor))
}

// Stop deactivates the fleet: the trading-cycle and adaptive-monitor tasks are
// cancelled, every bot goes inactive and one emergency decision is logged. The
// market-refresh task keeps running. No-op when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	s.cron.Remove(s.tradingEntry)
	s.cron.Remove(s.monitorEntry)

	s.store.SetAllBotStatus(domain.BotInactive)
	s.store.AppendDecision(domain.DecisionRecord{
		Category:   domain.DecisionEmergency,
		Message:    "Emergency stop - trading fleet halted",
		Confidence: 100,
	})
	s.logger.Info("Fleet stopped")
}

// ToggleBot flips a single bot's status and logs one bot_control decision. The
// fleet flag and every other bot are untouched.
func (s *Scheduler) ToggleBot(id int64) error {
	var name string
	var status domain.BotStatus
	err := s.store.UpdateBot(id, func(b *domain.Bot) {
		if b.Status == domain.BotActive {
			b.Status = domain.BotInactive
		} else {
			b.Status = domain.BotActive
		}
		name = b.Name
		status = b.Status
	})
	if err != nil {
		return err
	}

	s.store.AppendDecision(domain.DecisionRecord{
		Category:   domain.DecisionBotControl,
		Message:    fmt.Sprintf("Bot %s switched to %s", name, status),
		Confidence: 100,
	})
	s.logger.Info("Bot toggled", zap.Int64("bot_id", id), zap.String("status", string(status)))
	return nil
}

func (s *Scheduler) marketTick() {
	if !s.marketInFlight.CompareAndSwap(false, true) {
		s.logger.Debug("Market refresh tick dropped, previous still running")
		return
	}
	defer s.marketInFlight.Store(false)
	s.simulator.Refresh()
}

func (s *Scheduler) tradingTick() {
	if !s.tradingInFlight.CompareAndSwap(false, true) {
		s.logger.Debug("Trading cycle tick dropped, previous still running")
		return
	}
	defer s.tradingInFlight.Store(false)
	s.runTradingCycle()
}

func (s *Scheduler) monitorTick() {
	if !s.monitorInFlight.CompareAndSwap(false, true) {
		s.logger.Debug("Adaptive monitor tick dropped, previous still running")
		return
	}
	defer s.monitorInFlight.Store(false)
	s.agent.RunMonitorCycle()
}

// runTradingCycle walks the active bots in insertion order, executes the
// decisions the engine approves and hands every outcome to the agent's
// learning hook, then lets the agent take its strategic step.
func (s *Scheduler) runTradingCycle() {
	bots := s.store.ActiveBots()
	if len(bots) == 0 {
		return
	}
	symbols := s.store.Symbols()

	var executed int
	for _, bot := range bots {
		conditions := SampleMarketConditions(s.rng)
		decision := s.engine.Decide(bot, conditions, symbols)
		if !decision.Execute {
			continue
		}

		profit, success := s.engine.Outcome(bot, decision)
		err := s.store.UpdateBot(bot.ID, func(b *domain.Bot) {
			b.Profit = round2(b.Profit + profit)
			b.Trades++
			if success {
				b.Wins++
			}
			rate := float64(b.Wins) / float64(b.Trades) * 100
			b.Score = PerformanceScore(rate, profit)
		})
		if err != nil {
			s.logger.Error("Failed to update bot after trade", zap.Int64("bot_id", bot.ID), zap.Error(err))
			continue
		}

		s.store.AppendTrade(domain.TradeRecord{
			BotID:     bot.ID,
			Symbol:    decision.Symbol,
			Side:      decision.Side,
			Amount:    decision.Amount,
			Profit:    profit,
			Success:   success,
			Timestamp: time.Now(),
		})
		s.agent.LearnFromTrade(bot.ID, decision, profit)
		executed++
	}

	stats := s.store.Stats()
	s.agent.MakeStrategicDecisions()

	s.logger.Debug("Trading cycle completed",
		zap.Int("active_bots", len(bots)),
		zap.Int("trades_executed", executed),
		zap.Float64("total_profit", stats.TotalProfit))
}
