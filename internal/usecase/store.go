package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/vitos/crypto_bot_fleet/internal/domain"
	"go.uber.org/zap"
)

// Store holds the in-memory simulation state and writes the full snapshot
// through to the repository after every mutating operation. All mutation goes
// through named operations; each one is a single atomic unit under the mutex.
type Store struct {
	repo   domain.SnapshotRepository
	logger *zap.Logger

	mu        sync.Mutex
	bots      []*domain.Bot // insertion order
	botIndex  map[int64]*domain.Bot
	market    map[string]domain.MarketQuote
	trades    *domain.RecordLog[domain.TradeRecord]
	decisions *domain.RecordLog[domain.DecisionRecord]
	settings  domain.Settings
	lastID    int64
}

// NewStore loads the persisted snapshot, falling back to the default dataset
// (and resaving it) when none exists or the stored one cannot be read.
func NewStore(repo domain.SnapshotRepository, logger *zap.Logger) (*Store, error) {
	s := &Store{repo: repo, logger: logger}

	snap, err := repo.Load()
	if err != nil {
		logger.Warn("Stored snapshot unreadable, starting from defaults", zap.Error(err))
		snap = nil
	}
	fresh := snap == nil
	if fresh {
		snap = domain.DefaultSnapshot()
	}
	s.applySnapshot(snap)

	if fresh {
		if err := repo.Save(s.exportLocked()); err != nil {
			return nil, fmt.Errorf("failed to save initial snapshot: %w", err)
		}
	}
	return s, nil
}

// applySnapshot replaces the in-memory state. Caller must hold the mutex (or
// own the store exclusively, as in NewStore).
func (s *Store) applySnapshot(snap *domain.Snapshot) {
	s.bots = make([]*domain.Bot, 0, len(snap.Bots))
	s.botIndex = make(map[int64]*domain.Bot, len(snap.Bots))
	for i := range snap.Bots {
		b := snap.Bots[i]
		bot := &b
		s.bots = append(s.bots, bot)
		s.botIndex[bot.ID] = bot
	}
	s.market = make(map[string]domain.MarketQuote, len(snap.MarketData))
	for sym, q := range snap.MarketData {
		s.market[sym] = q
	}
	s.trades = domain.FromSlice(domain.TradeLogCap, snap.TradingHistory)
	s.decisions = domain.FromSlice(domain.DecisionLogCap, snap.AIDecisions)
	s.settings = snap.Settings
}

func (s *Store) exportLocked() *domain.Snapshot {
	snap := &domain.Snapshot{
		TradingHistory: s.trades.Items(),
		AIDecisions:    s.decisions.Items(),
		MarketData:     make(map[string]domain.MarketQuote, len(s.market)),
		Settings:       s.settings,
	}
	snap.Bots = make([]domain.Bot, len(s.bots))
	for i, b := range s.bots {
		snap.Bots[i] = *b
	}
	for sym, q := range s.market {
		snap.MarketData[sym] = q
	}
	return snap
}

func (s *Store) persistLocked() {
	if err := s.repo.Save(s.exportLocked()); err != nil {
		s.logger.Error("Failed to persist snapshot", zap.Error(err))
	}
}

// nextID returns a monotonically increasing millisecond id.
func (s *Store) nextIDLocked() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// UpdateBot applies mutate to the addressed bot, recomputes its success rate
// from the win/trade counters and persists. The risk level is re-clamped so no
// mutation can leave it out of bounds.
func (s *Store) UpdateBot(id int64, mutate func(*domain.Bot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bot, ok := s.botIndex[id]
	if !ok {
		return domain.ErrBotNotFound
	}
	mutate(bot)
	bot.RiskLevel = domain.ClampRiskLevel(bot.RiskLevel)
	if bot.Trades > 0 {
		bot.SuccessRate = float64(bot.Wins) / float64(bot.Trades) * 100
	} else {
		bot.SuccessRate = 0
	}
	s.persistLocked()
	return nil
}

// SetAllBotStatus flips the whole fleet in one persisted operation.
func (s *Store) SetAllBotStatus(status domain.BotStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bots {
		b.Status = status
	}
	s.persistLocked()
}

func (s *Store) Bot(id int64) (domain.Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bot, ok := s.botIndex[id]
	if !ok {
		return domain.Bot{}, domain.ErrBotNotFound
	}
	return *bot, nil
}

// Bots returns the fleet in insertion order.
func (s *Store) Bots() []domain.Bot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Bot, len(s.bots))
	for i, b := range s.bots {
		out[i] = *b
	}
	return out
}

// ActiveBots returns the active subset in insertion order.
func (s *Store) ActiveBots() []domain.Bot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Bot
	for _, b := range s.bots {
		if b.Active() {
			out = append(out, *b)
		}
	}
	return out
}

// ReplaceMarketData swaps the whole market snapshot and persists.
func (s *Store) ReplaceMarketData(quotes map[string]domain.MarketQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.market = make(map[string]domain.MarketQuote, len(quotes))
	for sym, q := range quotes {
		s.market[sym] = q
	}
	s.persistLocked()
}

func (s *Store) MarketData() map[string]domain.MarketQuote {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.MarketQuote, len(s.market))
	for sym, q := range s.market {
		out[sym] = q
	}
	return out
}

// Symbols returns the currently known market symbols, sorted for stable use.
func (s *Store) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.market))
	for sym := range s.market {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// AppendTrade records a trade (assigning an id when unset) and persists.
func (s *Store) AppendTrade(trade domain.TradeRecord) domain.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trade.ID == 0 {
		trade.ID = s.nextIDLocked()
	}
	s.trades.Push(trade)
	s.persistLocked()
	return trade
}

// Trades returns up to limit newest trades, newest first. limit <= 0 returns all.
func (s *Store) Trades(limit int) []domain.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		return s.trades.Items()
	}
	return s.trades.Recent(limit)
}

// AppendDecision records a decision (assigning an id when unset) and persists.
func (s *Store) AppendDecision(decision domain.DecisionRecord) domain.DecisionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if decision.ID == 0 {
		decision.ID = s.nextIDLocked()
	}
	if decision.Timestamp.IsZero() {
		decision.Timestamp = time.Now()
	}
	s.decisions.Push(decision)
	s.persistLocked()
	return decision
}

// Decisions returns up to limit newest decisions, newest first. limit <= 0
// returns all.
func (s *Store) Decisions(limit int) []domain.DecisionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		return s.decisions.Items()
	}
	return s.decisions.Recent(limit)
}

func (s *Store) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Store) UpdateSettings(settings domain.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	s.persistLocked()
}

// Stats recomputes the fleet aggregates from the current bots.
func (s *Store) Stats() domain.FleetStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats domain.FleetStats
	var wins int
	for _, b := range s.bots {
		stats.TotalProfit += b.Profit
		stats.TotalTrades += b.Trades
		wins += b.Wins
		if b.Active() {
			stats.ActiveBots++
		}
	}
	if stats.TotalTrades > 0 {
		stats.SuccessRate = float64(wins) / float64(stats.TotalTrades) * 100
	}
	stats.TotalProfit = math.Round(stats.TotalProfit*100) / 100
	return stats
}

// Export returns a deep copy of the current state in the snapshot shape.
func (s *Store) Export() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportLocked()
}

// Import replaces the whole state with the given snapshot payload. The payload
// is rejected, leaving the state untouched, unless the bots, tradingHistory and
// aiDecisions keys are all present.
func (s *Store) Import(raw []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return fmt.Errorf("invalid import payload: %w", err)
	}
	for _, required := range []string{"bots", "tradingHistory", "aiDecisions"} {
		if _, ok := keys[required]; !ok {
			return fmt.Errorf("invalid import payload: missing %q", required)
		}
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("invalid import payload: %w", err)
	}
	if snap.MarketData == nil {
		snap.MarketData = map[string]domain.MarketQuote{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applySnapshot(&snap)
	s.persistLocked()
	return nil
}
