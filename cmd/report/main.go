package main

import (
	"flag"
	"log"
	"os"

	"github.com/vitos/crypto_bot_fleet/internal/domain"
	"github.com/vitos/crypto_bot_fleet/internal/infrastructure/storage"
)

// Prints a fleet performance report from a persisted snapshot.
func main() {
	dbPath := flag.String("db", "fleet.db", "path to the snapshot database")
	flag.Parse()

	repo, err := storage.NewSQLiteSnapshotStore(*dbPath)
	if err != nil {
		log.Fatalf("failed to open snapshot database: %v", err)
	}
	defer repo.Close()

	snap, err := repo.Load()
	if err != nil {
		log.Fatalf("failed to load snapshot: %v", err)
	}
	if snap == nil {
		log.Println("no snapshot saved yet")
		os.Exit(0)
	}

	printReport(snap)
}

func printReport(snap *domain.Snapshot) {
	var totalProfit float64
	var totalTrades, totalWins, active int
	for _, b := range snap.Bots {
		totalProfit += b.Profit
		totalTrades += b.Trades
		totalWins += b.Wins
		if b.Status == domain.BotActive {
			active++
		}
	}
	successRate := 0.0
	if totalTrades > 0 {
		successRate = float64(totalWins) / float64(totalTrades) * 100
	}

	log.Println("========== Fleet Performance Report ==========")
	log.Printf("Bots:             %d (%d active)", len(snap.Bots), active)
	log.Printf("Total profit:     %.2f", totalProfit)
	log.Printf("Total trades:     %d", totalTrades)
	log.Printf("Fleet win rate:   %.2f%%", successRate)
	log.Println("----------------------------------------------")
	for _, b := range snap.Bots {
		log.Printf("#%d %-16s %-13s risk=%.2f profit=%8.2f trades=%4d win=%.1f%% score=%.1f",
			b.ID, b.Name, b.Strategy, b.RiskLevel, b.Profit, b.Trades, b.SuccessRate, b.Score)
	}

	log.Println("--- Decision mix (recent) --------------------")
	counts := map[domain.DecisionCategory]int{}
	for _, d := range snap.AIDecisions {
		counts[d.Category]++
	}
	for _, cat := range []domain.DecisionCategory{
		domain.DecisionSystem, domain.DecisionEmergency, domain.DecisionBotControl,
		domain.DecisionOptimization, domain.DecisionStrategy, domain.DecisionPortfolioHealth,
	} {
		if counts[cat] > 0 {
			log.Printf("%-18s %d", cat, counts[cat])
		}
	}

	if len(snap.TradingHistory) > 0 {
		log.Println("--- Last trades ------------------------------")
		limit := len(snap.TradingHistory)
		if limit > 10 {
			limit = 10
		}
		for _, t := range snap.TradingHistory[:limit] {
			log.Printf("bot=%d %-8s %-4s amount=%7.2f profit=%7.2f success=%v",
				t.BotID, t.Symbol, t.Side, t.Amount, t.Profit, t.Success)
		}
	}
	log.Println("==============================================")
}
