package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vitos/crypto_bot_fleet/internal/infrastructure/logger"
	"github.com/vitos/crypto_bot_fleet/internal/infrastructure/storage"
	"github.com/vitos/crypto_bot_fleet/internal/usecase"
	"github.com/vitos/crypto_bot_fleet/internal/web"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Simulation struct {
		MarketRefreshSec   int `yaml:"market_refresh_sec"`
		TradingCycleSec    int `yaml:"trading_cycle_sec"`
		AdaptiveMonitorSec int `yaml:"adaptive_monitor_sec"`
	} `yaml:"simulation"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets deployment tweak the basics without editing the yaml.
func applyEnvOverrides(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("FLEET_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("FLEET_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FLEET_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

func main() {
	// 1. Load Config
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyEnvOverrides(cfg)

	// 2. Init Logger
	var log *zap.Logger
	if cfg.Logging.File != "" {
		log, err = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = "fleet.db"
	}
	repo, err := storage.NewSQLiteSnapshotStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer repo.Close()

	// 4. Init Store (load-or-default)
	store, err := usecase.NewStore(repo, log)
	if err != nil {
		log.Fatal("Failed to init store", zap.Error(err))
	}

	// 5. Init Simulation Services
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	simulator := usecase.NewMarketSimulator(store, rng, log)
	agent := usecase.NewAdaptiveAgent(store, rng, log)
	engine := usecase.NewStrategyEngine(rng, agent)

	schedCfg := usecase.DefaultSchedulerConfig()
	if cfg.Simulation.MarketRefreshSec > 0 {
		schedCfg.MarketRefresh = time.Duration(cfg.Simulation.MarketRefreshSec) * time.Second
	}
	if cfg.Simulation.TradingCycleSec > 0 {
		schedCfg.TradingCycle = time.Duration(cfg.Simulation.TradingCycleSec) * time.Second
	}
	if cfg.Simulation.AdaptiveMonitorSec > 0 {
		schedCfg.AdaptiveMonitor = time.Duration(cfg.Simulation.AdaptiveMonitorSec) * time.Second
	}
	scheduler := usecase.NewScheduler(store, simulator, engine, agent, rng, schedCfg, log)

	// 6. Start Periodic Tasks (market refresh runs from here on)
	simulator.Refresh()
	scheduler.Run()

	// 7. Init Web Server
	port := cfg.Server.Port
	if port == 0 {
		port = 8080 // Default
	}
	server := web.NewServer(port, store, scheduler, agent, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 8. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	scheduler.Stop()
	scheduler.Shutdown()
	server.Shutdown(context.Background())
}
